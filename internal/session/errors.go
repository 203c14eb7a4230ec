package session

import "errors"

var (
	// ErrModelLoad reports that Create could not load a model from the
	// given path.
	ErrModelLoad = errors.New("session: model load failed")
	// ErrInference reports an engine failure during a run. Segment state
	// from any prior run is cleared before this is returned.
	ErrInference = errors.New("session: inference failed")
	// ErrInvalidHandle reports use of a released, stale, or unknown handle.
	ErrInvalidHandle = errors.New("session: invalid handle")
	// ErrIndexOutOfRange reports a segment accessor index beyond the
	// current segment count.
	ErrIndexOutOfRange = errors.New("session: segment index out of range")
)
