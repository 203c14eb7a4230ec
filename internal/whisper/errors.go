package whisper

import "errors"

var (
	// ErrModelLoad reports that a model file could not be read or is not a
	// recognized model format.
	ErrModelLoad = errors.New("whisper: unable to load model")
	// ErrEngineClosed reports use of an engine after Close.
	ErrEngineClosed = errors.New("whisper: engine closed")
	// ErrInvalidAudio reports a sample buffer the engine cannot decode,
	// such as one containing NaN or infinite values.
	ErrInvalidAudio = errors.New("whisper: invalid audio buffer")
)
