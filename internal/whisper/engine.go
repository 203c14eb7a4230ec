package whisper

import "context"

// SampleRate is the sample rate the engine expects: mono PCM32F at 16 kHz.
const SampleRate = 16000

// Segment is one contiguous span of recognized speech. Start and End are
// centisecond offsets into the submitted audio buffer, matching the native
// whisper.cpp timestamp convention.
type Segment struct {
	Text  string
	Start int64
	End   int64
}

// RunParams configures a single transcription run.
type RunParams struct {
	// Threads sizes the engine's internal worker pool for this call.
	// Zero or negative means one thread per CPU core.
	Threads int
	// Language is an ISO-639-1 code, or "auto" for automatic detection.
	Language string
	// Translate requests source-to-English translation instead of transcription.
	Translate bool
	// Profile pins the decoding configuration. The zero value is treated as
	// LowLatencyProfile.
	Profile *Profile
}

func (p RunParams) profile() Profile {
	if p.Profile == nil {
		return LowLatencyProfile()
	}
	return *p.Profile
}

// Engine runs recognition over an in-memory audio buffer.
// Implementations may be a deterministic stub (default build) or backed by
// whisper.cpp (build tag: whisper_cpp). An Engine is not reentrant: callers
// must serialize Transcribe calls on the same instance.
type Engine interface {
	// Transcribe runs a single low-latency pass over 16 kHz mono PCM32F
	// samples and returns the ordered segments it produced. Once started it
	// runs to completion or failure; ctx is only honoured where the backend
	// exposes a per-step callback.
	Transcribe(ctx context.Context, samples []float32, params RunParams) ([]Segment, error)
	Close() error
}
