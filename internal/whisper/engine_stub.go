//go:build !whisper_cpp

package whisper

import (
	"context"
	"fmt"
	"math"
	"os"
	"runtime"
	"sync"

	"github.com/rs/zerolog/log"
)

// Default stub (no cgo) so the project builds and tests without the
// whisper_cpp tag. It detects voiced regions with a simple energy gate and
// emits deterministic placeholder text, which is enough to exercise the
// session gateway contract.
type stubEngine struct {
	mu     sync.Mutex
	closed bool
}

const (
	// stubWindow is the energy-gate analysis window: 100 ms at 16 kHz,
	// which is exactly 10 centiseconds per window.
	stubWindow = SampleRate / 10
	// stubGate is the RMS level below which a window counts as silence.
	stubGate = 0.01
)

// NewEngine opens modelPath and returns a stub Engine. The stub does not
// parse the model but still fails on unreadable or empty paths so load
// errors surface the same way they would with the native backend.
func NewEngine(modelPath string) (Engine, error) {
	info, err := os.Stat(modelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelLoad, modelPath, err)
	}
	if info.IsDir() || info.Size() == 0 {
		return nil, fmt.Errorf("%w: %s: not a model file", ErrModelLoad, modelPath)
	}
	log.Info().Str("model", modelPath).Msg("whisper: stub engine ready")
	return &stubEngine{}, nil
}

func (e *stubEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	return nil
}

func (e *stubEngine) Transcribe(ctx context.Context, samples []float32, params RunParams) ([]Segment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil, ErrEngineClosed
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(samples) == 0 {
		return nil, nil
	}

	threads := params.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	lang := NormalizeLanguage(params.Language)
	profile := params.profile()

	voiced, err := voicedWindows(samples, threads)
	if err != nil {
		return nil, err
	}

	segments := mergeRegions(voiced)
	if profile.SingleSegment && len(segments) > 1 {
		merged := Segment{Start: segments[0].Start, End: segments[len(segments)-1].End}
		segments = []Segment{merged}
	}
	task := "transcribe"
	if params.Translate {
		task = "translate"
	}
	for i := range segments {
		segments[i].Text = fmt.Sprintf("[stub %s/%s segment %d]", task, lang, i)
	}

	log.Debug().
		Int("samples", len(samples)).
		Int("threads", threads).
		Str("language", lang).
		Int("segments", len(segments)).
		Msg("whisper: stub transcription complete")
	return segments, nil
}

// voicedWindows computes the per-window energy gate, fanning the RMS work out
// over a pool sized by the caller's thread hint.
func voicedWindows(samples []float32, threads int) ([]bool, error) {
	n := (len(samples) + stubWindow - 1) / stubWindow
	voiced := make([]bool, n)
	errs := make([]error, threads)

	var wg sync.WaitGroup
	for w := 0; w < threads; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := worker; i < n; i += threads {
				lo := i * stubWindow
				hi := lo + stubWindow
				if hi > len(samples) {
					hi = len(samples)
				}
				var sum float64
				for _, s := range samples[lo:hi] {
					if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
						errs[worker] = fmt.Errorf("%w: non-finite sample at %d", ErrInvalidAudio, lo)
						return
					}
					sum += float64(s) * float64(s)
				}
				rms := math.Sqrt(sum / float64(hi-lo))
				voiced[i] = rms >= stubGate
			}
		}(w)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return voiced, nil
}

// mergeRegions folds runs of consecutive voiced windows into segments with
// centisecond timestamps (one window is 10 cs).
func mergeRegions(voiced []bool) []Segment {
	var segments []Segment
	start := -1
	for i, v := range voiced {
		switch {
		case v && start < 0:
			start = i
		case !v && start >= 0:
			segments = append(segments, Segment{Start: int64(start) * 10, End: int64(i) * 10})
			start = -1
		}
	}
	if start >= 0 {
		segments = append(segments, Segment{Start: int64(start) * 10, End: int64(len(voiced)) * 10})
	}
	return segments
}

// SystemInfo describes the build capabilities. The stub has no native
// feature sets to report, so it names the Go runtime instead.
func SystemInfo() string {
	return fmt.Sprintf("whispergate stub | GOOS=%s GOARCH=%s CPUs=%d", runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
}
