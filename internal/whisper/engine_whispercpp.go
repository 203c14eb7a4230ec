//go:build whisper_cpp

package whisper

import (
	"context"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"
	"time"

	whisperlow "github.com/ggerganov/whisper.cpp/bindings/go"
	whisperpkg "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/rs/zerolog/log"
)

// cppEngine is the whisper.cpp-backed implementation of Engine.
type cppEngine struct {
	mu    sync.Mutex
	model whisperpkg.Model
}

// NewEngine loads a ggml model from modelPath with engine-default
// initialization parameters.
func NewEngine(modelPath string) (Engine, error) {
	m, err := whisperpkg.New(modelPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrModelLoad, modelPath, err)
	}
	log.Info().Str("model", modelPath).Msg("whisper: model loaded")
	return &cppEngine{model: m}, nil
}

func (e *cppEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model != nil {
		e.model.Close()
		e.model = nil
	}
	return nil
}

func (e *cppEngine) Transcribe(ctx context.Context, samples []float32, params RunParams) ([]Segment, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.model == nil {
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

	wctx, err := e.model.NewContext()
	if err != nil {
		return nil, fmt.Errorf("whisper: create context: %w", err)
	}

	wctx.SetThreads(uint(threads))
	// SetLanguage rejects non-"auto" codes on English-only models; the run
	// then proceeds with the model default, which is the fail-closed
	// behaviour we want.
	_ = wctx.SetLanguage(NormalizeLanguage(params.Language))
	wctx.SetTranslate(params.Translate)

	profile := params.profile()
	wctx.SetTokenTimestamps(profile.TokenTimestamps)
	wctx.SetBeamSize(profile.BeamSize)
	if !profile.KeepContext {
		// The bindings don't expose no_context; max-context 0 is the
		// closest knob for discarding prior decoding context.
		wctx.SetMaxContext(0)
	}
	wctx.SetMaxSegmentLength(0)
	wctx.SetMaxTokensPerSegment(0)
	wctx.SetAudioCtx(0)

	// Cooperative cancellation: the encoder-begin callback is the only
	// per-step hook the bindings expose.
	encoderBegin := func() bool { return ctx.Err() == nil }

	// The bindings only set whisper.cpp's single_segment flag when a
	// segment callback is registered, so register a no-op one to get
	// single-segment decoding.
	var onSegment whisperpkg.SegmentCallback
	if profile.SingleSegment {
		onSegment = func(whisperpkg.Segment) {}
	}

	if err := wctx.Process(samples, encoderBegin, onSegment, nil); err != nil {
		if cerr := ctx.Err(); cerr != nil {
			return nil, cerr
		}
		return nil, fmt.Errorf("whisper: process audio: %w", err)
	}

	var segments []Segment
	for {
		seg, err := wctx.NextSegment()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Warn().Err(err).Msg("whisper: error reading segment")
			break
		}
		segments = append(segments, Segment{
			Text:  strings.TrimSpace(seg.Text),
			Start: int64(seg.Start / (10 * time.Millisecond)),
			End:   int64(seg.End / (10 * time.Millisecond)),
		})
	}

	log.Debug().
		Int("samples", len(samples)).
		Int("threads", threads).
		Int("segments", len(segments)).
		Msg("whisper: transcription complete")
	return segments, nil
}

// SystemInfo reports the native build's enabled CPU feature sets.
func SystemInfo() string {
	return whisperlow.Whisper_print_system_info()
}
