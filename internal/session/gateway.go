package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/whispergate/whispergate/internal/whisper"
)

// RunParams carries the per-run inputs accepted across the boundary.
type RunParams struct {
	// Threads sizes the engine's worker pool for this call; zero or
	// negative means one per CPU core.
	Threads int
	// Samples is the mono 16 kHz PCM32F audio buffer.
	Samples []float32
	// Language is an ISO-639-1 code or "auto" for automatic detection.
	Language string
	// Translate requests source-to-English translation.
	Translate bool
}

// Gateway owns the arena of native inference sessions and exposes the
// create / run / read / release lifecycle over opaque handles. Distinct
// handles are fully independent; calls on the same handle are serialized by
// a per-session lock.
type Gateway struct {
	mu    sync.RWMutex
	slots []*slot
	free  []uint32

	profile   whisper.Profile
	newEngine func(modelPath string) (whisper.Engine, error)
}

type slot struct {
	generation uint32
	live       bool
	sess       *sessionState
}

type sessionState struct {
	mu       sync.Mutex
	engine   whisper.Engine
	segments []whisper.Segment
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithProfile overrides the decoding profile applied to every run. The
// default is the low-latency single-utterance profile.
func WithProfile(p whisper.Profile) Option {
	return func(g *Gateway) { g.profile = p }
}

// NewGateway returns an empty session table.
func NewGateway(opts ...Option) *Gateway {
	g := &Gateway{
		profile:   whisper.LowLatencyProfile(),
		newEngine: whisper.NewEngine,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Create loads a model from modelPath and returns a handle for the new
// session. On failure it returns NilHandle and an error wrapping
// ErrModelLoad; no session state is retained.
func (g *Gateway) Create(modelPath string) (Handle, error) {
	engine, err := g.newEngine(modelPath)
	if err != nil {
		log.Warn().Err(err).Str("model", modelPath).Msg("session: model load failed")
		return NilHandle, fmt.Errorf("%w: %v", ErrModelLoad, err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var idx uint32
	if n := len(g.free); n > 0 {
		idx = g.free[n-1]
		g.free = g.free[:n-1]
	} else {
		g.slots = append(g.slots, &slot{})
		idx = uint32(len(g.slots) - 1)
	}
	s := g.slots[idx]
	s.generation++
	s.live = true
	s.sess = &sessionState{engine: engine}

	h := makeHandle(idx, s.generation)
	log.Info().Str("model", modelPath).Uint64("handle", uint64(h)).Msg("session: created")
	return h, nil
}

// Release frees the session owned by h. Releasing NilHandle is a no-op;
// releasing an already-released or unknown handle returns ErrInvalidHandle.
// Release waits for any in-flight run on the session to finish.
func (g *Gateway) Release(h Handle) error {
	if h.IsNil() {
		return nil
	}

	g.mu.Lock()
	idx := h.slot()
	if int(idx) >= len(g.slots) {
		g.mu.Unlock()
		return ErrInvalidHandle
	}
	s := g.slots[idx]
	if !s.live || s.generation != h.generation() {
		g.mu.Unlock()
		return ErrInvalidHandle
	}
	sess := s.sess
	s.live = false
	s.sess = nil
	g.free = append(g.free, idx)
	g.mu.Unlock()

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := sess.engine.Close(); err != nil {
		log.Warn().Err(err).Uint64("handle", uint64(h)).Msg("session: engine close failed")
	}
	sess.segments = nil
	log.Info().Uint64("handle", uint64(h)).Msg("session: released")
	return nil
}

// Run executes one recognition pass over params.Samples. Prior segment state
// is discarded before the engine runs, so a failed run never leaves stale
// results surfable through the accessors. Accessor calls made strictly after
// Run returns observe exactly this run's output.
func (g *Gateway) Run(ctx context.Context, h Handle, params RunParams) error {
	sess, err := g.lookup(h)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.segments = nil

	segments, err := sess.engine.Transcribe(ctx, params.Samples, whisper.RunParams{
		Threads:   params.Threads,
		Language:  params.Language,
		Translate: params.Translate,
		Profile:   &g.profile,
	})
	if err != nil {
		log.Warn().
			Err(err).
			Uint64("handle", uint64(h)).
			Int("samples", len(params.Samples)).
			Str("language", params.Language).
			Msg("session: run failed")
		return fmt.Errorf("%w: %v", ErrInference, err)
	}

	sess.segments = segments
	log.Debug().
		Uint64("handle", uint64(h)).
		Int("samples", len(params.Samples)).
		Int("segments", len(segments)).
		Msg("session: run complete")
	return nil
}

// SegmentCount returns the number of segments produced by the most recent
// run, or zero before any run.
func (g *Gateway) SegmentCount(h Handle) (int, error) {
	sess, err := g.lookup(h)
	if err != nil {
		return 0, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return len(sess.segments), nil
}

// SegmentText returns the text payload of segment index.
func (g *Gateway) SegmentText(h Handle, index int) (string, error) {
	seg, err := g.segment(h, index)
	if err != nil {
		return "", err
	}
	return seg.Text, nil
}

// SegmentStart returns the centisecond start offset of segment index.
func (g *Gateway) SegmentStart(h Handle, index int) (int64, error) {
	seg, err := g.segment(h, index)
	if err != nil {
		return 0, err
	}
	return seg.Start, nil
}

// SegmentEnd returns the centisecond end offset of segment index.
func (g *Gateway) SegmentEnd(h Handle, index int) (int64, error) {
	seg, err := g.segment(h, index)
	if err != nil {
		return 0, err
	}
	return seg.End, nil
}

// Segments returns a copy of the most recent run's segments.
func (g *Gateway) Segments(h Handle) ([]whisper.Segment, error) {
	sess, err := g.lookup(h)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]whisper.Segment, len(sess.segments))
	copy(out, sess.segments)
	return out, nil
}

// Active returns the number of live sessions.
func (g *Gateway) Active() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.slots) - len(g.free)
}

// Close releases every live session. Intended for host shutdown.
func (g *Gateway) Close() error {
	g.mu.Lock()
	var open []*sessionState
	for _, s := range g.slots {
		if s.live {
			open = append(open, s.sess)
			s.live = false
			s.sess = nil
		}
	}
	g.slots = nil
	g.free = nil
	g.mu.Unlock()

	for _, sess := range open {
		sess.mu.Lock()
		if err := sess.engine.Close(); err != nil {
			log.Warn().Err(err).Msg("session: engine close failed")
		}
		sess.segments = nil
		sess.mu.Unlock()
	}
	return nil
}

func (g *Gateway) segment(h Handle, index int) (whisper.Segment, error) {
	sess, err := g.lookup(h)
	if err != nil {
		return whisper.Segment{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if index < 0 || index >= len(sess.segments) {
		return whisper.Segment{}, fmt.Errorf("%w: %d of %d", ErrIndexOutOfRange, index, len(sess.segments))
	}
	return sess.segments[index], nil
}

func (g *Gateway) lookup(h Handle) (*sessionState, error) {
	if h.IsNil() {
		return nil, ErrInvalidHandle
	}
	g.mu.RLock()
	defer g.mu.RUnlock()
	idx := h.slot()
	if int(idx) >= len(g.slots) {
		return nil, ErrInvalidHandle
	}
	s := g.slots[idx]
	if !s.live || s.generation != h.generation() {
		return nil, ErrInvalidHandle
	}
	return s.sess, nil
}

// SystemInfo reports the engine build's capability description. It needs no
// session.
func SystemInfo() string {
	return whisper.SystemInfo()
}
