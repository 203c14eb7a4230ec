//go:build !whisper_cpp

package session

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/whispergate/whispergate/internal/whisper"
)

func writeModelFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ggml-test.bin")
	if err := os.WriteFile(path, []byte("ggml"), 0o644); err != nil {
		t.Fatalf("write model file: %v", err)
	}
	return path
}

func tone(seconds float64) []float32 {
	n := int(seconds * whisper.SampleRate)
	out := make([]float32, n)
	for i := range out {
		out[i] = 0.5 * float32(math.Sin(2*math.Pi*440*float64(i)/whisper.SampleRate))
	}
	return out
}

func silence(seconds float64) []float32 {
	return make([]float32, int(seconds*whisper.SampleRate))
}

func mustCreate(t *testing.T, g *Gateway) Handle {
	t.Helper()
	h, err := g.Create(writeModelFile(t))
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return h
}

func TestCreateInvalidPath(t *testing.T) {
	g := NewGateway()
	h, err := g.Create(filepath.Join(t.TempDir(), "missing.bin"))
	if !errors.Is(err, ErrModelLoad) {
		t.Fatalf("Create(missing) err = %v, want ErrModelLoad", err)
	}
	if !h.IsNil() {
		t.Fatalf("Create(missing) handle = %v, want NilHandle", h)
	}
	if g.Active() != 0 {
		t.Fatalf("Active() = %d after failed create, want 0", g.Active())
	}
}

func TestCreateFailureLeaksNoSlots(t *testing.T) {
	g := NewGateway()
	bad := filepath.Join(t.TempDir(), "missing.bin")
	for i := 0; i < 100; i++ {
		if h, err := g.Create(bad); err == nil || !h.IsNil() {
			t.Fatalf("iteration %d: Create(missing) = (%v, %v), want failure", i, h, err)
		}
	}
	if g.Active() != 0 || len(g.slots) != 0 {
		t.Fatalf("failed creates grew the table: active=%d slots=%d", g.Active(), len(g.slots))
	}
}

func TestSegmentCountBeforeAnyRun(t *testing.T) {
	g := NewGateway()
	h := mustCreate(t, g)
	defer g.Release(h)

	n, err := g.SegmentCount(h)
	if err != nil {
		t.Fatalf("SegmentCount: %v", err)
	}
	if n != 0 {
		t.Fatalf("SegmentCount before run = %d, want 0", n)
	}
}

func TestReleaseInvalidatesHandle(t *testing.T) {
	g := NewGateway()
	h := mustCreate(t, g)
	if err := g.Release(h); err != nil {
		t.Fatalf("Release: %v", err)
	}

	if _, err := g.SegmentCount(h); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("SegmentCount after release err = %v, want ErrInvalidHandle", err)
	}
	if _, err := g.SegmentText(h, 0); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("SegmentText after release err = %v, want ErrInvalidHandle", err)
	}
	if err := g.Run(context.Background(), h, RunParams{Samples: tone(1)}); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("Run after release err = %v, want ErrInvalidHandle", err)
	}
	if err := g.Release(h); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("double Release err = %v, want ErrInvalidHandle", err)
	}
}

func TestReleaseNilHandleIsNoop(t *testing.T) {
	g := NewGateway()
	if err := g.Release(NilHandle); err != nil {
		t.Fatalf("Release(NilHandle) = %v, want nil", err)
	}
}

func TestStaleHandleAfterSlotReuse(t *testing.T) {
	g := NewGateway()
	first := mustCreate(t, g)
	if err := g.Release(first); err != nil {
		t.Fatalf("Release: %v", err)
	}

	second := mustCreate(t, g)
	defer g.Release(second)

	if first == second {
		t.Fatal("recycled slot produced an identical handle")
	}
	if first.slot() != second.slot() {
		t.Fatalf("expected slot reuse: %d vs %d", first.slot(), second.slot())
	}
	if _, err := g.SegmentCount(first); !errors.Is(err, ErrInvalidHandle) {
		t.Fatalf("stale handle err = %v, want ErrInvalidHandle", err)
	}
	if _, err := g.SegmentCount(second); err != nil {
		t.Fatalf("fresh handle on reused slot: %v", err)
	}
}

func TestRunSilenceScenario(t *testing.T) {
	g := NewGateway()
	h := mustCreate(t, g)
	defer g.Release(h)

	if err := g.Run(context.Background(), h, RunParams{Samples: silence(5)}); err != nil {
		t.Fatalf("Run(silence): %v", err)
	}
	n, err := g.SegmentCount(h)
	if err != nil {
		t.Fatalf("SegmentCount: %v", err)
	}
	if n > 1 {
		t.Fatalf("SegmentCount after 5s silence = %d, want 0 or 1", n)
	}
	for i := 0; i < n; i++ {
		start, err := g.SegmentStart(h, i)
		if err != nil {
			t.Fatalf("SegmentStart(%d): %v", i, err)
		}
		end, err := g.SegmentEnd(h, i)
		if err != nil {
			t.Fatalf("SegmentEnd(%d): %v", i, err)
		}
		if start < 0 || end < start || end > 500 {
			t.Errorf("segment %d timestamps [%d, %d] cs out of range", i, start, end)
		}
	}
}

func TestRunTimestampsMonotone(t *testing.T) {
	g := NewGateway(WithProfile(whisper.BatchProfile()))
	h := mustCreate(t, g)
	defer g.Release(h)

	samples := append(tone(1), silence(1)...)
	samples = append(samples, tone(1)...)
	if err := g.Run(context.Background(), h, RunParams{Samples: samples}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	n, err := g.SegmentCount(h)
	if err != nil {
		t.Fatalf("SegmentCount: %v", err)
	}
	if n < 2 {
		t.Fatalf("SegmentCount = %d, want >= 2", n)
	}
	var prevStart int64 = -1
	for i := 0; i < n; i++ {
		start, _ := g.SegmentStart(h, i)
		end, _ := g.SegmentEnd(h, i)
		if start > end {
			t.Errorf("segment %d: start %d > end %d", i, start, end)
		}
		if start < prevStart {
			t.Errorf("segment %d: start %d < previous start %d", i, start, prevStart)
		}
		prevStart = start
	}
}

func TestSecondRunReplacesResults(t *testing.T) {
	g := NewGateway(WithProfile(whisper.BatchProfile()))
	h := mustCreate(t, g)
	defer g.Release(h)

	samples := append(tone(1), silence(1)...)
	samples = append(samples, tone(1)...)
	if err := g.Run(context.Background(), h, RunParams{Samples: samples}); err != nil {
		t.Fatalf("first Run: %v", err)
	}
	first, err := g.SegmentCount(h)
	if err != nil || first != 2 {
		t.Fatalf("SegmentCount after first run = (%d, %v), want (2, nil)", first, err)
	}

	if err := g.Run(context.Background(), h, RunParams{Samples: tone(1)}); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	second, err := g.SegmentCount(h)
	if err != nil || second != 1 {
		t.Fatalf("SegmentCount after second run = (%d, %v), want (1, nil)", second, err)
	}
	end, err := g.SegmentEnd(h, 0)
	if err != nil {
		t.Fatalf("SegmentEnd: %v", err)
	}
	if end > 100 {
		t.Fatalf("segment end %d cs belongs to the first run's audio", end)
	}
	if _, err := g.SegmentText(h, 1); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("index 1 after second run err = %v, want ErrIndexOutOfRange", err)
	}
}

func TestFailedRunClearsPriorSegments(t *testing.T) {
	g := NewGateway()
	h := mustCreate(t, g)
	defer g.Release(h)

	if err := g.Run(context.Background(), h, RunParams{Samples: tone(1)}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if n, _ := g.SegmentCount(h); n != 1 {
		t.Fatalf("SegmentCount = %d, want 1", n)
	}

	bad := tone(1)
	bad[0] = float32(math.NaN())
	if err := g.Run(context.Background(), h, RunParams{Samples: bad}); !errors.Is(err, ErrInference) {
		t.Fatalf("Run(bad) err = %v, want ErrInference", err)
	}

	n, err := g.SegmentCount(h)
	if err != nil {
		t.Fatalf("SegmentCount after failed run: %v", err)
	}
	if n != 0 {
		t.Fatalf("failed run left %d stale segments surfable", n)
	}
}

func TestIndexOutOfRange(t *testing.T) {
	g := NewGateway()
	h := mustCreate(t, g)
	defer g.Release(h)

	if err := g.Run(context.Background(), h, RunParams{Samples: tone(1)}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	for _, idx := range []int{-1, 1, 100} {
		if _, err := g.SegmentText(h, idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("SegmentText(%d) err = %v, want ErrIndexOutOfRange", idx, err)
		}
		if _, err := g.SegmentStart(h, idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("SegmentStart(%d) err = %v, want ErrIndexOutOfRange", idx, err)
		}
		if _, err := g.SegmentEnd(h, idx); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("SegmentEnd(%d) err = %v, want ErrIndexOutOfRange", idx, err)
		}
	}
}

func TestUnrecognizedLanguageDegrades(t *testing.T) {
	g := NewGateway()
	h := mustCreate(t, g)
	defer g.Release(h)

	for _, lang := range []string{"auto", "xx", "en"} {
		if err := g.Run(context.Background(), h, RunParams{Samples: tone(1), Language: lang}); err != nil {
			t.Errorf("Run(language=%q): %v", lang, err)
		}
	}
}

func TestDistinctHandlesRunConcurrently(t *testing.T) {
	g := NewGateway()

	const workers = 8
	handles := make([]Handle, workers)
	for i := range handles {
		handles[i] = mustCreate(t, g)
	}
	defer func() {
		for _, h := range handles {
			g.Release(h)
		}
	}()

	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i, h := range handles {
		wg.Add(1)
		go func(i int, h Handle) {
			defer wg.Done()
			for run := 0; run < 5; run++ {
				if err := g.Run(context.Background(), h, RunParams{Samples: tone(0.5), Threads: 2}); err != nil {
					errs[i] = err
					return
				}
				if _, err := g.Segments(h); err != nil {
					errs[i] = err
					return
				}
			}
		}(i, h)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("worker %d: %v", i, err)
		}
	}
}

func TestReleaseDuringConcurrentAccessors(t *testing.T) {
	g := NewGateway()
	h := mustCreate(t, g)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				if _, err := g.SegmentCount(h); err != nil {
					if !errors.Is(err, ErrInvalidHandle) {
						t.Errorf("SegmentCount err = %v, want nil or ErrInvalidHandle", err)
					}
					return
				}
			}
		}()
	}
	if err := g.Release(h); err != nil {
		t.Fatalf("Release: %v", err)
	}
	wg.Wait()
}

func TestGatewayClose(t *testing.T) {
	g := NewGateway()
	h1 := mustCreate(t, g)
	h2 := mustCreate(t, g)

	if err := g.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if _, err := g.SegmentCount(h1); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("handle 1 usable after Close: %v", err)
	}
	if _, err := g.SegmentCount(h2); !errors.Is(err, ErrInvalidHandle) {
		t.Errorf("handle 2 usable after Close: %v", err)
	}
}

func TestSystemInfoWithoutSessions(t *testing.T) {
	if SystemInfo() == "" {
		t.Fatal("SystemInfo() returned empty string")
	}
}
