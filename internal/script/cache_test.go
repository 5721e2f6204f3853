package script

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingEngine records compile calls and can be made to fail.
type countingEngine struct {
	compiles   atomic.Int64
	compileErr error
	delay      time.Duration
}

func (e *countingEngine) Compile(src string) (Unit, error) {
	e.compiles.Add(1)
	if e.delay > 0 {
		time.Sleep(e.delay)
	}
	if e.compileErr != nil {
		return nil, e.compileErr
	}
	return "unit:" + src, nil
}

func (e *countingEngine) Evaluate(unit Unit, bindings map[string]any) (any, error) {
	return unit, nil
}

func TestGetOrCompileCompilesOnce(t *testing.T) {
	engine := &countingEngine{}
	cache := NewCache(engine)

	first, err := cache.GetOrCompile("g.submit('a')")
	if err != nil {
		t.Fatalf("GetOrCompile() error = %v", err)
	}
	second, err := cache.GetOrCompile("g.submit('a')")
	if err != nil {
		t.Fatalf("GetOrCompile() error = %v", err)
	}

	if engine.compiles.Load() != 1 {
		t.Errorf("compile count = %d, want 1", engine.compiles.Load())
	}
	if first != second {
		t.Error("identical source must retrieve the same unit")
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestGetOrCompileDistinctSources(t *testing.T) {
	engine := &countingEngine{}
	cache := NewCache(engine)

	if _, err := cache.GetOrCompile("a"); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.GetOrCompile("b"); err != nil {
		t.Fatal(err)
	}

	if engine.compiles.Load() != 2 {
		t.Errorf("compile count = %d, want 2", engine.compiles.Load())
	}
	if cache.Len() != 2 {
		t.Errorf("Len() = %d, want 2", cache.Len())
	}
}

func TestGetOrCompileSingleFlight(t *testing.T) {
	engine := &countingEngine{delay: 10 * time.Millisecond}
	cache := NewCache(engine)

	const callers = 16
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := cache.GetOrCompile("shared"); err != nil {
				t.Errorf("GetOrCompile() error = %v", err)
			}
		}()
	}
	close(start)
	wg.Wait()

	if engine.compiles.Load() != 1 {
		t.Errorf("compile count = %d, want 1 for racing callers", engine.compiles.Load())
	}
}

func TestGetOrCompileFailureNotCached(t *testing.T) {
	engine := &countingEngine{compileErr: errors.New("syntax error")}
	cache := NewCache(engine)

	if _, err := cache.GetOrCompile("broken"); err == nil {
		t.Fatal("expected compile error")
	}
	if cache.Len() != 0 {
		t.Errorf("failed compilation must not be cached, Len() = %d", cache.Len())
	}

	// The source compiles after the defect is gone; the cache retries.
	engine.compileErr = nil
	if _, err := cache.GetOrCompile("broken"); err != nil {
		t.Fatalf("GetOrCompile() after fix error = %v", err)
	}
	if engine.compiles.Load() != 2 {
		t.Errorf("compile count = %d, want 2", engine.compiles.Load())
	}
	if cache.Len() != 1 {
		t.Errorf("Len() = %d, want 1", cache.Len())
	}
}

func TestFingerprint(t *testing.T) {
	if Fingerprint("a") != Fingerprint("a") {
		t.Error("fingerprint must be deterministic")
	}
	if Fingerprint("a") == Fingerprint("b") {
		t.Error("distinct sources must not share a fingerprint")
	}
	if len(Fingerprint("")) != 64 {
		t.Errorf("fingerprint length = %d, want 64 hex chars", len(Fingerprint("")))
	}
}
