package seqid

import (
	"sync"
	"testing"

	"github.com/oran-ofh/gnbdu-ofh-tx/ofh"
)

func TestGenerateWraps(t *testing.T) {
	g := NewGenerator()
	for i := 0; i < 256; i++ {
		if got := g.Generate(5); got != uint8(i) {
			t.Fatalf("iteration %d: got %d, want %d", i, got, uint8(i))
		}
	}
	if got := g.Generate(5); got != 0 {
		t.Errorf("after wrap, got %d, want 0", got)
	}
}

func TestGenerateIndependentPerEAxC(t *testing.T) {
	g := NewGenerator()
	g.Generate(1)
	g.Generate(1)
	if got := g.Generate(2); got != 0 {
		t.Errorf("eaxc 2 first call = %d, want 0", got)
	}
	if got := g.Peek(1); got != 2 {
		t.Errorf("eaxc 1 counter = %d, want 2", got)
	}
}

func TestGenerateConcurrentNoGaps(t *testing.T) {
	g := NewGenerator()
	const goroutines, perG = 8, 32
	seen := make([]int, 256)
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				v := g.Generate(7)
				mu.Lock()
				seen[v]++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	for v, count := range seen {
		if count != 1 {
			t.Errorf("value %d seen %d times, want 1", v, count)
		}
	}
}

func TestGenerateInvalidEAxCPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for out-of-range eaxc")
		}
	}()
	g := NewGenerator()
	g.Generate(ofh.EAxC(ofh.MaxSupportedEAxCID))
}
