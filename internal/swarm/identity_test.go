package swarm

import (
	"path/filepath"
	"sort"
	"sync"
	"testing"
)

func TestAllocator_StrictlyIncreasing(t *testing.T) {
	a := newAllocator("/tmp/swarm", 0)
	for want := 1; want <= 5; want++ {
		id := a.allocate()
		if id.Index != want {
			t.Errorf("allocate() index = %d, want %d", id.Index, want)
		}
		if id.TCPPort != 0 {
			t.Errorf("expected no TCP port without a base port, got %d", id.TCPPort)
		}
	}
}

func TestAllocator_DirFormatting(t *testing.T) {
	a := newAllocator("/tmp/swarm", 0)
	a.allocate()
	a.allocate()
	id := a.allocate()
	want := filepath.Join("/tmp/swarm", "drones", "003")
	if id.Dir != want {
		t.Errorf("Dir = %q, want %q", id.Dir, want)
	}
}

func TestAllocator_TCPPorts(t *testing.T) {
	a := newAllocator("/tmp/swarm", 5760)
	want := []int{5760, 5761, 5762}
	for i, w := range want {
		if got := a.allocate().TCPPort; got != w {
			t.Errorf("drone %d: TCPPort = %d, want %d", i+1, got, w)
		}
	}
}

func TestAllocator_ConcurrentAllocationIsUnique(t *testing.T) {
	a := newAllocator("/tmp/swarm", 5760)

	const n = 100
	indices := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			indices[slot] = a.allocate().Index
		}(i)
	}
	wg.Wait()

	sort.Ints(indices)
	for i, idx := range indices {
		if idx != i+1 {
			t.Fatalf("indices not a permutation of 1..%d: %v", n, indices)
		}
	}
}
