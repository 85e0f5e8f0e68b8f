package swarm

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
)

// Identity is the immutable identity assigned to one drone at add time:
// a swarm-unique index, the drone's working directory, and the TCP port a
// ground station can reach it on. Indices start at 1 and are never reused,
// even when a drone fails.
type Identity struct {
	Index   int    `json:"index"`
	Dir     string `json:"dir"`
	TCPPort int    `json:"tcp_port,omitempty"` // 0 when no base port is configured
}

// allocator hands out strictly increasing drone indices. Allocation is
// atomic so concurrent add calls never observe the same index.
type allocator struct {
	next     atomic.Int64
	root     string
	basePort int
}

func newAllocator(root string, basePort int) *allocator {
	return &allocator{root: root, basePort: basePort}
}

func (a *allocator) allocate() Identity {
	index := int(a.next.Add(1))
	id := Identity{
		Index: index,
		Dir:   filepath.Join(a.root, "drones", fmt.Sprintf("%03d", index)),
	}
	if a.basePort > 0 {
		id.TCPPort = a.basePort + index - 1
	}
	return id
}
