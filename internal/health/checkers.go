package health

import (
	"context"
	"fmt"
	"net"
	"runtime"
)

// PortChecker dials a TCP address while its owner reports it active. An
// inactive target is healthy; the demo server is stopped most of the time.
type PortChecker struct {
	name   string
	target func() (addr string, active bool)
}

// NewPortChecker creates a checker for the address returned by target.
func NewPortChecker(name string, target func() (addr string, active bool)) *PortChecker {
	return &PortChecker{name: name, target: target}
}

func (p *PortChecker) Name() string {
	return p.name
}

func (p *PortChecker) Check(ctx context.Context) error {
	addr, active := p.target()
	if !active {
		return nil
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("%s not accepting connections on %s: %w", p.name, addr, err)
	}
	return conn.Close()
}

// MemoryChecker reports degraded when the heap in use exceeds a limit.
type MemoryChecker struct {
	limit uint64
	read  func() uint64
}

// NewMemoryChecker creates a memory checker with a heap limit in bytes.
func NewMemoryChecker(limit uint64) *MemoryChecker {
	return &MemoryChecker{limit: limit, read: heapInUse}
}

func (m *MemoryChecker) Name() string {
	return "memory"
}

func (m *MemoryChecker) Check(ctx context.Context) error {
	used := m.read()
	if m.limit > 0 && used > m.limit {
		return Degraded(fmt.Sprintf("heap in use %d bytes exceeds %d", used, m.limit))
	}
	return nil
}

func heapInUse() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.HeapInuse
}
