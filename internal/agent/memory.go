package agent

// Memory is a bounded ring holding the most recent experiences. Once full,
// each new sample evicts the oldest one. capacity must be at least 1.
type Memory struct {
	buf  []*Experience
	next int
	size int
}

// NewMemory allocates a ring for capacity experiences.
func NewMemory(capacity int) *Memory {
	return &Memory{buf: make([]*Experience, capacity)}
}

// Add appends one experience, evicting the oldest when full.
func (m *Memory) Add(e *Experience) {
	m.buf[m.next] = e
	m.next = (m.next + 1) % len(m.buf)
	if m.size < len(m.buf) {
		m.size++
	}
}

// Len returns the number of buffered experiences.
func (m *Memory) Len() int { return m.size }

// Cap returns the ring capacity.
func (m *Memory) Cap() int { return len(m.buf) }

// Last returns the n most recent experiences in insertion order. n is
// clamped to the buffered count.
func (m *Memory) Last(n int) []*Experience {
	if n > m.size {
		n = m.size
	}
	out := make([]*Experience, 0, n)
	for i := 0; i < n; i++ {
		idx := (m.next - n + i + len(m.buf)) % len(m.buf)
		out = append(out, m.buf[idx])
	}
	return out
}
