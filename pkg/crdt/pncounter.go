package crdt

// PNCounter is a pair of G-Counters tracking increments (P) and decrements
// (N) separately so the combined value can move in either direction while
// each half remains a pure grow-only counter.
type PNCounter struct {
	P *GCounter
	N *GCounter
}

// NewPNCounter creates a PN-Counter for the given replica identity.
func NewPNCounter(replica string) *PNCounter {
	return &PNCounter{
		P: NewGCounter(replica),
		N: NewGCounter(replica),
	}
}

// Increment adds n (n >= 0) to the counter.
func (c *PNCounter) Increment(n int64) {
	c.P.Increment(n)
}

// Decrement subtracts n (n >= 0) from the counter.
func (c *PNCounter) Decrement(n int64) {
	c.N.Increment(n)
}

// Value returns P.Value() - N.Value().
func (c *PNCounter) Value() int64 {
	return c.P.Value() - c.N.Value()
}

// Merge returns a new PN-Counter merging both halves independently.
func (c *PNCounter) Merge(other *PNCounter) *PNCounter {
	return &PNCounter{
		P: c.P.Merge(other.P),
		N: c.N.Merge(other.N),
	}
}
