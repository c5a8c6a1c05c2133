package sandbox

import "sync"

// CappedBuffer captures stream output up to a fixed ceiling. Writes past
// the ceiling are counted but discarded, so a guest spewing output cannot
// grow host memory. It never reports an error: the guest keeps running,
// the capture just stops.
type CappedBuffer struct {
	mu      sync.Mutex
	buf     []byte
	limit   int
	dropped int64
}

// NewCappedBuffer creates a buffer that keeps at most limit bytes.
func NewCappedBuffer(limit int) *CappedBuffer {
	return &CappedBuffer{limit: limit}
}

// Write implements io.Writer. It always reports the full length consumed.
func (b *CappedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	room := b.limit - len(b.buf)
	if room > 0 {
		if room > len(p) {
			room = len(p)
		}
		b.buf = append(b.buf, p[:room]...)
		b.dropped += int64(len(p) - room)
	} else {
		b.dropped += int64(len(p))
	}
	return len(p), nil
}

// String returns the captured prefix.
func (b *CappedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}

// Truncated reports whether any bytes were discarded.
func (b *CappedBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dropped > 0
}
