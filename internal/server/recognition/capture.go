package recognition

// tailBuffer keeps the last max bytes written to it. Stdout is read with
// the last-line convention, so the tail is the part worth keeping.
type tailBuffer struct {
	max     int
	buf     []byte
	dropped int64
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if len(b.buf) > 2*b.max {
		b.compact()
	}
	return len(p), nil
}

func (b *tailBuffer) compact() {
	if n := len(b.buf) - b.max; n > 0 {
		b.dropped += int64(n)
		b.buf = append(b.buf[:0], b.buf[n:]...)
	}
}

func (b *tailBuffer) String() string {
	b.compact()
	return string(b.buf)
}

func (b *tailBuffer) truncated() bool {
	b.compact()
	return b.dropped > 0
}

// headBuffer keeps the first max bytes and discards the rest. Writes never
// fail so the child is not blocked on a full pipe.
type headBuffer struct {
	max     int
	buf     []byte
	dropped int64
}

func newHeadBuffer(max int) *headBuffer {
	return &headBuffer{max: max}
}

func (b *headBuffer) Write(p []byte) (int, error) {
	room := b.max - len(b.buf)
	switch {
	case room <= 0:
		b.dropped += int64(len(p))
	case len(p) > room:
		b.buf = append(b.buf, p[:room]...)
		b.dropped += int64(len(p) - room)
	default:
		b.buf = append(b.buf, p...)
	}
	return len(p), nil
}

func (b *headBuffer) String() string { return string(b.buf) }

func (b *headBuffer) truncated() bool { return b.dropped > 0 }
