package ble

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	defaultStreamTimeout = time.Second
	defaultStreamBuffer  = 64
)

// A WriteStream writes outbound data through a bound characteristic,
// splitting each buffer into chunks no larger than one transport write.
// Chunks go out in order and are not retried: the first failing chunk
// aborts the write, and the returned count tells the caller how much of
// the buffer was consumed.
type WriteStream struct {
	ch    CharacteristicHandle
	chunk int
}

// NewWriteStream wraps a bound characteristic. A non-positive chunk size
// falls back to DefaultMaxLength, the single-write limit without MTU
// negotiation.
func NewWriteStream(ch CharacteristicHandle, chunk int) *WriteStream {
	if chunk <= 0 {
		chunk = DefaultMaxLength
	}
	return &WriteStream{ch: ch, chunk: chunk}
}

// Handle returns the characteristic the stream writes through.
func (w *WriteStream) Handle() CharacteristicHandle { return w.ch }

// Write sends p out in order, one chunk per characteristic write.
func (w *WriteStream) Write(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		end := n + w.chunk
		if end > len(p) {
			end = len(p)
		}
		if err := w.ch.SetValue(p[n:end]); err != nil {
			return n, errors.Wrapf(err, "write chunk at offset %d", n)
		}
		n = end
	}
	return n, nil
}

// A CharacteristicBuffer buffers inbound bytes arriving on a bound
// characteristic via notifications or writes. The transport feeds it from
// its callback (single producer); the application drains it (single
// consumer). Reads block up to the configured timeout and return whatever
// is available when it elapses; an empty result is not an error.
type CharacteristicBuffer struct {
	ch      CharacteristicHandle
	timeout time.Duration

	mu  sync.Mutex
	buf []byte
	r   int // read position
	n   int // buffered byte count

	arrived chan struct{}
}

// NewCharacteristicBuffer wraps a bound characteristic with a bounded
// inbound buffer. Non-positive size and timeout fall back to 64 bytes and
// one second.
func NewCharacteristicBuffer(ch CharacteristicHandle, size int, timeout time.Duration) *CharacteristicBuffer {
	if size <= 0 {
		size = defaultStreamBuffer
	}
	if timeout <= 0 {
		timeout = defaultStreamTimeout
	}
	return &CharacteristicBuffer{
		ch:      ch,
		timeout: timeout,
		buf:     make([]byte, size),
		arrived: make(chan struct{}, 1),
	}
}

// Handle returns the characteristic the buffer is fed from.
func (b *CharacteristicBuffer) Handle() CharacteristicHandle { return b.ch }

// Push appends inbound bytes from the transport callback. When the buffer
// is full the oldest bytes are dropped, serial-port style.
func (b *CharacteristicBuffer) Push(p []byte) {
	b.mu.Lock()
	if len(p) > len(b.buf) {
		log.Warnf("characteristic buffer: %d byte push exceeds %d byte buffer, keeping tail", len(p), len(b.buf))
		p = p[len(p)-len(b.buf):]
	}
	if over := b.n + len(p) - len(b.buf); over > 0 {
		log.Warnf("characteristic buffer overflow, dropping %d buffered bytes", over)
		b.r = (b.r + over) % len(b.buf)
		b.n -= over
	}
	w := (b.r + b.n) % len(b.buf)
	n := copy(b.buf[w:], p)
	copy(b.buf, p[n:])
	b.n += len(p)
	b.mu.Unlock()

	select {
	case b.arrived <- struct{}{}:
	default:
	}
}

// Buffered returns the number of bytes available to read without blocking.
func (b *CharacteristicBuffer) Buffered() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.n
}

// Reset discards all buffered bytes.
func (b *CharacteristicBuffer) Reset() {
	b.mu.Lock()
	b.r, b.n = 0, 0
	b.mu.Unlock()
}

// Read blocks until at least one byte is buffered or the timeout elapses,
// then drains up to len(p) bytes. A timeout yields (0, nil).
func (b *CharacteristicBuffer) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	deadline := time.Now().Add(b.timeout)
	for {
		b.mu.Lock()
		if b.n > 0 {
			n := b.drain(p)
			b.mu.Unlock()
			return n, nil
		}
		b.mu.Unlock()
		if !b.waitUntil(deadline) {
			return 0, nil
		}
	}
}

// ReadInto fills p, waiting up to the timeout for the full count. When
// the timeout elapses first it returns however many bytes had arrived.
func (b *CharacteristicBuffer) ReadInto(p []byte) (int, error) {
	deadline := time.Now().Add(b.timeout)
	n := 0
	for n < len(p) {
		b.mu.Lock()
		if b.n > 0 {
			n += b.drain(p[n:])
			b.mu.Unlock()
			continue
		}
		b.mu.Unlock()
		if !b.waitUntil(deadline) {
			break
		}
	}
	return n, nil
}

// ReadLine reads bytes up to and including a newline, returning what was
// collected when the timeout elapses first.
func (b *CharacteristicBuffer) ReadLine() ([]byte, error) {
	deadline := time.Now().Add(b.timeout)
	var line []byte
	for {
		b.mu.Lock()
		for b.n > 0 {
			c := b.buf[b.r]
			b.r = (b.r + 1) % len(b.buf)
			b.n--
			line = append(line, c)
			if c == '\n' {
				b.mu.Unlock()
				return line, nil
			}
		}
		b.mu.Unlock()
		if !b.waitUntil(deadline) {
			return line, nil
		}
	}
}

// drain copies up to len(p) buffered bytes into p. Caller holds mu.
func (b *CharacteristicBuffer) drain(p []byte) int {
	take := b.n
	if take > len(p) {
		take = len(p)
	}
	first := copy(p[:take], b.buf[b.r:])
	copy(p[first:take], b.buf)
	b.r = (b.r + take) % len(b.buf)
	b.n -= take
	return take
}

// waitUntil blocks for an arrival or the deadline; it reports whether
// waiting is still worthwhile.
func (b *CharacteristicBuffer) waitUntil(deadline time.Time) bool {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return false
	}
	t := time.NewTimer(remaining)
	defer t.Stop()
	select {
	case <-b.arrived:
		return true
	case <-t.C:
		return false
	}
}

// StreamOut declares an output stream from the service's server: served
// locally it binds to a WriteStream feeding notifications out; bound
// remotely it subscribes to notifications and buffers them for reading.
func StreamOut(u UUID, timeout time.Duration, bufferSize int) ComplexCharacteristic {
	return ComplexCharacteristic{
		Characteristic: Characteristic{
			UUID:       u,
			Properties: Notify,
			MaxLength:  DefaultMaxLength,
		},
		Wrap: func(h CharacteristicHandle, remote bool) (interface{}, error) {
			if remote {
				if err := h.SetCCCD(true); err != nil {
					return nil, errors.Wrap(err, "enable notifications")
				}
				return NewCharacteristicBuffer(h, bufferSize, timeout), nil
			}
			return NewWriteStream(h, 0), nil
		},
	}
}

// StreamIn declares an input stream into the service's server: served
// locally it buffers incoming writes; bound remotely it binds to a
// WriteStream writing toward the server.
func StreamIn(u UUID, timeout time.Duration, bufferSize int) ComplexCharacteristic {
	return ComplexCharacteristic{
		Characteristic: Characteristic{
			UUID:       u,
			Properties: Write | WriteNoResponse,
			ReadPerm:   NoAccess,
			MaxLength:  DefaultMaxLength,
		},
		Wrap: func(h CharacteristicHandle, remote bool) (interface{}, error) {
			if remote {
				return NewWriteStream(h, 0), nil
			}
			return NewCharacteristicBuffer(h, bufferSize, timeout), nil
		},
	}
}
