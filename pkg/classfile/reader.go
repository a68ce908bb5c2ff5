package classfile

import (
	"encoding/binary"

	"github.com/bft-labs/compatre/internal/domain"
)

// reader is a bounds-checked big-endian cursor. The first failure sticks;
// later reads return zero values.
type reader struct {
	b    []byte
	off  int
	base int
	err  error
}

func (r *reader) fail(reason string) {
	if r.err == nil {
		r.err = &domain.FormatError{Offset: r.base + r.off, Reason: reason}
	}
}

func (r *reader) need(n int) bool {
	if r.err != nil {
		return false
	}
	if n < 0 || len(r.b)-r.off < n {
		r.fail("unexpected end of data")
		return false
	}
	return true
}

func (r *reader) u1() uint8 {
	if !r.need(1) {
		return 0
	}
	v := r.b[r.off]
	r.off++
	return v
}

func (r *reader) u2() uint16 {
	if !r.need(2) {
		return 0
	}
	v := binary.BigEndian.Uint16(r.b[r.off:])
	r.off += 2
	return v
}

func (r *reader) u4() uint32 {
	if !r.need(4) {
		return 0
	}
	v := binary.BigEndian.Uint32(r.b[r.off:])
	r.off += 4
	return v
}

func (r *reader) bytes(n int) []byte {
	if !r.need(n) {
		return nil
	}
	v := r.b[r.off : r.off+n]
	r.off += n
	return v
}

// sub returns a reader over the next n bytes, advancing r past them.
func (r *reader) sub(n int) *reader {
	start := r.off
	body := r.bytes(n)
	return &reader{b: body, base: r.base + start, err: r.err}
}

func (r *reader) done() bool {
	return r.err == nil && r.off == len(r.b)
}
