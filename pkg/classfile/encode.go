package classfile

import (
	"encoding/binary"

	"github.com/bft-labs/compatre/internal/domain"
)

const maxPoolCount = 0xFFFF

// Remap applies fn to every symbol reference and returns the re-encoded class
// along with the number of constants whose text changed. When nothing
// changes, the original input slice is returned as is.
//
// String literals and annotation string values that share a UTF8 constant
// with a rewritten symbol are pointed at a copy of the original text appended
// to the pool, so their values never change.
func (c *Class) Remap(fn func(string) string) ([]byte, int, error) {
	if !c.full {
		return nil, 0, &domain.FormatError{Reason: "class was decoded without symbols"}
	}

	changed := make(map[uint16][]byte)
	for _, idx := range c.symbols {
		old := c.utf8(idx)
		if next := fn(old); next != old {
			if len(next) > 0xFFFF {
				return nil, 0, &domain.FormatError{Offset: c.constantOffset(idx), Reason: "rewritten symbol exceeds UTF8 length limit"}
			}
			changed[idx] = []byte(next)
		}
	}
	if len(changed) == 0 {
		return c.data, 0, nil
	}

	// Literal copies get fresh slots after the existing pool, one per
	// distinct UTF8 constant, in pool order.
	var appended []uint16
	copyOf := make(map[uint16]uint16)
	for i := 1; i < len(c.pool); i++ {
		e := c.pool[i]
		if e.tag != tagString {
			continue
		}
		if _, ok := changed[e.ref1]; !ok {
			continue
		}
		if _, ok := copyOf[e.ref1]; ok {
			continue
		}
		copyOf[e.ref1] = uint16(len(c.pool) + len(appended))
		appended = append(appended, e.ref1)
	}
	for _, sv := range c.strings {
		if _, ok := changed[sv.idx]; !ok {
			continue
		}
		if _, ok := copyOf[sv.idx]; ok {
			continue
		}
		copyOf[sv.idx] = uint16(len(c.pool) + len(appended))
		appended = append(appended, sv.idx)
	}
	count := len(c.pool) + len(appended)
	if count > maxPoolCount {
		return nil, 0, &domain.FormatError{Offset: 8, Reason: "constant pool overflow"}
	}

	out := make([]byte, 0, len(c.data)+64*len(changed))
	out = append(out, c.data[:8]...)
	out = binary.BigEndian.AppendUint16(out, uint16(count))
	for i := 1; i < len(c.pool); i++ {
		e := c.pool[i]
		text, rewritten := changed[uint16(i)]
		switch {
		case e.raw == nil:
			// shadow slot of a long or double
		case rewritten:
			out = appendUtf8(out, text)
		case e.tag == tagString && copyOf[e.ref1] != 0:
			out = append(out, tagString)
			out = binary.BigEndian.AppendUint16(out, copyOf[e.ref1])
		default:
			out = append(out, e.raw...)
		}
	}
	for _, idx := range appended {
		out = append(out, c.pool[idx].raw...)
	}
	tail := len(out)
	out = append(out, c.data[c.poolEnd:]...)
	for _, sv := range c.strings {
		if slot, ok := copyOf[sv.idx]; ok {
			binary.BigEndian.PutUint16(out[tail+sv.off-c.poolEnd:], slot)
		}
	}
	return out, len(changed), nil
}

func appendUtf8(out, text []byte) []byte {
	out = append(out, tagUtf8)
	out = binary.BigEndian.AppendUint16(out, uint16(len(text)))
	return append(out, text...)
}

func (c *Class) constantOffset(idx uint16) int {
	off := 10
	for i := 1; i < int(idx); i++ {
		off += len(c.pool[i].raw)
	}
	return off
}
