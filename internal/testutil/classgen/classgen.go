// Package classgen assembles small but structurally valid class files for
// tests. UTF8 constants are shared between users the way javac emits them, so
// a string literal and a class reference with the same text share one slot.
package classgen

import (
	"encoding/binary"
)

// Member is a field or method.
type Member struct {
	Name string
	Desc string

	// LocalDesc adds a LocalVariableTable entry with this descriptor
	// (methods only).
	LocalDesc string

	// ParamAnnotations adds one invisible parameter annotation of each type,
	// one per parameter.
	ParamAnnotations []string

	// TypeAnnotations adds visible type annotations of each type. Even
	// positions target a formal parameter through a one-step type path, odd
	// ones the return type.
	TypeAnnotations []string

	// DefaultClass adds an AnnotationDefault holding this class value
	// (methods only).
	DefaultClass string
}

// Element adds a class-level annotation of type Type carrying one element
// per non-empty field.
type Element struct {
	Type string

	// String is an 's' value.
	String string

	// Class is a 'c' value, a return descriptor.
	Class string

	// Enum is an 'e' value: enum type descriptor and constant name.
	Enum [2]string
}

// Class describes the class to build.
type Class struct {
	// Name is the internal name, e.g. "com/example/Foo".
	Name string

	// Super defaults to java/lang/Object.
	Super string

	// Marker is a class-level annotation descriptor; empty means none.
	Marker string

	// Visible emits RuntimeVisibleAnnotations instead of the invisible form.
	Visible bool

	// Annotations are extra class-level annotation descriptors.
	Annotations []string

	// Elements are class-level annotations with element values.
	Elements []Element

	Fields  []Member
	Methods []Member

	// Refs are additional CONSTANT_Class references (internal names).
	Refs []string

	// Calls adds Methodref constants as owner, name, descriptor triples.
	Calls [][3]string

	// Strings are CONSTANT_String literals.
	Strings []string

	// Signature adds a class-level Signature attribute.
	Signature string

	// Long adds a CONSTANT_Long so the pool contains a shadow slot.
	Long bool
}

type builder struct {
	pool  []byte
	count uint16
	utf8  map[string]uint16
}

func (b *builder) next(width uint16) uint16 {
	idx := b.count
	b.count += width
	return idx
}

func (b *builder) u8(text string) uint16 {
	if idx, ok := b.utf8[text]; ok {
		return idx
	}
	idx := b.next(1)
	b.pool = append(b.pool, 1)
	b.pool = binary.BigEndian.AppendUint16(b.pool, uint16(len(text)))
	b.pool = append(b.pool, text...)
	b.utf8[text] = idx
	return idx
}

func (b *builder) ref(tag byte, utf8 uint16) uint16 {
	idx := b.next(1)
	b.pool = append(b.pool, tag)
	b.pool = binary.BigEndian.AppendUint16(b.pool, utf8)
	return idx
}

func (b *builder) pair(tag byte, x, y uint16) uint16 {
	idx := b.next(1)
	b.pool = append(b.pool, tag)
	b.pool = binary.BigEndian.AppendUint16(b.pool, x)
	b.pool = binary.BigEndian.AppendUint16(b.pool, y)
	return idx
}

// Build encodes s as a class file (major version 52).
func Build(s Class) []byte {
	if s.Super == "" {
		s.Super = "java/lang/Object"
	}
	b := &builder{count: 1, utf8: make(map[string]uint16)}

	this := b.ref(7, b.u8(s.Name))
	super := b.ref(7, b.u8(s.Super))
	for _, r := range s.Refs {
		b.ref(7, b.u8(r))
	}
	for _, call := range s.Calls {
		owner := b.ref(7, b.u8(call[0]))
		nat := b.pair(12, b.u8(call[1]), b.u8(call[2]))
		b.pair(10, owner, nat)
	}
	for _, str := range s.Strings {
		b.ref(8, b.u8(str))
	}
	if s.Long {
		b.next(2)
		b.pool = append(b.pool, 5, 0, 0, 0, 0, 0, 0, 0, 42)
	}

	var body []byte
	body = binary.BigEndian.AppendUint16(body, 0x0021) // public super
	body = binary.BigEndian.AppendUint16(body, this)
	body = binary.BigEndian.AppendUint16(body, super)
	body = binary.BigEndian.AppendUint16(body, 0) // interfaces

	body = binary.BigEndian.AppendUint16(body, uint16(len(s.Fields)))
	for _, f := range s.Fields {
		body = binary.BigEndian.AppendUint16(body, 0x0002)
		body = binary.BigEndian.AppendUint16(body, b.u8(f.Name))
		body = binary.BigEndian.AppendUint16(body, b.u8(f.Desc))
		attrs := b.memberAnnotations(f)
		body = binary.BigEndian.AppendUint16(body, uint16(len(attrs)))
		for _, a := range attrs {
			body = append(body, a...)
		}
	}

	body = binary.BigEndian.AppendUint16(body, uint16(len(s.Methods)))
	for _, m := range s.Methods {
		body = binary.BigEndian.AppendUint16(body, 0x0001)
		body = binary.BigEndian.AppendUint16(body, b.u8(m.Name))
		body = binary.BigEndian.AppendUint16(body, b.u8(m.Desc))
		attrs := append([][]byte{b.code(m)}, b.memberAnnotations(m)...)
		if m.DefaultClass != "" {
			var def []byte
			def = append(def, 'c')
			def = binary.BigEndian.AppendUint16(def, b.u8(m.DefaultClass))
			attrs = append(attrs, b.attr("AnnotationDefault", def))
		}
		body = binary.BigEndian.AppendUint16(body, uint16(len(attrs)))
		for _, a := range attrs {
			body = append(body, a...)
		}
	}

	var attrs [][]byte
	var markers []string
	if s.Marker != "" {
		markers = append(markers, s.Marker)
	}
	markers = append(markers, s.Annotations...)
	if len(markers) > 0 || len(s.Elements) > 0 {
		name := "RuntimeInvisibleAnnotations"
		if s.Visible {
			name = "RuntimeVisibleAnnotations"
		}
		var ann []byte
		ann = binary.BigEndian.AppendUint16(ann, uint16(len(markers)+len(s.Elements)))
		for _, m := range markers {
			ann = binary.BigEndian.AppendUint16(ann, b.u8(m))
			ann = binary.BigEndian.AppendUint16(ann, 0)
		}
		for _, e := range s.Elements {
			ann = append(ann, b.element(e)...)
		}
		attrs = append(attrs, b.attr(name, ann))
	}
	if s.Signature != "" {
		attrs = append(attrs, b.attr("Signature", binary.BigEndian.AppendUint16(nil, b.u8(s.Signature))))
	}
	body = binary.BigEndian.AppendUint16(body, uint16(len(attrs)))
	for _, a := range attrs {
		body = append(body, a...)
	}

	var out []byte
	out = binary.BigEndian.AppendUint32(out, 0xCAFEBABE)
	out = binary.BigEndian.AppendUint16(out, 0)
	out = binary.BigEndian.AppendUint16(out, 52)
	out = binary.BigEndian.AppendUint16(out, b.count)
	out = append(out, b.pool...)
	return append(out, body...)
}

func (b *builder) code(m Member) []byte {
	var c []byte
	c = binary.BigEndian.AppendUint16(c, 1) // max_stack
	c = binary.BigEndian.AppendUint16(c, 2) // max_locals
	c = binary.BigEndian.AppendUint32(c, 1)
	c = append(c, 0xb1) // return
	c = binary.BigEndian.AppendUint16(c, 0)
	if m.LocalDesc == "" {
		c = binary.BigEndian.AppendUint16(c, 0)
		return b.attr("Code", c)
	}
	var lvt []byte
	lvt = binary.BigEndian.AppendUint16(lvt, 1)
	lvt = binary.BigEndian.AppendUint16(lvt, 0)
	lvt = binary.BigEndian.AppendUint16(lvt, 1)
	lvt = binary.BigEndian.AppendUint16(lvt, b.u8("local"))
	lvt = binary.BigEndian.AppendUint16(lvt, b.u8(m.LocalDesc))
	lvt = binary.BigEndian.AppendUint16(lvt, 1)
	c = binary.BigEndian.AppendUint16(c, 1)
	c = append(c, b.attr("LocalVariableTable", lvt)...)
	return b.attr("Code", c)
}

func (b *builder) element(e Element) []byte {
	var pairs []byte
	n := 0
	if e.String != "" {
		pairs = binary.BigEndian.AppendUint16(pairs, b.u8("value"))
		pairs = append(pairs, 's')
		pairs = binary.BigEndian.AppendUint16(pairs, b.u8(e.String))
		n++
	}
	if e.Class != "" {
		pairs = binary.BigEndian.AppendUint16(pairs, b.u8("type"))
		pairs = append(pairs, 'c')
		pairs = binary.BigEndian.AppendUint16(pairs, b.u8(e.Class))
		n++
	}
	if e.Enum[0] != "" {
		pairs = binary.BigEndian.AppendUint16(pairs, b.u8("kind"))
		pairs = append(pairs, 'e')
		pairs = binary.BigEndian.AppendUint16(pairs, b.u8(e.Enum[0]))
		pairs = binary.BigEndian.AppendUint16(pairs, b.u8(e.Enum[1]))
		n++
	}
	var a []byte
	a = binary.BigEndian.AppendUint16(a, b.u8(e.Type))
	a = binary.BigEndian.AppendUint16(a, uint16(n))
	return append(a, pairs...)
}

func (b *builder) memberAnnotations(m Member) [][]byte {
	var attrs [][]byte
	if len(m.ParamAnnotations) > 0 {
		p := []byte{byte(len(m.ParamAnnotations))}
		for _, typ := range m.ParamAnnotations {
			p = binary.BigEndian.AppendUint16(p, 1)
			p = binary.BigEndian.AppendUint16(p, b.u8(typ))
			p = binary.BigEndian.AppendUint16(p, 0)
		}
		attrs = append(attrs, b.attr("RuntimeInvisibleParameterAnnotations", p))
	}
	if len(m.TypeAnnotations) > 0 {
		t := binary.BigEndian.AppendUint16(nil, uint16(len(m.TypeAnnotations)))
		for i, typ := range m.TypeAnnotations {
			if i%2 == 0 {
				t = append(t, 0x16, 0) // formal parameter 0
				t = append(t, 1, 3, 0) // type path: one type argument step
			} else {
				t = append(t, 0x14) // return type
				t = append(t, 0)    // empty type path
			}
			t = binary.BigEndian.AppendUint16(t, b.u8(typ))
			t = binary.BigEndian.AppendUint16(t, 0)
		}
		attrs = append(attrs, b.attr("RuntimeVisibleTypeAnnotations", t))
	}
	return attrs
}

func (b *builder) attr(name string, body []byte) []byte {
	var a []byte
	a = binary.BigEndian.AppendUint16(a, b.u8(name))
	a = binary.BigEndian.AppendUint32(a, uint32(len(body)))
	return append(a, body...)
}
