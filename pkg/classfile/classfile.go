package classfile

// Magic is the leading word of every class file.
const Magic = 0xCAFEBABE

// Constant pool tags.
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

// Attribute names the decoder looks inside.
const (
	attrCode                        = "Code"
	attrSignature                   = "Signature"
	attrLocalVariableTable          = "LocalVariableTable"
	attrLocalVariableTypeTable      = "LocalVariableTypeTable"
	attrRuntimeVisibleAnnotations   = "RuntimeVisibleAnnotations"
	attrRuntimeInvisibleAnnotations = "RuntimeInvisibleAnnotations"

	attrRuntimeVisibleParameterAnnotations   = "RuntimeVisibleParameterAnnotations"
	attrRuntimeInvisibleParameterAnnotations = "RuntimeInvisibleParameterAnnotations"
	attrRuntimeVisibleTypeAnnotations        = "RuntimeVisibleTypeAnnotations"
	attrRuntimeInvisibleTypeAnnotations      = "RuntimeInvisibleTypeAnnotations"
	attrAnnotationDefault                    = "AnnotationDefault"
)

type owner int

const (
	ownerClass owner = iota
	ownerField
	ownerMethod
	ownerCode
)

// stringValue is an annotation string element: the offset of its u2
// constant index in the input and the UTF8 slot it names.
type stringValue struct {
	off int
	idx uint16
}

// constant is one constant pool slot. raw holds the full encoding including
// the tag byte; it is nil for slot 0 and for the slot shadowed by a long or
// double.
type constant struct {
	tag  byte
	raw  []byte
	ref1 uint16
	ref2 uint16
}

// Class is the decoded view of a class file. It keeps a reference to the
// input bytes and never modifies them.
type Class struct {
	minor, major uint16

	data    []byte
	pool    []constant
	poolEnd int

	thisClass   uint16
	annotations []uint16

	full    bool
	symbols []uint16
	seen    map[uint16]bool
	strings []stringValue
}

// Decode parses b, collecting every symbol reference for a later Remap.
func Decode(b []byte) (*Class, error) {
	return decode(b, true)
}

// HasAnnotation reports whether the class in b declares the annotation with
// the given type descriptor (e.g. "Lcom/example/Marker;"), visible or not.
// Malformed input is an error wrapping domain.ErrBinaryFormat, never false.
func HasAnnotation(b []byte, descriptor string) (bool, error) {
	c, err := decode(b, false)
	if err != nil {
		return false, err
	}
	return c.HasAnnotation(descriptor), nil
}

func decode(b []byte, full bool) (*Class, error) {
	c := &Class{data: b, full: full}
	if full {
		c.seen = make(map[uint16]bool)
	}
	r := &reader{b: b}

	if r.u4() != Magic {
		r.off = 0
		r.fail("bad magic")
		return nil, r.err
	}
	c.minor = r.u2()
	c.major = r.u2()

	if err := c.readPool(r); err != nil {
		return nil, err
	}
	c.poolEnd = r.off

	if err := c.readBody(r); err != nil {
		return nil, err
	}
	if r.off != len(b) {
		r.fail("trailing data after class attributes")
		return nil, r.err
	}
	return c, nil
}

func (c *Class) readPool(r *reader) error {
	count := int(r.u2())
	if r.err != nil {
		return r.err
	}
	if count == 0 {
		r.fail("empty constant pool")
		return r.err
	}
	c.pool = make([]constant, count)
	for i := 1; i < count; i++ {
		start := r.off
		e := constant{tag: r.u1()}
		wide := false
		switch e.tag {
		case tagUtf8:
			r.bytes(int(r.u2()))
		case tagInteger, tagFloat:
			r.bytes(4)
		case tagLong, tagDouble:
			r.bytes(8)
			wide = true
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			e.ref1 = r.u2()
		case tagFieldref, tagMethodref, tagInterfaceMethodref, tagNameAndType, tagDynamic, tagInvokeDynamic:
			e.ref1 = r.u2()
			e.ref2 = r.u2()
		case tagMethodHandle:
			e.ref1 = uint16(r.u1())
			e.ref2 = r.u2()
		default:
			r.off = start
			r.fail("unknown constant pool tag")
		}
		if r.err != nil {
			return r.err
		}
		e.raw = r.b[start:r.off]
		c.pool[i] = e
		if wide {
			if i == count-1 {
				r.fail("8-byte constant in last pool slot")
				return r.err
			}
			i++
		}
	}

	for i := 1; i < count; i++ {
		e := c.pool[i]
		var ok bool
		switch e.tag {
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			ok = c.isUtf8(e.ref1)
		case tagNameAndType:
			ok = c.isUtf8(e.ref1) && c.isUtf8(e.ref2)
		default:
			ok = true
		}
		if !ok {
			r.fail("constant references a non-UTF8 slot")
			return r.err
		}
	}

	if c.full {
		for i := 1; i < count; i++ {
			e := c.pool[i]
			switch e.tag {
			case tagClass, tagMethodType:
				c.addSymbol(e.ref1)
			case tagNameAndType:
				c.addSymbol(e.ref2)
			}
		}
	}
	return nil
}

func (c *Class) readBody(r *reader) error {
	r.u2() // access flags
	c.thisClass = r.u2()
	r.u2() // super class
	if r.err == nil && (int(c.thisClass) >= len(c.pool) || c.pool[c.thisClass].tag != tagClass) {
		r.fail("this_class is not a class constant")
	}

	n := int(r.u2())
	r.bytes(2 * n) // interfaces; already covered by their Class constants

	for _, kind := range []owner{ownerField, ownerMethod} {
		count := int(r.u2())
		for i := 0; i < count && r.err == nil; i++ {
			r.u2() // access flags
			r.u2() // name
			desc := r.u2()
			if r.err == nil {
				if !c.isUtf8(desc) {
					r.fail("member descriptor is not UTF8")
					break
				}
				c.addSymbol(desc)
			}
			c.readAttributes(r, kind)
		}
	}
	c.readAttributes(r, ownerClass)
	return r.err
}

func (c *Class) readAttributes(r *reader, kind owner) {
	count := int(r.u2())
	for i := 0; i < count && r.err == nil; i++ {
		nameIdx := r.u2()
		length := int(r.u4())
		if r.err != nil {
			return
		}
		if !c.isUtf8(nameIdx) {
			r.fail("attribute name is not UTF8")
			return
		}
		body := r.sub(length)
		if r.err != nil {
			return
		}
		c.readAttribute(body, c.utf8(nameIdx), kind)
		if body.err != nil {
			r.err = body.err
			return
		}
	}
}

func (c *Class) readAttribute(r *reader, name string, kind owner) {
	switch name {
	case attrRuntimeVisibleAnnotations, attrRuntimeInvisibleAnnotations:
		if !c.full && kind != ownerClass {
			return
		}
		n := int(r.u2())
		for i := 0; i < n && r.err == nil; i++ {
			typ := c.readAnnotation(r)
			if kind == ownerClass && r.err == nil {
				c.annotations = append(c.annotations, typ)
			}
		}
	case attrRuntimeVisibleParameterAnnotations, attrRuntimeInvisibleParameterAnnotations:
		if !c.full {
			return
		}
		params := int(r.u1())
		for i := 0; i < params && r.err == nil; i++ {
			n := int(r.u2())
			for j := 0; j < n && r.err == nil; j++ {
				c.readAnnotation(r)
			}
		}
	case attrRuntimeVisibleTypeAnnotations, attrRuntimeInvisibleTypeAnnotations:
		if !c.full {
			return
		}
		n := int(r.u2())
		for i := 0; i < n && r.err == nil; i++ {
			skipTypeTarget(r)
			c.readAnnotation(r)
		}
	case attrAnnotationDefault:
		if !c.full || kind != ownerMethod {
			return
		}
		c.readElementValue(r)
	case attrSignature:
		if c.full {
			c.symbolRef(r)
		}
	case attrCode:
		if !c.full || kind != ownerMethod {
			return
		}
		r.u2() // max_stack
		r.u2() // max_locals
		r.bytes(int(r.u4()))
		r.bytes(8 * int(r.u2()))
		c.readAttributes(r, ownerCode)
	case attrLocalVariableTable, attrLocalVariableTypeTable:
		if !c.full || kind != ownerCode {
			return
		}
		n := int(r.u2())
		for i := 0; i < n && r.err == nil; i++ {
			r.u2() // start_pc
			r.u2() // length
			r.u2() // name
			c.symbolRef(r)
			r.u2() // index
		}
	default:
		return
	}
	if r.err == nil && !r.done() {
		r.fail("attribute length mismatch: " + name)
	}
}

// readAnnotation reads one annotation structure and returns its type index.
func (c *Class) readAnnotation(r *reader) uint16 {
	typ := c.symbolRef(r)
	pairs := int(r.u2())
	for i := 0; i < pairs && r.err == nil; i++ {
		r.u2() // element name
		c.readElementValue(r)
	}
	return typ
}

func (c *Class) readElementValue(r *reader) {
	switch r.u1() {
	case 'B', 'C', 'D', 'F', 'I', 'J', 'S', 'Z':
		r.u2()
	case 's':
		off := r.base + r.off
		if idx := r.u2(); c.full && c.isUtf8(idx) {
			c.strings = append(c.strings, stringValue{off: off, idx: idx})
		}
	case 'e':
		c.symbolRef(r)
		r.u2() // const name
	case 'c':
		c.symbolRef(r)
	case '@':
		c.readAnnotation(r)
	case '[':
		n := int(r.u2())
		for i := 0; i < n && r.err == nil; i++ {
			c.readElementValue(r)
		}
	default:
		if r.err == nil {
			r.off--
			r.fail("unknown annotation element tag")
		}
	}
}

// skipTypeTarget skips the target_info and type_path that precede the
// annotation body of a type annotation.
func skipTypeTarget(r *reader) {
	switch t := r.u1(); {
	case t == 0x00, t == 0x01, t == 0x16:
		r.bytes(1) // type parameter, formal parameter
	case t == 0x10, t == 0x11, t == 0x12, t == 0x17, t >= 0x42 && t <= 0x46:
		r.bytes(2) // supertype, bound, throws, catch, offset
	case t >= 0x13 && t <= 0x15:
		// field, return, receiver
	case t == 0x40, t == 0x41:
		r.bytes(6 * int(r.u2())) // local variable ranges
	case t >= 0x47 && t <= 0x4B:
		r.bytes(3) // type argument
	default:
		if r.err == nil {
			r.off--
			r.fail("unknown type annotation target")
		}
	}
	r.bytes(2 * int(r.u1())) // type_path
}

// symbolRef reads a u2 that must point at a UTF8 constant and records it.
func (c *Class) symbolRef(r *reader) uint16 {
	idx := r.u2()
	if r.err != nil {
		return 0
	}
	if !c.isUtf8(idx) {
		r.off -= 2
		r.fail("symbol reference is not UTF8")
		return 0
	}
	c.addSymbol(idx)
	return idx
}

func (c *Class) addSymbol(idx uint16) {
	if !c.full || c.seen[idx] {
		return
	}
	c.seen[idx] = true
	c.symbols = append(c.symbols, idx)
}

func (c *Class) isUtf8(idx uint16) bool {
	return idx != 0 && int(idx) < len(c.pool) && c.pool[idx].tag == tagUtf8
}

func (c *Class) utf8(idx uint16) string {
	return string(c.pool[idx].raw[3:])
}

// Version returns the class file major and minor version.
func (c *Class) Version() (major, minor uint16) {
	return c.major, c.minor
}

// Name returns the internal name of the class, e.g. "com/example/Foo".
func (c *Class) Name() string {
	return c.utf8(c.pool[c.thisClass].ref1)
}

// HasAnnotation reports whether the class declares descriptor.
func (c *Class) HasAnnotation(descriptor string) bool {
	for _, idx := range c.annotations {
		if c.utf8(idx) == descriptor {
			return true
		}
	}
	return false
}

// Symbols returns the symbol table: every distinct symbol reference, in the
// order first encountered. It is empty for classes decoded by HasAnnotation.
func (c *Class) Symbols() []string {
	out := make([]string, 0, len(c.symbols))
	for _, idx := range c.symbols {
		out = append(out, c.utf8(idx))
	}
	return out
}
