// Package classfile decodes and re-encodes compiled JVM class files far
// enough to answer two questions and perform one edit:
//
//   - which annotations does the class itself declare ([HasAnnotation])
//   - which constant pool entries are symbol references ([Class.Symbols])
//   - rewrite those symbol references ([Class.Remap])
//
// Only the constant pool is ever re-encoded. Everything after the pool
// (fields, methods, bytecode, attributes) refers to the pool by index, so it
// is copied verbatim and no offsets need recomputing. The class file format
// carries no checksum.
//
// Symbol references are the UTF-8 constants reached from CONSTANT_Class,
// the descriptor half of CONSTANT_NameAndType, CONSTANT_MethodType, field and
// method descriptors, Signature attributes, annotation type and class
// elements, and local variable (type) tables.
package classfile
