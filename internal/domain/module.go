package domain

import "strings"

// VersionToken identifies the running host build, e.g. "v1_16_R2".
// It is computed once per process and never reassigned.
type VersionToken string

// String returns the token text.
func (v VersionToken) String() string { return string(v) }

// Module is a module that has been defined by the host loading subsystem.
type Module struct {
	// Name is the binary name under which the module resolves.
	Name string

	// Bytes is the encoding that was defined (possibly rewritten).
	Bytes []byte

	// Origin is the archive entry the bytes were read from.
	Origin string

	// Rewritten reports whether the bytes differ from the archive entry.
	Rewritten bool
}

// PluginDescription describes the plugin owning an archive.
type PluginDescription struct {
	Name    string
	Version string
	Main    string

	// ArchivePath is the location of the plugin's backing archive.
	ArchivePath string
}

// BinaryName converts an archive entry path such as "a/b/C.class" into the
// binary module name "a.b.C" by trimming suffix and replacing separators.
func BinaryName(entry, suffix string) string {
	return strings.ReplaceAll(strings.TrimSuffix(entry, suffix), "/", ".")
}
