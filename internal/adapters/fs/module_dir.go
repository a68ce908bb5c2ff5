// Package fs persists defined modules on the local file system.
package fs

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bft-labs/compatre/internal/domain"
)

// ModuleSuffix is appended to a module's path inside the directory.
const ModuleSuffix = ".class"

// ModuleDirectory implements ports.OverrideTable by writing every module put
// into it under dir, laid out by binary name ("a.b.C" → dir/a/b/C.class).
// Existing files are overwritten; nothing is ever listed or removed.
type ModuleDirectory struct {
	dir string
}

// NewModuleDirectory creates a ModuleDirectory rooted at dir.
func NewModuleDirectory(dir string) *ModuleDirectory {
	return &ModuleDirectory{dir: dir}
}

// Put persists the module atomically.
// Uses atomic write (write to temp file, then rename) to prevent torn files.
func (d *ModuleDirectory) Put(name string, module domain.Module) error {
	path, err := d.Path(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create module dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, module.Bytes, 0o644); err != nil {
		return fmt.Errorf("write module: %w", err)
	}
	return os.Rename(tmp, path)
}

// Path returns where the module with the given binary name is stored.
func (d *ModuleDirectory) Path(name string) (string, error) {
	if name == "" || strings.Contains(name, "..") || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("invalid module name %q", name)
	}
	rel := strings.ReplaceAll(name, ".", string(filepath.Separator)) + ModuleSuffix
	return filepath.Join(d.dir, rel), nil
}

// Dir returns the root directory.
func (d *ModuleDirectory) Dir() string {
	return d.dir
}
