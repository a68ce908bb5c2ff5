package ziparchive

import (
	"archive/zip"
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/bft-labs/compatre/internal/domain"
)

func writeZip(t *testing.T, path string, files map[string][]byte, order []string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	for _, name := range order {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(files[name]); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestArchive_EntriesAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugin.jar")
	files := map[string][]byte{
		"plugin.yml":          []byte("name: demo"),
		"com/example/A.class": {0xCA, 0xFE},
		"com/example/B.class": {0xBA, 0xBE},
	}
	writeZip(t, path, files, []string{"plugin.yml", "com/example/A.class", "com/example/B.class"})

	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer a.Close()

	entries := a.Entries()
	if len(entries) != 3 || entries[1] != "com/example/A.class" {
		t.Fatalf("Entries() = %v", entries)
	}
	for name, want := range files {
		got, err := a.ReadEntry(name)
		if err != nil {
			t.Fatalf("ReadEntry(%q) error = %v", name, err)
		}
		if !bytes.Equal(got, want) {
			t.Errorf("ReadEntry(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestArchive_MissingEntry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plugin.jar")
	writeZip(t, path, map[string][]byte{"a.class": {1}}, []string{"a.class"})

	a, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	if _, err := a.Open("missing.class"); !errors.Is(err, domain.ErrResourceNotFound) {
		t.Errorf("Open(missing) error = %v, want ErrResourceNotFound", err)
	}
}

func TestOpen_Errors(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "nope.jar")); !errors.Is(err, domain.ErrResourceNotFound) {
		t.Errorf("Open(nonexistent) error = %v, want ErrResourceNotFound", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.jar")
	if err := os.WriteFile(bad, []byte("not a zip"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(bad); !errors.Is(err, domain.ErrIO) {
		t.Errorf("Open(bad) error = %v, want ErrIO", err)
	}
}

func TestServerProbe(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.jar")
	writeZip(t, path, map[string][]byte{
		"org/bukkit/Bukkit.class":                         {1},
		"org/bukkit/craftbukkit/v1_16_R2/CraftServer.class": {2},
	}, []string{"org/bukkit/Bukkit.class", "org/bukkit/craftbukkit/v1_16_R2/CraftServer.class"})

	id, err := ServerProbe(path)()
	if err != nil {
		t.Fatalf("probe error = %v", err)
	}
	if id != "org/bukkit/craftbukkit/v1_16_R2" {
		t.Errorf("probe = %q", id)
	}
}

func TestServerProbe_Unversioned(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.jar")
	writeZip(t, path, map[string][]byte{
		"org/bukkit/craftbukkit/CraftServer.class": {2},
	}, []string{"org/bukkit/craftbukkit/CraftServer.class"})

	if _, err := ServerProbe(path)(); err == nil {
		t.Error("expected error for unversioned server archive")
	}
}
