package main

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bft-labs/compatre/internal/testutil/classgen"
	"github.com/bft-labs/compatre/pkg/compatre"
)

func markedModule(name string) []byte {
	return classgen.Build(classgen.Class{
		Name:   name,
		Marker: compatre.DefaultMarker,
		Refs:   []string{"net/minecraft/server/v1_8_R3/EntityPlayer"},
	})
}

func plainModule(name string) []byte {
	return classgen.Build(classgen.Class{Name: name})
}

func writeJar(t *testing.T, dir string, entries map[string][]byte) string {
	t.Helper()
	path := filepath.Join(dir, "demo.jar")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	for name, data := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(data); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd(&stdout, &stderr)
	args = append(args, "--config", filepath.Join(t.TempDir(), "absent.toml"))
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestScan(t *testing.T) {
	jar := writeJar(t, t.TempDir(), map[string][]byte{
		"plugin.yml":               []byte("name: demo"),
		"com/example/Marked.class": markedModule("com/example/Marked"),
		"com/example/Plain.class":  plainModule("com/example/Plain"),
	})

	out, err := run(t, "scan", jar)
	if err != nil {
		t.Fatalf("scan error = %v", err)
	}
	if strings.TrimSpace(out) != "com.example.Marked" {
		t.Errorf("scan output = %q, want com.example.Marked", out)
	}
}

func TestScan_MalformedEntry(t *testing.T) {
	jar := writeJar(t, t.TempDir(), map[string][]byte{
		"com/example/Broken.class": {0xCA, 0xFE, 0xBA, 0xBE, 0x00},
	})

	if _, err := run(t, "scan", jar); err == nil {
		t.Error("scan should fail when an entry is malformed")
	}
}

func TestTransform(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "Marked.class")
	if err := os.WriteFile(in, markedModule("com/example/Marked"), 0o644); err != nil {
		t.Fatal(err)
	}
	outPath := filepath.Join(dir, "out.class")

	if _, err := run(t, "transform", in, "-o", outPath, "--host-package", "org.bukkit.craftbukkit.v1_16_R2"); err != nil {
		t.Fatalf("transform error = %v", err)
	}
	got, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Contains(got, []byte("net/minecraft/server/v1_16_R2/EntityPlayer")) {
		t.Error("output not rewritten")
	}
}

func TestTransform_RequiresHost(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "Marked.class")
	if err := os.WriteFile(in, markedModule("com/example/Marked"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := run(t, "transform", in, "-o", filepath.Join(dir, "out.class")); err == nil {
		t.Error("transform without a host should fail")
	}
}

func TestInject(t *testing.T) {
	dir := t.TempDir()
	jar := writeJar(t, dir, map[string][]byte{
		"com/example/Marked.class": markedModule("com/example/Marked"),
		"com/example/Plain.class":  plainModule("com/example/Plain"),
	})
	outDir := filepath.Join(dir, "out")

	out, err := run(t, "inject", jar, "--out-dir", outDir, "--host-package", "org.bukkit.craftbukkit.v1_16_R2")
	if err != nil {
		t.Fatalf("inject error = %v", err)
	}
	if strings.TrimSpace(out) != "com.example.Marked" {
		t.Errorf("inject output = %q", out)
	}

	got, err := os.ReadFile(filepath.Join(outDir, "com", "example", "Marked.class"))
	if err != nil {
		t.Fatalf("injected module not written: %v", err)
	}
	if !bytes.Contains(got, []byte("v1_16_R2")) {
		t.Error("written module not rewritten")
	}
	if _, err := os.Stat(filepath.Join(outDir, "com", "example", "Plain.class")); !os.IsNotExist(err) {
		t.Error("unmarked module was written")
	}
}

func TestInject_RequiresOutDir(t *testing.T) {
	jar := writeJar(t, t.TempDir(), map[string][]byte{})
	if _, err := run(t, "inject", jar, "--host-package", "org.bukkit.craftbukkit.v1_16_R2"); err == nil {
		t.Error("inject without --out-dir should fail")
	}
}

func TestRootFlag_ReplacesDefaults(t *testing.T) {
	jar := writeJar(t, t.TempDir(), map[string][]byte{
		"com/example/Marked.class": markedModule("com/example/Marked"),
	})
	outDir := t.TempDir()

	if _, err := run(t, "inject", jar, "--out-dir", outDir, "--root", "org/example/impl",
		"--host-package", "org.bukkit.craftbukkit.v1_16_R2"); err != nil {
		t.Fatalf("inject error = %v", err)
	}
	got, err := os.ReadFile(filepath.Join(outDir, "com", "example", "Marked.class"))
	if err != nil {
		t.Fatal(err)
	}
	if bytes.Contains(got, []byte("v1_16_R2")) {
		t.Error("default root rewritten although --root replaced it")
	}
}

func TestPluginName(t *testing.T) {
	if got := pluginName("/srv/plugins/Demo-1.0.jar"); got != "Demo-1.0" {
		t.Errorf("pluginName() = %q", got)
	}
}
