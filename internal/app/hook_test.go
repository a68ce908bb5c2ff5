package app

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/bft-labs/compatre/internal/adapters/memhost"
	"github.com/bft-labs/compatre/internal/domain"
	"github.com/bft-labs/compatre/internal/ports"
)

type panickingTokens struct{}

func (panickingTokens) Resolve() (domain.VersionToken, error) {
	panic("probe exploded")
}

type failingRegistry struct{}

func (failingRegistry) AddTransformer(ports.TransformFunc) error {
	return errors.New("registry closed")
}

func TestLoadHook_Install(t *testing.T) {
	logger := &mockLogger{}
	host := memhost.New()
	hook := NewLoadHook(newTestPipeline(t, &staticTokens{token: "v1_16_R2"}), logger)

	if err := hook.Install(host); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	archive := memhost.NewMapArchive().
		Add("com/example/Marked.class", markedClass("com/example/Marked")).
		Add("com/example/Plain.class", plainClass("com/example/Plain"))
	loader, err := host.NewLoader(domain.PluginDescription{Name: "demo"}, archive)
	if err != nil {
		t.Fatal(err)
	}

	m, err := loader.Resolve("com.example.Marked")
	if err != nil {
		t.Fatalf("Resolve(marked) error = %v", err)
	}
	if !bytes.Contains(m.Bytes, []byte("net/minecraft/server/v1_16_R2/EntityPlayer")) {
		t.Error("marked module was not rewritten on load")
	}

	plain, err := loader.Resolve("com.example.Plain")
	if err != nil {
		t.Fatalf("Resolve(plain) error = %v", err)
	}
	if !bytes.Equal(plain.Bytes, plainClass("com/example/Plain")) {
		t.Error("unmarked module changed on load")
	}

	found := false
	for _, msg := range logger.Messages() {
		if msg == "info: load hook installed" {
			found = true
		}
	}
	if !found {
		t.Errorf("install not logged: %v", logger.Messages())
	}
}

func TestLoadHook_Install_RegistryError(t *testing.T) {
	hook := NewLoadHook(newTestPipeline(t, &staticTokens{token: "v1_16_R2"}), nil)
	if err := hook.Install(failingRegistry{}); err == nil {
		t.Error("Install() should surface the registry error")
	}
}

func TestLoadHook_Transform_RecoversPanic(t *testing.T) {
	logger := &mockLogger{}
	p, err := NewPipeline(PipelineConfig{Tokens: panickingTokens{}})
	if err != nil {
		t.Fatal(err)
	}
	hook := NewLoadHook(p, logger)

	out, err := hook.Transform("com.example.Marked", markedClass("com/example/Marked"))
	if err == nil || !strings.Contains(err.Error(), "probe exploded") {
		t.Fatalf("Transform() error = %v, want recovered panic", err)
	}
	if out != nil {
		t.Error("Transform() returned bytes after a panic")
	}

	msgs := logger.Messages()
	if len(msgs) == 0 || msgs[len(msgs)-1] != "error: module transform failed" {
		t.Errorf("failure not logged: %v", msgs)
	}

	// Unmarked modules never reach the token source and still load.
	plain := plainClass("com/example/Plain")
	out, err = hook.Transform("com.example.Plain", plain)
	if err != nil || !bytes.Equal(out, plain) {
		t.Errorf("Transform(plain) = %v, want passthrough", err)
	}
}

func TestLoadHook_FailureIsolatedToOneModule(t *testing.T) {
	host := memhost.New()
	hook := NewLoadHook(newTestPipeline(t, &staticTokens{token: "v1_16_R2"}), nil)
	if err := hook.Install(host); err != nil {
		t.Fatal(err)
	}

	broken := markedClass("com/example/Broken")
	archive := memhost.NewMapArchive().
		Add("com/example/Broken.class", broken[:len(broken)-4]).
		Add("com/example/Marked.class", markedClass("com/example/Marked"))
	loader, err := host.NewLoader(domain.PluginDescription{Name: "demo"}, archive)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := loader.Resolve("com.example.Broken"); !errors.Is(err, domain.ErrBinaryFormat) {
		t.Errorf("Resolve(broken) error = %v, want ErrBinaryFormat", err)
	}
	if _, err := loader.Resolve("com.example.Marked"); err != nil {
		t.Errorf("Resolve(marked) error = %v after a sibling failed", err)
	}
}
