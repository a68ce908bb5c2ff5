package app

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/bft-labs/compatre/internal/domain"
	"github.com/bft-labs/compatre/internal/testutil/classgen"
	"github.com/bft-labs/compatre/pkg/classfile"
)

// staticTokens is a TokenSource with a fixed outcome.
type staticTokens struct {
	token domain.VersionToken
	err   error

	mu    sync.Mutex
	calls int
}

func (s *staticTokens) Resolve() (domain.VersionToken, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.token, s.err
}

func (s *staticTokens) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// recordingObserver records OnModuleRewritten calls.
type recordingObserver struct {
	mu      sync.Mutex
	modules map[string]int
}

func (o *recordingObserver) OnModuleRewritten(name string, symbols int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.modules == nil {
		o.modules = make(map[string]int)
	}
	o.modules[name] = symbols
}

func markedClass(name string) []byte {
	return classgen.Build(classgen.Class{
		Name:   name,
		Marker: DefaultMarker,
		Refs:   []string{"net/minecraft/server/v1_8_R3/EntityPlayer"},
		Calls: [][3]string{
			{"org/bukkit/craftbukkit/v1_8_R3/entity/CraftPlayer", "getHandle", "()Lnet/minecraft/server/v1_8_R3/EntityPlayer;"},
		},
		Methods: []classgen.Member{
			{Name: "send", Desc: "(Lnet/minecraft/server/v1_8_R3/Packet;)V"},
		},
		Strings: []string{"net/minecraft/server/v1_8_R3/EntityPlayer"},
	})
}

func plainClass(name string) []byte {
	return classgen.Build(classgen.Class{
		Name: name,
		Refs: []string{"net/minecraft/server/v1_8_R3/EntityPlayer"},
	})
}

func newTestPipeline(t *testing.T, tokens TokenSource) *Pipeline {
	t.Helper()
	p, err := NewPipeline(PipelineConfig{Tokens: tokens, Logger: &mockLogger{}})
	if err != nil {
		t.Fatalf("NewPipeline() error = %v", err)
	}
	return p
}

func sameSlice(a, b []byte) bool {
	return len(a) == len(b) && (len(a) == 0 || &a[0] == &b[0])
}

func TestNewPipeline_RequiresTokens(t *testing.T) {
	_, err := NewPipeline(PipelineConfig{})
	if !errors.Is(err, domain.ErrInvalidConfig) {
		t.Errorf("NewPipeline() error = %v, want ErrInvalidConfig", err)
	}
}

func TestNewPipeline_Defaults(t *testing.T) {
	p := newTestPipeline(t, &staticTokens{token: "v1_16_R2"})
	if p.Marker() != DefaultMarker {
		t.Errorf("Marker() = %q, want %q", p.Marker(), DefaultMarker)
	}
}

func TestPipeline_Transform_Passthrough(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"arbitrary bytes", []byte("definitely not a class file")},
		{"unmarked class", plainClass("com/example/Plain")},
		{"marker of other kind", classgen.Build(classgen.Class{
			Name:        "com/example/Other",
			Annotations: []string{"Ljava/lang/Deprecated;"},
			Refs:        []string{"net/minecraft/server/v1_8_R3/World"},
		})},
		{"marker text only in a literal", classgen.Build(classgen.Class{
			Name:    "com/example/Literal",
			Strings: []string{DefaultMarker},
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens := &staticTokens{token: "v1_16_R2"}
			p := newTestPipeline(t, tokens)

			out, err := p.Transform(tt.data)
			if err != nil {
				t.Fatalf("Transform() error = %v", err)
			}
			if !sameSlice(out, tt.data) {
				t.Error("Transform() did not return the input slice")
			}
			if tokens.Calls() != 0 {
				t.Errorf("token resolved %d times for an unmarked module", tokens.Calls())
			}
		})
	}
}

func TestPipeline_Transform_Marked(t *testing.T) {
	observer := &recordingObserver{}
	p, err := NewPipeline(PipelineConfig{
		Tokens:   &staticTokens{token: "v1_16_R2"},
		Observer: observer,
	})
	if err != nil {
		t.Fatal(err)
	}

	in := markedClass("com/example/Marked")
	out, rewritten, err := p.TransformNamed("com.example.Marked", in)
	if err != nil {
		t.Fatalf("TransformNamed() error = %v", err)
	}
	if !rewritten {
		t.Fatal("expected the module to be rewritten")
	}

	c, err := classfile.Decode(out)
	if err != nil {
		t.Fatalf("output does not decode: %v", err)
	}
	for _, s := range c.Symbols() {
		if strings.Contains(s, "v1_8_R3") {
			t.Errorf("symbol %q not rewritten", s)
		}
	}
	if !bytes.Contains(out, []byte("net/minecraft/server/v1_16_R2/EntityPlayer")) {
		t.Error("rewritten reference missing")
	}
	// The string literal keeps its original text.
	if !bytes.Contains(out, []byte("net/minecraft/server/v1_8_R3/EntityPlayer")) {
		t.Error("string literal was rewritten")
	}
	if n := observer.modules["com.example.Marked"]; n == 0 {
		t.Errorf("observer not told about the rewrite: %v", observer.modules)
	}
}

func TestPipeline_Transform_Idempotent(t *testing.T) {
	p := newTestPipeline(t, &staticTokens{token: "v1_16_R2"})

	once, err := p.Transform(markedClass("com/example/Marked"))
	if err != nil {
		t.Fatal(err)
	}
	twice, err := p.Transform(once)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(once, twice) {
		t.Error("second Transform changed the output")
	}
	if !sameSlice(once, twice) {
		t.Error("second Transform re-encoded an already current module")
	}
}

func TestPipeline_Transform_SameVersionIsIdentity(t *testing.T) {
	p := newTestPipeline(t, &staticTokens{token: "v1_8_R3"})
	in := markedClass("com/example/Marked")
	out, err := p.Transform(in)
	if err != nil {
		t.Fatal(err)
	}
	if !sameSlice(in, out) {
		t.Error("module built for the running version was re-encoded")
	}
}

func TestPipeline_Transform_Errors(t *testing.T) {
	marked := markedClass("com/example/Marked")
	tokenErr := &domain.HostError{Identifier: "org.bukkit.craftbukkit", Reason: "no version segment"}

	tests := []struct {
		name    string
		data    []byte
		tokens  *staticTokens
		wantErr error
	}{
		{
			name:    "truncated marked module",
			data:    marked[:len(marked)-3],
			tokens:  &staticTokens{token: "v1_16_R2"},
			wantErr: domain.ErrBinaryFormat,
		},
		{
			name:    "garbage carrying the marker text",
			data:    []byte("junk" + DefaultMarker),
			tokens:  &staticTokens{token: "v1_16_R2"},
			wantErr: domain.ErrBinaryFormat,
		},
		{
			name:    "unsupported host",
			data:    marked,
			tokens:  &staticTokens{err: tokenErr},
			wantErr: domain.ErrUnsupportedHost,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestPipeline(t, tt.tokens)
			out, err := p.Transform(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Transform() error = %v, want %v", err, tt.wantErr)
			}
			if out != nil {
				t.Error("Transform() returned bytes alongside an error")
			}
		})
	}
}

func TestPipeline_HasMarker(t *testing.T) {
	p := newTestPipeline(t, &staticTokens{token: "v1_16_R2"})

	tests := []struct {
		name    string
		data    []byte
		want    bool
		wantErr bool
	}{
		{"marked invisible", markedClass("com/example/A"), true, false},
		{"marked visible", classgen.Build(classgen.Class{Name: "com/example/B", Marker: DefaultMarker, Visible: true}), true, false},
		{"unmarked", plainClass("com/example/C"), false, false},
		{"malformed", []byte{0xCA, 0xFE, 0xBA, 0xBE, 0x00}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.HasMarker(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("HasMarker() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, domain.ErrBinaryFormat) {
				t.Errorf("HasMarker() error = %v, want ErrBinaryFormat", err)
			}
			if got != tt.want {
				t.Errorf("HasMarker() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPipeline_Marked_SkipsDecodeWithoutMarkerText(t *testing.T) {
	p := newTestPipeline(t, &staticTokens{token: "v1_16_R2"})

	got, err := p.Marked([]byte{0xCA, 0xFE, 0xBA, 0xBE, 0x00})
	if err != nil || got {
		t.Errorf("Marked() = %v, %v; want false, nil", got, err)
	}
}

func TestPipeline_CustomMarkerAndRoots(t *testing.T) {
	const custom = "Lorg/example/Versioned;"
	p, err := NewPipeline(PipelineConfig{
		Marker: custom,
		Roots:  []string{"org/example/impl"},
		Tokens: &staticTokens{token: "v1_20_R1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	in := classgen.Build(classgen.Class{
		Name:   "com/example/Custom",
		Marker: custom,
		Refs:   []string{"org/example/impl/v1_8_R3/Thing", "net/minecraft/server/v1_8_R3/World"},
	})
	out, err := p.Transform(in)
	if err != nil {
		t.Fatal(err)
	}
	c, err := classfile.Decode(out)
	if err != nil {
		t.Fatal(err)
	}
	syms := strings.Join(c.Symbols(), "\n")
	if !strings.Contains(syms, "org/example/impl/v1_20_R1/Thing") {
		t.Errorf("custom root not rewritten:\n%s", syms)
	}
	if !strings.Contains(syms, "net/minecraft/server/v1_8_R3/World") {
		t.Errorf("default root rewritten although not configured:\n%s", syms)
	}
}

func TestPipeline_Transform_MultiTypeDescriptors(t *testing.T) {
	p := newTestPipeline(t, &staticTokens{token: "v1_16_R2"})

	in := classgen.Build(classgen.Class{
		Name:   "com/example/Mover",
		Marker: DefaultMarker,
		Methods: []classgen.Member{
			{Name: "move", Desc: "(Lnet/minecraft/server/v1_8_R3/Entity;Lnet/minecraft/server/v1_8_R3/World;)V"},
		},
		Calls: [][3]string{
			{"com/example/Spawner", "spawn", "(Lnet/minecraft/server/v1_8_R3/World;)Lorg/bukkit/craftbukkit/v1_8_R3/entity/CraftEntity;"},
		},
	})

	once, err := p.Transform(in)
	if err != nil {
		t.Fatal(err)
	}
	twice, err := p.Transform(once)
	if err != nil {
		t.Fatal(err)
	}
	for _, out := range [][]byte{once, twice} {
		c, err := classfile.Decode(out)
		if err != nil {
			t.Fatal(err)
		}
		syms := strings.Join(c.Symbols(), "\n")
		for _, want := range []string{
			"(Lnet/minecraft/server/v1_16_R2/Entity;Lnet/minecraft/server/v1_16_R2/World;)V",
			"(Lnet/minecraft/server/v1_16_R2/World;)Lorg/bukkit/craftbukkit/v1_16_R2/entity/CraftEntity;",
		} {
			if !strings.Contains(syms, want) {
				t.Errorf("missing %q in\n%s", want, syms)
			}
		}
	}
}

func TestPipeline_ConcurrentTransform(t *testing.T) {
	p := newTestPipeline(t, &staticTokens{token: "v1_16_R2"})
	in := markedClass("com/example/Marked")
	want, err := p.Transform(in)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := p.Transform(in)
			if err != nil || !bytes.Equal(got, want) {
				t.Errorf("concurrent Transform() mismatch, err = %v", err)
			}
		}()
	}
	wg.Wait()
}
