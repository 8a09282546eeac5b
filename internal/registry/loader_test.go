package registry

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func TestGGUFScanner_ScanFiltersGGUF(t *testing.T) {
	dir := t.TempDir()
	// create files
	files := []string{
		"a.gguf",
		"b.GGUF", // case-insensitive
		"not-model.txt",
		"model.bin",
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f), []byte(""), 0o644); err != nil {
			t.Fatalf("write temp file: %v", err)
		}
	}
	s := NewGGUFScanner()
	models, err := s.Scan(dir)
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	// ensure IDs are filenames
	ids := []string{models[0].ID, models[1].ID}
	for _, id := range ids {
		if !strings.HasSuffix(strings.ToLower(id), ".gguf") {
			t.Fatalf("id not gguf: %s", id)
		}
	}
}

func TestGGUFScanner_ExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home dir on this platform: %v", err)
	}
	// create temporary directory under home
	hTmp, err := os.MkdirTemp(home, "coderd-registry-*")
	if err != nil {
		t.Skipf("cannot create temp under home: %v", err)
	}
	defer os.RemoveAll(hTmp)
	// create a gguf file inside it
	if err := os.WriteFile(filepath.Join(hTmp, "x.gguf"), []byte(""), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	// build path with ~ prefix
	var tildePath string
	if runtime.GOOS == "windows" {
		// On Windows, home might contain drive; ExpandHome still handles ~/<rest>
		tildePath = filepath.Join("~", filepath.Base(hTmp))
	} else {
		tildePath = "~/" + filepath.Base(hTmp)
	}
	s := NewGGUFScanner()
	models, err := s.Scan(tildePath)
	if err != nil {
		t.Fatalf("scan error: %v", err)
	}
	if len(models) != 1 || models[0].ID != "x.gguf" {
		t.Fatalf("unexpected models: %+v", models)
	}
}

func TestLoadDirWrapper(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "m.gguf"), []byte(""), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	models, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(models) != 1 || models[0].ID != "m.gguf" {
		t.Fatalf("unexpected: %+v", models)
	}
}

func TestScanMetadata(t *testing.T) {
	dir := t.TempDir()
	for name, size := range map[string]int{
		"qwen2.5-coder-1.5b-instruct-q4_k_m.gguf": 7,
		"tiny.Q8_0.gguf":                          3,
		"plain.gguf":                              0,
	} {
		if err := os.WriteFile(filepath.Join(dir, name), make([]byte, size), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.gguf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	models, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(models) != 3 {
		t.Fatalf("expected 3 models, got %+v", models)
	}
	// sorted by ID
	want := []struct {
		id, name, quant string
		size            int64
	}{
		{"plain.gguf", "plain", "", 0},
		{"qwen2.5-coder-1.5b-instruct-q4_k_m.gguf", "qwen2.5-coder-1.5b-instruct", "Q4_K_M", 7},
		{"tiny.Q8_0.gguf", "tiny", "Q8_0", 3},
	}
	for i, w := range want {
		m := models[i]
		if m.ID != w.id || m.Name != w.name || m.Quant != w.quant || m.SizeBytes != w.size {
			t.Fatalf("model %d = %+v, want %+v", i, m, w)
		}
		if !filepath.IsAbs(m.Path) {
			t.Fatalf("path not absolute: %s", m.Path)
		}
	}
}

func TestScanMissingDir(t *testing.T) {
	if _, err := LoadDir(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatalf("expected error for missing dir")
	}
}

func TestResolve(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "coder-q4_0.gguf"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	models, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := filepath.Join(dir, "coder-q4_0.gguf")
	for _, ref := range []string{"coder-q4_0.gguf", "CODER", want} {
		got, err := Resolve(models, ref)
		if err != nil || got != want {
			t.Fatalf("Resolve(%q) = %q, %v", ref, got, err)
		}
	}
	for _, ref := range []string{"", "other", dir} {
		if _, err := Resolve(models, ref); !errors.Is(err, ErrModelNotFound) {
			t.Fatalf("Resolve(%q): expected ErrModelNotFound, got %v", ref, err)
		}
	}
}
