package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"coderd/internal/common/fsutil"
	"coderd/pkg/types"
)

const ggufExt = ".gguf"

// ErrModelNotFound is returned by Resolve when nothing matches.
var ErrModelNotFound = errors.New("model not found")

var quantPattern = regexp.MustCompile(`(?i)^(i?q[0-9]+(_[a-z0-9]+)*|f16|f32|bf16)$`)

// GGUFScanner builds model entries from *.gguf files in a directory.
type GGUFScanner struct{}

func NewGGUFScanner() *GGUFScanner { return &GGUFScanner{} }

// Scan lists *.gguf files (case-insensitive) directly under dir, sorted by ID.
// ID is the full filename; Path is the absolute file path.
func (s *GGUFScanner) Scan(dir string) ([]types.Model, error) {
	base, err := fsutil.ExpandHome(dir)
	if err != nil {
		return nil, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("abs path: %w", err)
	}
	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	var models []types.Model
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(strings.ToLower(name), ggufExt) {
			continue
		}
		m := types.Model{ID: name, Path: filepath.Join(abs, name)}
		m.Name, m.Quant = splitName(name)
		if info, err := e.Info(); err == nil {
			m.SizeBytes = info.Size()
		}
		models = append(models, m)
	}
	sort.Slice(models, func(i, j int) bool { return models[i].ID < models[j].ID })
	return models, nil
}

// LoadDir is shorthand for NewGGUFScanner().Scan(dir).
func LoadDir(dir string) ([]types.Model, error) {
	return NewGGUFScanner().Scan(dir)
}

// splitName strips the extension and peels a trailing quantization tag
// ("-q4_k_m", ".Q8_0") off the file name.
func splitName(file string) (name, quant string) {
	stem := file[:len(file)-len(ggufExt)]
	i := strings.LastIndexAny(stem, "-.")
	if i <= 0 {
		return stem, ""
	}
	tag := stem[i+1:]
	if !quantPattern.MatchString(tag) {
		return stem, ""
	}
	return stem[:i], strings.ToUpper(tag)
}

// Resolve maps ref to a model file path. ref may be a model ID, a model name
// or a path to an existing file. IDs and names are matched case-insensitively.
func Resolve(models []types.Model, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", ErrModelNotFound
	}
	for _, m := range models {
		if strings.EqualFold(m.ID, ref) || strings.EqualFold(m.Name, ref) {
			return m.Path, nil
		}
	}
	p, err := fsutil.ExpandHome(ref)
	if err != nil {
		return "", err
	}
	if fsutil.IsFile(p) {
		return p, nil
	}
	return "", fmt.Errorf("%w: %s", ErrModelNotFound, ref)
}
