package gen

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"
)

// WriterMetrics tracks generation output.
type WriterMetrics struct {
	mu             sync.Mutex
	FilesGenerated int
	TotalBytes     int64
}

func (m *WriterMetrics) add(n int) {
	m.mu.Lock()
	m.FilesGenerated++
	m.TotalBytes += int64(n)
	m.mu.Unlock()
}

// writer renders jennifer files into one directory.
type writer struct {
	dir     string
	metrics *WriterMetrics
}

// write renders f, formats it and writes it to name. A file that fails to
// format is written next to the target with an ".error" suffix.
func (w *writer) write(ctx context.Context, f *jen.File, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return NewGenerationError("render", name, "", err)
	}
	path := filepath.Join(w.dir, name)
	formatted, err := imports.Process(path, buf.Bytes(), &imports.Options{
		Comments:   true,
		TabIndent:  true,
		TabWidth:   8,
		FormatOnly: true,
	})
	if err != nil {
		debugPath := path + ".error"
		_ = os.WriteFile(debugPath, buf.Bytes(), 0o644)
		return NewGenerationError("format", name, "unformatted output written to "+debugPath, err)
	}
	if err := os.WriteFile(path, formatted, 0o644); err != nil {
		return NewGenerationError("write", name, "", err)
	}
	w.metrics.add(len(formatted))
	return nil
}

// prune removes the Go files in dir that start with header and are not in
// keep. It returns the removed file names, sorted.
func prune(dir, header string, keep []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, NewGenerationError("prune", dir, "", err)
	}
	var removed []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".go" || slices.Contains(keep, name) {
			continue
		}
		path := filepath.Join(dir, name)
		generated, err := hasHeader(path, header)
		if err != nil {
			return removed, NewGenerationError("prune", name, "", err)
		}
		if !generated {
			continue
		}
		if err := os.Remove(path); err != nil {
			return removed, NewGenerationError("prune", name, "", err)
		}
		removed = append(removed, name)
	}
	return removed, nil
}

func hasHeader(path, header string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		return false, sc.Err()
	}
	return strings.TrimSpace(sc.Text()) == header, nil
}
