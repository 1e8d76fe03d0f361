package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Extension is a file extension that has a converter.
type Extension int

const (
	ExtAvro Extension = iota + 1
)

var extensions = map[string]Extension{
	".avro": ExtAvro,
}

func (e Extension) String() string {
	for s, ext := range extensions {
		if ext == e {
			return s
		}
	}
	return fmt.Sprintf("extension(%d)", int(e))
}

// ParseExtension maps a dotted extension to a known Extension. Matching is
// case sensitive.
func ParseExtension(ext string) (Extension, bool) {
	e, ok := extensions[ext]
	return e, ok
}

// Converter turns one file into another. ok is false when nothing was produced.
type Converter interface {
	Convert(ctx context.Context, src string) (dst string, ok bool)
}

// ConverterSet maps recognized extensions to their converters.
type ConverterSet map[Extension]Converter

// Lookup returns the converter for path, or false if its extension has none.
func (s ConverterSet) Lookup(path string) (Converter, bool) {
	ext, ok := ParseExtension(fileExt(path))
	if !ok {
		return nil, false
	}
	c, ok := s[ext]
	if !ok || c == nil {
		return nil, false
	}
	return c, true
}

// fileExt is filepath.Ext with leading dots of the name ignored, so a
// dotfile like ".avro" has no extension.
func fileExt(path string) string {
	return filepath.Ext(strings.TrimLeft(filepath.Base(path), "."))
}

// ConvertTree converts every file under root that has a converter. Sources
// are removed only after a conversion produced output.
func ConvertTree(ctx context.Context, out io.Writer, root string, converters ConverterSet, removeSource bool) error {
	files, err := iterFiles(root)
	if err != nil && len(files) == 0 {
		return fmt.Errorf("failed to walk %s: %w", root, err)
	}
	for _, src := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		converter, ok := converters.Lookup(src)
		if !ok {
			continue
		}
		dst, ok := converter.Convert(ctx, src)
		if !ok || dst == "" {
			slog.Debug("conversion produced no output", "path", src)
			continue
		}
		fmt.Fprintf(out, "converted %s to %s\n", src, dst)
		if !removeSource {
			continue
		}
		if err := os.Remove(src); err != nil {
			slog.Warn("failed to remove converted source", "path", src, "error", err)
			continue
		}
		fmt.Fprintf(out, "removed %s\n", src)
	}
	return nil
}

func hasConverters(s ConverterSet) bool {
	for _, c := range s {
		if c != nil {
			return true
		}
	}
	return false
}

