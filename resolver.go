package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"

	"github.com/Masterminds/semver/v3"
	"github.com/dustin/go-humanize"
)

const (
	DefaultListingURL  = "https://archive.apache.org/dist/avro/stable/java/"
	DefaultToolPattern = `\b(avro-tools-[\d.]+\.jar)\b`
)

// ToolRef points at a converter tool on disk. It is resolved once and then
// passed to whatever converts.
type ToolRef struct {
	Path    string
	Version *semver.Version
}

func (t ToolRef) String() string {
	if t.Version == nil {
		return t.Path
	}
	return fmt.Sprintf("%s (%s)", t.Path, t.Version)
}

// Resolver finds the converter tool in CacheDir or downloads it from ListingURL.
type Resolver struct {
	CacheDir   string
	ListingURL string
	// Pattern must have one capture group holding the file name.
	Pattern   *regexp.Regexp
	Factories []ListingSourceFactory
	Out       io.Writer
}

var versionRe = regexp.MustCompile(`\d+(\.\d+)*`)

// toolRef builds the reference for a matched file name. The version is
// informational only; it never decides which file is used.
func toolRef(dir, name string) ToolRef {
	ref := ToolRef{Path: filepath.Join(dir, name)}
	if v := versionRe.FindString(name); v != "" {
		if sv, err := semver.NewVersion(v); err == nil {
			ref.Version = sv
		}
	}
	return ref
}

func (r *Resolver) pattern() *regexp.Regexp {
	if r.Pattern == nil {
		return regexp.MustCompile(DefaultToolPattern)
	}
	return r.Pattern
}

func (r *Resolver) matchName(s string) string {
	m := r.pattern().FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	if len(m) > 1 {
		return m[1]
	}
	return m[0]
}

// Resolve returns the cached tool, downloading it first if needed.
func (r *Resolver) Resolve(ctx context.Context) (ToolRef, error) {
	ref, ok, err := r.local()
	if err != nil {
		return ToolRef{}, err
	}
	if ok {
		slog.Debug("using cached converter tool", "path", ref.Path)
		return ref, nil
	}
	return r.remote(ctx)
}

func (r *Resolver) local() (ToolRef, bool, error) {
	entries, err := os.ReadDir(r.CacheDir)
	if err != nil {
		if os.IsNotExist(err) {
			return ToolRef{}, false, nil
		}
		return ToolRef{}, false, fmt.Errorf("failed to read cache dir: %w", err)
	}
	// first whole-name match in directory order; partial downloads never match
	for _, e := range entries {
		if e.Type().IsRegular() && r.matchName(e.Name()) == e.Name() {
			return toolRef(r.CacheDir, e.Name()), true, nil
		}
	}
	return ToolRef{}, false, nil
}

func (r *Resolver) remote(ctx context.Context) (ToolRef, error) {
	u, err := url.Parse(r.ListingURL)
	if err != nil {
		return ToolRef{}, fmt.Errorf("invalid listing URL: %w", err)
	}
	factories := r.Factories
	if factories == nil {
		factories = listingSourceFactories
	}
	factory := getListingSourceFactory(factories, u)
	if factory == nil {
		return ToolRef{}, fmt.Errorf("no listing source available for scheme: %s", u.Scheme)
	}
	source, err := factory.Create(u)
	if err != nil {
		return ToolRef{}, fmt.Errorf("%s listing source: %w", factory.Name(), err)
	}
	defer source.Close()

	text, err := source.Listing(ctx)
	if err != nil {
		return ToolRef{}, fmt.Errorf("failed to fetch listing %s: %w", u.Redacted(), err)
	}
	name := r.matchName(text)
	if name == "" {
		return ToolRef{}, fmt.Errorf("failed to find avro-tools at %s", u.Redacted())
	}

	ref := toolRef(r.CacheDir, name)
	if exists(ref.Path) {
		return ref, nil
	}

	toolURL := dirURL(u).ResolveReference(&url.URL{Path: name})
	fmt.Fprintf(r.Out, "downloading %s to %s\n", toolURL.Redacted(), ref.Path)
	n, err := r.fetch(ctx, source, name, ref.Path)
	if err != nil {
		return ToolRef{}, fmt.Errorf("failed to download %s: %w", toolURL.Redacted(), err)
	}
	slog.Info("downloaded converter tool", "path", ref.Path, "size", humanize.Bytes(uint64(n)))
	return ref, nil
}

func (r *Resolver) fetch(ctx context.Context, source ListingSource, name, dst string) (int64, error) {
	return saveFile(dst, func(w io.Writer) (int64, error) {
		return source.Fetch(ctx, name, w)
	})
}
