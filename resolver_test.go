package main

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const listingPage = `<html><body><h1>Index of /dist/avro/stable/java</h1>
<a href="avro-1.11.3.jar">avro-1.11.3.jar</a>
<a href="avro-tools-1.11.3.jar">avro-tools-1.11.3.jar</a>
<a href="avro-tools-1.11.3.jar.asc">avro-tools-1.11.3.jar.asc</a>
<a href="avro-tools-1.12.0.jar">avro-tools-1.12.0.jar</a>
</body></html>`

type mirror struct {
	mu   sync.Mutex
	hits map[string]int
	srv  *httptest.Server
}

func newMirror(t *testing.T, page string) *mirror {
	m := &mirror{hits: map[string]int{}}
	m.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		m.hits[r.URL.Path]++
		m.mu.Unlock()
		switch r.URL.Path {
		case "/dist/avro/stable/java/":
			_, _ = w.Write([]byte(page))
		case "/dist/avro/stable/java/avro-tools-1.11.3.jar":
			_, _ = w.Write([]byte("PK jar bytes"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(m.srv.Close)
	return m
}

func (m *mirror) listingURL() string {
	return m.srv.URL + "/dist/avro/stable/java"
}

func (m *mirror) factories() []ListingSourceFactory {
	return []ListingSourceFactory{&HTTPSourceFactory{Client: m.srv.Client()}}
}

// failingFactory fails the test if anything tries to reach a mirror.
type failingFactory struct{ t *testing.T }

func (f failingFactory) Accept(*url.URL) bool { return true }
func (f failingFactory) Name() string { return "failing" }
func (f failingFactory) Create(u *url.URL) (ListingSource, error) {
	f.t.Errorf("unexpected mirror access to %s", u)
	return nil, errors.New("no network")
}

func TestResolveUsesCache(t *testing.T) {
	cache := t.TempDir()
	// directory order: 1.10.0.jar.part, 1.11.3.jar, 1.9.0.jar
	writeFile(t, filepath.Join(cache, "avro-tools-1.10.0.jar.part"), "partial")
	writeFile(t, filepath.Join(cache, "avro-tools-1.11.3.jar"), "first")
	writeFile(t, filepath.Join(cache, "avro-tools-1.9.0.jar"), "second")
	writeFile(t, filepath.Join(cache, "notes.txt"), "")

	r := &Resolver{CacheDir: cache, ListingURL: "http://mirror.invalid/", Factories: []ListingSourceFactory{failingFactory{t}}, Out: &bytes.Buffer{}}

	ref, err := r.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(cache, "avro-tools-1.11.3.jar"), ref.Path)
	assert.Equal(t, "1.11.3", ref.Version.String())
}

func TestResolveDownloadsFirstListed(t *testing.T) {
	m := newMirror(t, listingPage)
	cache := filepath.Join(t.TempDir(), "cache")
	var out bytes.Buffer
	r := &Resolver{CacheDir: cache, ListingURL: m.listingURL(), Factories: m.factories(), Out: &out}

	ref, err := r.Resolve(context.Background())
	require.NoError(t, err)

	want := filepath.Join(cache, "avro-tools-1.11.3.jar")
	assert.Equal(t, want, ref.Path)
	assert.Equal(t, "PK jar bytes", readFile(t, want))
	assert.NoFileExists(t, want+".part")
	assert.Contains(t, out.String(), "downloading "+m.srv.URL+"/dist/avro/stable/java/avro-tools-1.11.3.jar to "+want)
	assert.Equal(t, map[string]int{
		"/dist/avro/stable/java/":                      1,
		"/dist/avro/stable/java/avro-tools-1.11.3.jar": 1,
	}, m.hits)

	// a later run finds the cached copy
	again := &Resolver{CacheDir: cache, ListingURL: m.listingURL(), Factories: []ListingSourceFactory{failingFactory{t}}, Out: &out}
	ref2, err := again.Resolve(context.Background())
	require.NoError(t, err)
	assert.Equal(t, ref.Path, ref2.Path)
}

func TestResolveNoMatch(t *testing.T) {
	m := newMirror(t, "<html>nothing here</html>")
	cache := t.TempDir()
	r := &Resolver{CacheDir: cache, ListingURL: m.listingURL(), Factories: m.factories(), Out: &bytes.Buffer{}}

	_, err := r.Resolve(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to find avro-tools")
	assert.Equal(t, 1, m.hits["/dist/avro/stable/java/"])
}

func TestResolveListingErrors(t *testing.T) {
	m := newMirror(t, listingPage)
	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "listing not found", url: m.srv.URL + "/missing/", want: "404"},
		{name: "unsupported scheme", url: "gopher://mirror/avro/", want: "no listing source available for scheme: gopher"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Resolver{CacheDir: t.TempDir(), ListingURL: tt.url, Factories: m.factories(), Out: &bytes.Buffer{}}
			_, err := r.Resolve(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestToolRef(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{name: "avro-tools-1.11.3.jar", version: "1.11.3"},
		{name: "avro-tools-1.9.jar", version: "1.9.0"},
		{name: "avro-tools-.jar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ref := toolRef("/cache", tt.name)
			assert.Equal(t, filepath.Join("/cache", tt.name), ref.Path)
			if tt.version == "" {
				assert.Nil(t, ref.Version)
				assert.Equal(t, ref.Path, ref.String())
				return
			}
			require.NotNil(t, ref.Version)
			assert.Equal(t, tt.version, ref.Version.String())
		})
	}
}

func TestDirURL(t *testing.T) {
	u, err := url.Parse("https://archive.apache.org/dist/avro/stable/java")
	require.NoError(t, err)
	assert.Equal(t, "https://archive.apache.org/dist/avro/stable/java/", dirURL(u).String())
	assert.Equal(t, "https://archive.apache.org/dist/avro/stable/java/avro-tools-1.11.3.jar",
		dirURL(u).ResolveReference(&url.URL{Path: "avro-tools-1.11.3.jar"}).String())
}
