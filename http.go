package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type HTTPSourceFactory struct {
	// Client defaults to a client with a 5 minute timeout.
	Client *http.Client
}

func (f *HTTPSourceFactory) Accept(u *url.URL) bool {
	return u.Scheme == "http" || u.Scheme == "https"
}

func (f *HTTPSourceFactory) Create(u *url.URL) (ListingSource, error) {
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &HTTPSource{base: dirURL(u), client: client}, nil
}

func (f *HTTPSourceFactory) Name() string {
	return "http"
}

// HTTPSource reads an HTML directory index.
type HTTPSource struct {
	base   *url.URL
	client *http.Client
}

// dirURL returns a copy of u whose path ends with a slash.
func dirURL(u *url.URL) *url.URL {
	c := *u
	c.Path = strings.TrimRight(c.Path, "/") + "/"
	c.RawPath = ""
	return &c
}

func (s *HTTPSource) get(ctx context.Context, u *url.URL) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: unexpected status %s", u, resp.Status)
	}
	return resp, nil
}

func (s *HTTPSource) Listing(ctx context.Context) (string, error) {
	resp, err := s.get(ctx, s.base)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read listing: %w", err)
	}
	return string(body), nil
}

func (s *HTTPSource) Fetch(ctx context.Context, name string, w io.Writer) (int64, error) {
	resp, err := s.get(ctx, s.base.ResolveReference(&url.URL{Path: name}))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return io.Copy(w, resp.Body)
}

func (s *HTTPSource) Close() error {
	return nil
}
