package main

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/pkg/sftp"
)

type SFTPSourceFactory struct{}

func (f *SFTPSourceFactory) Accept(u *url.URL) bool { return u.Scheme == "sftp" }

func (f *SFTPSourceFactory) Create(u *url.URL) (ListingSource, error) {
	return NewSFTPSource(u)
}

func (f *SFTPSourceFactory) Name() string { return "sftp" }

type SFTPSource struct {
	conn   io.Closer
	client *sftp.Client
	dir    string
}

func NewSFTPSource(u *url.URL) (*SFTPSource, error) {
	conn, err := dialSSH(u)
	if err != nil {
		return nil, err
	}
	client, err := sftp.NewClient(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to start sftp session: %w", err)
	}
	return &SFTPSource{conn: conn, client: client, dir: path.Clean("/" + u.Path)}, nil
}

func (s *SFTPSource) Listing(ctx context.Context) (string, error) {
	done := abortOnDone(ctx, func() { s.Close() })
	entries, err := s.client.ReadDir(s.dir)
	if err = done(err); err != nil {
		return "", fmt.Errorf("failed to list %s: %w", s.dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Mode().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return strings.Join(names, "\n"), nil
}

func (s *SFTPSource) Fetch(ctx context.Context, name string, w io.Writer) (n int64, err error) {
	done := abortOnDone(ctx, func() { s.Close() })
	defer func() { err = done(err) }()

	f, err := s.client.Open(path.Join(s.dir, name))
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(w, ctxReader{ctx: ctx, r: f})
}

func (s *SFTPSource) Close() error {
	s.client.Close()
	return s.conn.Close()
}
