package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/jlaffaye/ftp"
)

type FTPSourceFactory struct{}

func (f *FTPSourceFactory) Accept(u *url.URL) bool {
	return u.Scheme == "ftp"
}

func (f *FTPSourceFactory) Create(u *url.URL) (ListingSource, error) {
	return NewFTPSource(u)
}

func (f *FTPSourceFactory) Name() string {
	return "ftp"
}

// ftpConn is the part of *ftp.ServerConn a source drives.
type ftpConn interface {
	Login(user, password string) error
	NameList(path string) ([]string, error)
	Retr(path string) (io.ReadCloser, error)
	Quit() error
}

type serverConn struct{ *ftp.ServerConn }

func (c serverConn) Retr(path string) (io.ReadCloser, error) {
	r, err := c.ServerConn.Retr(path)
	if err != nil {
		return nil, err
	}
	return r, nil
}

type FTPSource struct {
	client ftpConn
	dir    string
	creds  *Credentials
}

func hostPort(u *url.URL, defaultPort string) string {
	if u.Port() != "" {
		return u.Host
	}
	return net.JoinHostPort(u.Hostname(), defaultPort)
}

func NewFTPSource(u *url.URL) (*FTPSource, error) {
	c, err := ftp.Dial(hostPort(u, "21"), ftp.DialWithTimeout(30*time.Second))
	if err != nil {
		return nil, err
	}
	return openFTPSource(serverConn{c}, u)
}

// openFTPSource logs in on c, anonymously unless u carries a user.
func openFTPSource(c ftpConn, u *url.URL) (*FTPSource, error) {
	creds, err := credentialsFromURL(u, "anonymous", "anonymous")
	if err != nil {
		c.Quit()
		return nil, err
	}

	err = c.Login(creds.username, string(creds.password))
	if err != nil {
		c.Quit() // Close connection on login failure
		creds.Clear()
		return nil, err
	}

	dir := path.Clean("/" + u.Path)
	slog.Debug("connected to ftp mirror", "host", u.Host, "dir", dir)
	return &FTPSource{client: c, dir: dir, creds: creds}, nil
}

func (f *FTPSource) Listing(ctx context.Context) (string, error) {
	done := abortOnDone(ctx, func() { f.client.Quit() })
	names, err := f.client.NameList(f.dir)
	if err = done(err); err != nil {
		return "", fmt.Errorf("failed to list %s: %w", f.dir, err)
	}
	// some servers answer NLST with full paths
	for i, n := range names {
		names[i] = path.Base(n)
	}
	return strings.Join(names, "\n"), nil
}

func (f *FTPSource) Fetch(ctx context.Context, name string, w io.Writer) (n int64, err error) {
	done := abortOnDone(ctx, func() { f.client.Quit() })
	defer func() { err = done(err) }()

	r, err := f.client.Retr(path.Join(f.dir, name))
	if err != nil {
		return 0, err
	}
	defer r.Close()
	return io.Copy(w, ctxReader{ctx: ctx, r: r})
}

func (f *FTPSource) Close() error {
	if f.creds != nil {
		f.creds.Clear()
	}
	return f.client.Quit()
}
