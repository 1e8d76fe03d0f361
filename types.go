package main

import (
	"context"
	"io"
	"net/url"
)

// ListingSource is a mirror directory that publishes converter tool releases
type ListingSource interface {
	// Listing returns text that mentions every file name in the directory.
	Listing(ctx context.Context) (string, error)
	// Fetch streams the named file of the directory into w.
	Fetch(ctx context.Context, name string, w io.Writer) (int64, error)
	Close() error
}

// ListingSourceFactory creates listing sources for the URL schemes it accepts
type ListingSourceFactory interface {
	Accept(u *url.URL) bool
	Create(u *url.URL) (ListingSource, error)
	Name() string
}

// abortOnDone runs abort once ctx is done, for clients that take no context.
// The returned func ends the watch and reports ctx's error in place of err
// when the abort has fired.
func abortOnDone(ctx context.Context, abort func()) func(err error) error {
	stop := context.AfterFunc(ctx, abort)
	return func(err error) error {
		if !stop() && ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
}

// ctxReader fails the next Read once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
