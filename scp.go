package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/crypto/ssh"
)

type SCPSourceFactory struct{}

func (f *SCPSourceFactory) Accept(u *url.URL) bool { return u.Scheme == "scp" }

func (f *SCPSourceFactory) Create(u *url.URL) (ListingSource, error) {
	return NewSCPSource(u)
}

func (f *SCPSourceFactory) Name() string { return "scp" }

// SCPSource lists with ls and copies with the scp protocol, for hosts that
// have no sftp subsystem.
type SCPSource struct {
	client *ssh.Client
	dir    string
}

func NewSCPSource(u *url.URL) (*SCPSource, error) {
	client, err := dialSSH(u)
	if err != nil {
		return nil, err
	}
	return &SCPSource{client: client, dir: path.Clean("/" + u.Path)}, nil
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func (s *SCPSource) Listing(ctx context.Context) (string, error) {
	session, err := s.client.NewSession()
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()
	done := abortOnDone(ctx, func() { session.Close() })

	output, err := session.Output("ls -1 " + shellQuote(s.dir))
	if err = done(err); err != nil {
		return "", fmt.Errorf("failed to list %s: %w", s.dir, err)
	}
	return string(output), nil
}

func (s *SCPSource) Fetch(ctx context.Context, name string, w io.Writer) (n int64, err error) {
	session, err := s.client.NewSession()
	if err != nil {
		return 0, fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()
	done := abortOnDone(ctx, func() { session.Close() })
	defer func() { err = done(err) }()

	stdout, err := session.StdoutPipe()
	if err != nil {
		return 0, fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	// the session drains stderr into the buffer in the background
	stderr := &lockedBuffer{}
	session.Stderr = stderr
	stdin, err := session.StdinPipe()
	if err != nil {
		return 0, fmt.Errorf("failed to get stdin pipe: %w", err)
	}

	remotePath := path.Join(s.dir, name)
	if err := session.Start("scp -f " + shellQuote(remotePath)); err != nil {
		return 0, fmt.Errorf("failed to start scp command: %w", err)
	}

	writer := bufio.NewWriter(stdin)
	reader := bufio.NewReader(ctxReader{ctx: ctx, r: stdout})

	if err := writeByte(writer, 0); err != nil {
		return 0, fmt.Errorf("failed to write initial null byte: %w", err)
	}

	// read file metadata line (C0664 999999999 test.txt)
	//                          └─┬─┘ └───┬───┘ └───┬───┘
	//                            │       │         │
	//                           mode    size    filename
	line, err := reader.ReadString('\n')
	if err != nil {
		return 0, fmt.Errorf("failed to read file metadata: %w (%s)", err, stderr.String())
	}
	size, err := parseSCPHeader(line)
	if err != nil {
		return 0, err
	}

	if err := writeByte(writer, 0); err != nil {
		return 0, fmt.Errorf("failed to acknowledge metadata: %w", err)
	}

	n, err = io.Copy(w, io.LimitReader(reader, size))
	if err != nil {
		return n, fmt.Errorf("failed to copy %s: %w", remotePath, err)
	}
	if n != size {
		return n, fmt.Errorf("short read on %s: got %d of %d bytes", remotePath, n, size)
	}

	if b, err := reader.ReadByte(); err != nil || b != 0 {
		return n, fmt.Errorf("unexpected trailing byte: %v", b)
	}
	if err := writeByte(writer, 0); err != nil {
		return n, fmt.Errorf("failed to send final null byte: %w", err)
	}
	if err := session.Wait(); err != nil {
		return n, fmt.Errorf("remote scp: %w (%s)", err, stderr.String())
	}
	return n, nil
}

// parseSCPHeader returns the size announced by a C record. Warnings (code 1)
// and errors (code 2) from the remote scp carry their message instead.
func parseSCPHeader(line string) (int64, error) {
	line = strings.TrimRight(line, "\n")
	if line == "" {
		return 0, fmt.Errorf("empty SCP metadata")
	}
	switch line[0] {
	case 1, 2:
		return 0, fmt.Errorf("remote scp: %s", strings.TrimSpace(line[1:]))
	case 'C':
	default:
		return 0, fmt.Errorf("unexpected SCP metadata format: %q", line)
	}
	fields := strings.SplitN(line, " ", 3)
	if len(fields) != 3 {
		return 0, fmt.Errorf("unexpected SCP metadata format: %q", line)
	}
	size, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid file size: %w", err)
	}
	return size, nil
}

func (s *SCPSource) Close() error {
	return s.client.Close()
}

// lockedBuffer collects output written from another goroutine.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return strings.TrimSpace(b.buf.String())
}

func writeByte(w *bufio.Writer, b byte) error {
	if _, err := w.Write([]byte{b}); err != nil {
		return err
	}
	return w.Flush()
}
