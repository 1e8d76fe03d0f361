package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
)

// HadoopFS runs `hadoop fs` subcommands and echoes their output.
type HadoopFS struct {
	// Client is the command prefix, e.g. ["hadoop", "fs"].
	Client []string
	// Dir is the local working directory downloads land in. Empty means the
	// process working directory.
	Dir          string
	Runner       Runner
	Out          io.Writer
	RemoveSource bool
}

func (h *HadoopFS) command(args ...string) Command {
	client := h.Client
	if len(client) == 0 {
		client = []string{"hadoop", "fs"}
	}
	full := append(append([]string{}, client[1:]...), args...)
	return Command{Name: client[0], Args: full, Dir: h.Dir}
}

func (h *HadoopFS) run(ctx context.Context, args ...string) RunResult {
	cmd := h.command(args...)
	fmt.Fprintln(h.Out, cmd.String())
	res := h.Runner.Run(ctx, cmd)
	res.Echo(h.Out)
	return res
}

func (h *HadoopFS) local(name string) string {
	if h.Dir == "" {
		return name
	}
	return filepath.Join(h.Dir, name)
}

// Download fetches every remote path into the working directory, replacing
// whatever local entry has the same name, and converts what came back.
func (h *HadoopFS) Download(ctx context.Context, paths []string, converters ConverterSet) *Batch {
	batch := newBatch("get", paths)
	for i, remote := range paths {
		if ctx.Err() != nil {
			break
		}
		remote = strings.TrimRight(remote, "/")
		name := localName(remote)
		if name == "" {
			fmt.Fprintf(h.Out, "invalid path %q\n", paths[i])
			batch.set(i, StatusSkipped)
			continue
		}
		dst := h.local(name)
		if err := cleanLocal(dst); err != nil {
			fmt.Fprintf(h.Out, "failed to remove %s: %v\n", dst, err)
			batch.set(i, StatusFailed)
			continue
		}

		if res := h.run(ctx, "-get", remote); !res.OK() {
			slog.Debug("download failed", "path", remote, "outcome", res.Outcome().String(), "exit", res.ExitCode)
			batch.set(i, StatusFailed)
			continue
		}

		if hasConverters(converters) {
			if err := ConvertTree(ctx, h.Out, dst, converters, h.RemoveSource); err != nil {
				slog.Warn("conversion stopped", "path", dst, "error", err)
			}
		}
		batch.set(i, StatusDone)
	}
	return batch
}

// Upload removes, then puts, each local source under dstDir.
func (h *HadoopFS) Upload(ctx context.Context, sources []string, dstDir string) *Batch {
	batch := newBatch("put", sources)
	for i, src := range sources {
		if ctx.Err() != nil {
			break
		}
		if !exists(src) {
			fmt.Fprintf(h.Out, "%s does not exist\n", src)
			batch.set(i, StatusSkipped)
			continue
		}

		dstFile := path.Join(dstDir, filepath.Base(src))
		// the file may not be there yet; a failed -rm is expected
		h.run(ctx, "-rm", dstFile)
		if res := h.run(ctx, "-put", src, dstDir); !res.OK() {
			batch.set(i, StatusFailed)
			continue
		}
		batch.set(i, StatusDone)
	}
	return batch
}
