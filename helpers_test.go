package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeRunner records commands and answers them with handle.
type fakeRunner struct {
	calls  []Command
	handle func(c Command) RunResult
}

func (f *fakeRunner) Run(_ context.Context, c Command) RunResult {
	f.calls = append(f.calls, c)
	if f.handle == nil {
		return RunResult{Command: c}
	}
	res := f.handle(c)
	res.Command = c
	return res
}

func (f *fakeRunner) argv() [][]string {
	var out [][]string
	for _, c := range f.calls {
		out = append(out, append([]string{c.Name}, c.Args...))
	}
	return out
}

// recordingConverter writes "<src>.json" siblings unless fail is set.
type recordingConverter struct {
	fail bool
	seen []string
}

func (r *recordingConverter) Convert(_ context.Context, src string) (string, bool) {
	r.seen = append(r.seen, src)
	if r.fail {
		return "", false
	}
	dst := siblingWithExt(src, ".json")
	if err := os.WriteFile(dst, []byte(`{"converted":true}`+"\n"), 0644); err != nil {
		return "", false
	}
	return dst, true
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}
