package main

import (
	"bytes"
	"context"
	"errors"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	app    *app
	runner *fakeRunner
	cache  string
	work   string
	config string
}

func newTestEnv(t *testing.T) *testEnv {
	env := &testEnv{
		runner: &fakeRunner{},
		cache:  t.TempDir(),
		work:   t.TempDir(),
		config: filepath.Join(t.TempDir(), "hh.yaml"),
	}
	writeFile(t, env.config, "")
	env.app = &app{runner: env.runner, factories: []ListingSourceFactory{failingFactory{t}}, workDir: env.work}
	return env
}

func (e *testEnv) execute(args ...string) (string, error) {
	cmd := newRootCmd(e.app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	full := append([]string{args[0], "--config", e.config, "--cache-dir", e.cache}, args[1:]...)
	cmd.SetArgs(full)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestPutNeedsDestination(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.execute("put", "a.txt")

	require.NoError(t, err)
	assert.Contains(t, out, "missing destination path")
	assert.Empty(t, env.runner.calls)
}

func TestPutNormalizesDestination(t *testing.T) {
	env := newTestEnv(t)
	src := filepath.Join(env.work, "a.txt")
	writeFile(t, src, "a")

	_, err := env.execute("put", src, "user/hh/in")

	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"hadoop", "fs", "-rm", "/user/hh/in/a.txt"},
		{"hadoop", "fs", "-put", src, "/user/hh/in/"},
	}, env.runner.argv())
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "unknown command", args: []string{"cat", "/x"}},
		{name: "get without paths", args: []string{"get"}},
		{name: "put without paths", args: []string{"put"}},
		{name: "bad log level", args: []string{"get", "--loglevel", "loud", "/x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			cmd := newRootCmd(env.app)
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)

			err := cmd.ExecuteContext(context.Background())

			require.Error(t, err)
			assert.Equal(t, 2, exitCode(err))
			assert.Empty(t, env.runner.calls)
		})
	}
}

func TestGetIsLenientUnlessStrict(t *testing.T) {
	env := newTestEnv(t)
	env.runner.handle = func(Command) RunResult { return RunResult{ExitCode: 1} }

	_, err := env.execute("get", "--no-convert", "/data/x")
	assert.NoError(t, err)
	assert.Equal(t, 0, exitCode(err))

	_, err = env.execute("get", "--no-convert", "--strict", "/data/x")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errBatchFailed))
	assert.Equal(t, 1, exitCode(err))
}

func TestGetConvertsWithCachedTool(t *testing.T) {
	tests := []struct {
		name       string
		extra      []string
		keepSource bool
	}{
		{name: "removes sources by default"},
		{name: "keep source", extra: []string{"--keep-source"}, keepSource: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			jar := filepath.Join(env.cache, "avro-tools-1.11.3.jar")
			writeFile(t, jar, "PK")
			env.runner.handle = func(c Command) RunResult {
				switch c.Name {
				case "hadoop":
					writeFile(t, filepath.Join(c.Dir, "events", "part-0.avro"), "Obj")
					writeFile(t, filepath.Join(c.Dir, "events", "_SUCCESS"), "")
					return RunResult{}
				case "java":
					return RunResult{Stdout: []byte("{\"id\":1}\n")}
				}
				return RunResult{ExitCode: 127}
			}

			args := append([]string{"get"}, tt.extra...)
			out, err := env.execute(append(args, "/data/events/")...)
			require.NoError(t, err)

			src := filepath.Join(env.work, "events", "part-0.avro")
			assert.Equal(t, [][]string{
				{"hadoop", "fs", "-get", "/data/events"},
				{"java", "-jar", jar, "tojson", src},
			}, env.runner.argv())
			assert.Equal(t, "{\"id\":1}\n", readFile(t, filepath.Join(env.work, "events", "part-0.json")))
			assert.FileExists(t, filepath.Join(env.work, "events", "_SUCCESS"))
			assert.Contains(t, out, "converted "+src)
			if tt.keepSource {
				assert.FileExists(t, src)
			} else {
				assert.NoFileExists(t, src)
			}
		})
	}
}

// erroringFactory accepts every URL and fails to connect.
type erroringFactory struct{}

func (erroringFactory) Accept(*url.URL) bool { return true }
func (erroringFactory) Name() string { return "erroring" }
func (erroringFactory) Create(*url.URL) (ListingSource, error) {
	return nil, errors.New("connection refused")
}

func TestGetFailsWhenToolUnavailable(t *testing.T) {
	env := newTestEnv(t)
	env.app.factories = []ListingSourceFactory{erroringFactory{}}

	_, err := env.execute("get", "/data/events")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 1, exitCode(err))
	assert.Empty(t, env.runner.calls)
}

func TestHadoopFlagOverridesClient(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.execute("get", "--no-convert", "--hadoop", "hdfs dfs", "/data/x")

	require.NoError(t, err)
	assert.Equal(t, [][]string{{"hdfs", "dfs", "-get", "/data/x"}}, env.runner.argv())
}

func TestPutWithoutHome(t *testing.T) {
	t.Setenv("HOME", "")
	env := newTestEnv(t)
	src := filepath.Join(env.work, "a.txt")
	writeFile(t, src, "a")
	cmd := newRootCmd(env.app)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"put", "--config", env.config, src, "/in"})

	err := cmd.ExecuteContext(context.Background())

	require.NoError(t, err, out.String())
	assert.Equal(t, [][]string{
		{"hadoop", "fs", "-rm", "/in/a.txt"},
		{"hadoop", "fs", "-put", src, "/in/"},
	}, env.runner.argv())
}

func TestGetNeedsCacheDirOnlyToConvert(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.execute("get", "--cache-dir", "", "/data/x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cache_dir")
	assert.Equal(t, 1, exitCode(err))
	assert.Empty(t, env.runner.calls)

	_, err = env.execute("get", "--cache-dir", "", "--no-convert", "/data/x")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"hadoop", "fs", "-get", "/data/x"}}, env.runner.argv())
}
