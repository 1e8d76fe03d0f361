package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// AvroTools converts Avro container files to line-delimited JSON with an
// avro-tools jar.
type AvroTools struct {
	Tool   ToolRef
	Java   string
	Runner Runner
	Out    io.Writer
}

func (a *AvroTools) command(file string) Command {
	java := a.Java
	if java == "" {
		java = "java"
	}
	return Command{Name: java, Args: []string{"-jar", a.Tool.Path, "tojson", file}}
}

// ConvertToJSON writes file's records to a sibling .json file and returns
// its path. On failure the tool output is echoed and ok is false.
func (a *AvroTools) ConvertToJSON(ctx context.Context, file string) (string, bool) {
	cmd := a.command(file)
	fmt.Fprintln(a.Out, cmd.String())

	res := a.Runner.Run(ctx, cmd)
	if !res.OK() {
		res.Echo(a.Out)
		return "", false
	}

	jsonFile := siblingWithExt(file, ".json")
	if err := os.WriteFile(jsonFile, res.Stdout, 0644); err != nil {
		slog.Error("failed to write converted file", "path", jsonFile, "error", err)
		return "", false
	}
	return jsonFile, true
}

func (a *AvroTools) Convert(ctx context.Context, src string) (string, bool) {
	return a.ConvertToJSON(ctx, src)
}
