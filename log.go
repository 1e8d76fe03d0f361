package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const (
	logFormatFlag = "logformat"
	logLevelFlag  = "loglevel"
	logOutputFlag = "logoutput"
)

func registerLoggingFlags(flags *pflag.FlagSet) {
	enumVar(flags, logFormatFlag, []string{"text", "json"}, "log output format")
	enumVar(flags, logLevelFlag, []string{"info", "debug", "warn", "error"}, "logging level")
	enumVar(flags, logOutputFlag, []string{"stderr", "stdout"}, "log output destination")
}

// newLogger builds the logger described by the logging flags of cmd.
func newLogger(cmd *cobra.Command) (*slog.Logger, error) {
	flags := cmd.Flags()

	levelName, err := enumValue(flags, logLevelFlag)
	if err != nil {
		return nil, err
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(levelName)); err != nil {
		return nil, fmt.Errorf("invalid log level: %s", levelName)
	}

	output, err := enumValue(flags, logOutputFlag)
	if err != nil {
		return nil, err
	}
	var w io.Writer
	switch output {
	case "stdout":
		w = cmd.OutOrStdout()
	default:
		w = cmd.ErrOrStderr()
	}

	format, err := enumValue(flags, logFormatFlag)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	switch format {
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	}
	return nil, fmt.Errorf("invalid log format: %s", format)
}
