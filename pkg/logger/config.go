package logger

import (
	"io"
	"log/slog"
)

type Backend string

const (
	BackendStd Backend = "std" // slog text handler
	BackendZap Backend = "zap" // JSON through slog-zap
)

type Config struct {
	Service    string
	Version    string
	InstanceID string

	Level   slog.Level
	Env     Env
	Backend Backend // default: std for dev, zap otherwise
	Debug   bool

	// Output defaults to os.Stderr so that CLI output on stdout stays clean.
	Output io.Writer

	// zap sampling, per second
	SampleInitial    int
	SampleThereafter int

	AddSource bool
}
