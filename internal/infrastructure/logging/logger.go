package logging

import (
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
)

// Options configure the process logger
type Options struct {
	Level  string
	Output io.Writer
	JSON   bool
}

// New creates the root "shop" logger. Logs go to stderr so command output
// on stdout stays clean; level "off" discards everything.
func New(opts Options) hclog.Logger {
	level := hclog.LevelFromString(opts.Level)
	if level == hclog.NoLevel {
		level = hclog.Warn
	}

	output := opts.Output
	if output == nil {
		output = os.Stderr
	}
	if level == hclog.Off {
		output = io.Discard
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:       "shop",
		Level:      level,
		Output:     output,
		JSONFormat: opts.JSON,
	})
}

// Component returns a named sub-logger, e.g. shop.dispatch
func Component(root hclog.Logger, name string) hclog.Logger {
	if root == nil {
		return hclog.NewNullLogger()
	}
	return root.Named(name)
}
