package opts

import (
	"github.com/walteh/kifdiff/pkg/config"
	"github.com/walteh/kifdiff/pkg/log"
)

// RootOpts contains shared options used by all commands
type RootOpts struct {
	Config *config.Config
	Logger *log.Logger

	// Execution flags shared by apply.
	DryRun      bool
	Interactive bool
	NoBackup    bool
	Verbose     bool
	Async       bool
}
