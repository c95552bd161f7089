package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/plmtools/lookconf/pkg/settings"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version.
// This is typically called by the main package during initialization with
// values injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// rootOpts holds the persistent flags shared by all commands.
type rootOpts struct {
	verbose    bool
	configPath string

	settings settings.Settings
}

// Execute runs the lookconf CLI and returns an error if any command fails.
// Cancelling ctx stops long-running commands such as mock.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// Settings are loaded from --config (default: the per-user config file)
// before any command runs; a missing file falls back to defaults.
func Execute(ctx context.Context) error {
	opts := &rootOpts{}

	root := &cobra.Command{
		Use:          "lookconf",
		Short:        "lookconf resolves PLM-XML product configurations",
		Long:         `lookconf parses PLM-XML product structures with material look libraries, resolves them against PR-code configuration strings, and applies the result to a 3D authoring service.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := charmlog.InfoLevel
			if opts.verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)

			path := opts.configPath
			if path == "" {
				var err error
				if path, err = settings.DefaultPath(); err != nil {
					return err
				}
			}
			s, err := settings.Load(path)
			if err != nil {
				return err
			}
			opts.settings = s
			return nil
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("lookconf %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "settings file (default: user config dir)")

	root.AddCommand(newParseCmd(opts))
	root.AddCommand(newResolveCmd(opts))
	root.AddCommand(newApplyCmd(opts))
	root.AddCommand(newValidateCmd(opts))
	root.AddCommand(newGraphCmd(opts))
	root.AddCommand(newMockCmd())

	return root.ExecuteContext(ctx)
}
