package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/bootsel/internal/config"
)

// InitResult reports the written config file.
type InitResult struct {
	Path string `json:"path"`
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: `Write a configuration file holding the default settings.

By default the file is created at $XDG_CONFIG_HOME/bootsel/config.yaml.
Use --config to choose another path.

Examples:
  bootsel init
  bootsel init --config ./bootsel.yaml
  bootsel init --force`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, force, cmd)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func runInit(opts *RootOptions, force bool, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	path, err := config.InitConfig(opts.Config, force)
	if errors.Is(err, config.ErrConfigExists) {
		_ = formatter.Error(ErrCodeBadInput, err.Error(), nil)
		return WrapExitError(ExitCommandError, "config file not written", err)
	}
	if err != nil {
		_ = formatter.Error(ErrCodeWriteFailed, err.Error(), nil)
		return WrapExitError(ExitCommandError, "config file not written", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(InitResult{Path: path})
	}
	fmt.Fprintf(formatter.Writer, "✓ Wrote configuration to %s\n", path)
	return nil
}
