package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/reactor/internal/config"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool           `json:"valid"`
	Path   string         `json:"path,omitempty"`
	Error  string         `json:"error,omitempty"`
	Config *config.Config `json:"config,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate [config-file]",
		Short: "Validate a config file and print the effective settings",
		Long: `Validate a reactor config file (.yaml, .toml or .cue) and print the
settings that result from defaults, the file and environment overrides.

Without an argument the file named by --config is validated; without
either, the defaults are.

Exit codes:
  0 - The configuration is valid
  1 - The configuration is invalid`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			path := rootOpts.Config
			if len(args) == 1 {
				path = args[0]
			}
			return runValidate(rootOpts, path, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	w := cmd.OutOrStdout()
	verbosef(cmd, opts, "validating %q", path)

	cfg, err := config.Load(path)
	if err != nil {
		if opts.Format == "json" {
			if jsonErr := writeJSON(w, ValidationResult{Path: path, Error: err.Error()}, &CLIError{
				Code:    "E_INVALID_CONFIG",
				Message: err.Error(),
			}); jsonErr != nil {
				return jsonErr
			}
		} else {
			fmt.Fprintf(w, "✗ %s\n  %v\n", displayPath(path), err)
		}
		return WrapExitError(ExitFailure, "invalid config", err)
	}

	if opts.Format == "json" {
		return writeJSON(w, ValidationResult{Valid: true, Path: path, Config: &cfg}, nil)
	}

	fmt.Fprintf(w, "✓ %s\n", displayPath(path))
	fmt.Fprintf(w, "  channel.capacity:        %d\n", cfg.Channel.Capacity)
	fmt.Fprintf(w, "  log.level:               %s\n", cfg.Log.Level)
	fmt.Fprintf(w, "  log.format:              %s\n", cfg.Log.Format)
	fmt.Fprintf(w, "  journal.path:            %s\n", cfg.Journal.Path)
	fmt.Fprintf(w, "  counter.auto_save_every: %d\n", cfg.Counter.AutoSaveEvery)
	return nil
}

func displayPath(path string) string {
	if path == "" {
		return "(defaults)"
	}
	return path
}
