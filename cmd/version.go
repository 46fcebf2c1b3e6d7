package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/stencil/internal/version"
)

func newVersionCommand() *cobra.Command {
	var format string
	var short bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display the version, commit, build time, Go version and platform of
the stencil binary.

Examples:
  stencil version
  stencil version --short
  stencil version --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			switch format {
			case "json":
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(version.GetBuildInfo())
			case "text":
				if short {
					_, err := fmt.Fprintln(out, version.GetShortVersion())
					return err
				}
				_, err := fmt.Fprintln(out, version.GetBuildInfo().String())
				return err
			default:
				return fmt.Errorf("unsupported format: %s (supported: text, json)", format)
			}
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format (text, json)")
	cmd.Flags().BoolVar(&short, "short", false, "Show short version only")
	return cmd
}
