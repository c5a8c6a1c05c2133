package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/praxis-agent/praxis/infrastructure/config"
)

// newValidateCmd creates the validate command.
func (a *App) newValidateCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a configuration file",
		Long: `Validate a configuration file without running anything. Sandbox
profile values above the hard ceilings are reported at their clamped
effective values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.NewLoader().LoadFile(configPath)
			if err != nil {
				return err
			}

			fmt.Fprintf(a.stdout, "Configuration valid\n")
			fmt.Fprintf(a.stdout, "  Max iterations: %d\n", cfg.Session.MaxIterations)
			fmt.Fprintf(a.stdout, "  Max retries per step: %d\n", cfg.Session.MaxRetriesPerStep)
			fmt.Fprintf(a.stdout, "  Approval timeout: %s\n", cfg.Session.ApprovalTimeout)
			fmt.Fprintf(a.stdout, "  Suspicion threshold: %.2f\n", cfg.Guard.SuspicionThreshold)
			fmt.Fprintf(a.stdout, "  Skill backend: %s\n", cfg.Skills.Backend)
			fmt.Fprintf(a.stdout, "  Sandbox memory: %d bytes\n", cfg.Sandbox.Profile.MemoryBytes)
			fmt.Fprintf(a.stdout, "  Sandbox wall clock: %s\n", cfg.Sandbox.Profile.WallClock)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}
