package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newSkillsCmd creates the skills command group.
func (a *App) newSkillsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skills",
		Short: "Inspect the skill library",
	}
	cmd.AddCommand(a.newSkillsListCmd())
	return cmd
}

// newSkillsListCmd creates the skills list command.
func (a *App) newSkillsListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List committed skills",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			store, closeStore, err := openSkillStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore()

			skills, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list skills: %w", err)
			}

			if len(skills) == 0 {
				fmt.Fprintln(a.stdout, "No skills committed")
				return nil
			}
			for _, s := range skills {
				fmt.Fprintf(a.stdout, "%s\t(used %d times)\t%s\n", s.Name, s.SuccessCount, s.Description)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file")

	return cmd
}
