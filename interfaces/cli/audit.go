package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/praxis-agent/praxis/domain/ledger"
)

// newAuditCmd creates the audit command group.
func (a *App) newAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the audit ledger",
	}
	cmd.AddCommand(a.newAuditVerifyCmd())
	return cmd
}

// newAuditVerifyCmd creates the audit verify command.
func (a *App) newAuditVerifyCmd() *cobra.Command {
	var filePath string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify the hash chain of an audit log",
		Long: `Replay a JSONL audit log and recompute the hash chain. Any mutation,
removal, or reordering of records breaks the chain and fails verification.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(filePath)
			if err != nil {
				return fmt.Errorf("failed to open audit log: %w", err)
			}
			defer f.Close()

			records, err := ledger.ReadJSONL(f)
			if err != nil {
				return fmt.Errorf("failed to read audit log: %w", err)
			}

			head, err := ledger.VerifyRecords(records)
			if err != nil {
				return fmt.Errorf("audit log verification failed: %w", err)
			}

			fmt.Fprintf(a.stdout, "Verified %d records\n", len(records))
			fmt.Fprintf(a.stdout, "  Head digest: %s\n", head)
			return nil
		},
	}

	cmd.Flags().StringVarP(&filePath, "file", "f", "", "Path to the JSONL audit log (required)")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
