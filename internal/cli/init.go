package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bagakit/bagakit-feat-task-harness/internal/config"
	"github.com/bagakit/bagakit-feat-task-harness/internal/core/types"
	"github.com/bagakit/bagakit-feat-task-harness/internal/ssot"
)

// InitializeHarnessCmd implements initialize-harness: writes a default
// config.json and an empty feats index, grounded on the teacher's InitCmd
// pattern of printing each step as it completes.
func InitializeHarnessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "initialize-harness",
		Short: "Initialize the feat/task harness in the current repo",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newServices(rootFlag(cmd))

			defaults := types.DefaultConfig()
			if err := config.Save(svc.paths.ConfigFile(), &defaults); err != nil {
				return fmt.Errorf("failed to write config: %w", err)
			}
			fmt.Printf("✓ wrote %s\n", svc.paths.ConfigFile())

			if _, err := ssot.Mutate(svc.paths.IndexFile(), true, func(idx *types.Index) error {
				if idx.Version == 0 {
					idx.Version = 1
				}
				return nil
			}); err != nil {
				return fmt.Errorf("failed to initialize index: %w", err)
			}
			fmt.Printf("✓ wrote %s\n", svc.paths.IndexFile())

			fmt.Println()
			fmt.Println("Next steps:")
			fmt.Println("  ft-harness create-feat --title \"My first feat\"")
			return nil
		},
	}
	addCommonFlags(cmd)
	return cmd
}
