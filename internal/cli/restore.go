package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sprite-ai/codemend/internal/patch"
)

var restoreCmd = &cobra.Command{
	Use:   "restore [path]",
	Short: "Roll back applied fixes from snapshots",
	Long: `Walk the given path (default: current directory) for snapshot files
left by "codemend fix" and restore each original. Snapshots are removed
after a successful restore.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRestore,
}

func init() {
	restoreCmd.Flags().Bool("list", false, "list snapshots without restoring")
	restoreCmd.Flags().Bool("cleanup", false, "delete snapshots without restoring")
}

func runRestore(cmd *cobra.Command, args []string) error {
	logger := newLogger(cmd)

	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	snapshots, err := patch.FindSnapshots(root)
	if err != nil {
		return fmt.Errorf("finding snapshots: %w", err)
	}
	if len(snapshots) == 0 {
		fmt.Println("No snapshots found.")
		return nil
	}

	if list, _ := cmd.Flags().GetBool("list"); list {
		for _, s := range snapshots {
			fmt.Printf("  %s (%d bytes, %s)\n", s.Original, s.Size, s.ModTime.Format("2006-01-02 15:04:05"))
		}
		return nil
	}

	if cleanup, _ := cmd.Flags().GetBool("cleanup"); cleanup {
		removed := 0
		for _, s := range snapshots {
			if err := os.Remove(s.SnapshotPath); err != nil {
				criticalColor.Printf("  ✗ %s: %v\n", s.SnapshotPath, err)
				continue
			}
			removed++
		}
		fmt.Printf("%d snapshot(s) removed\n", removed)
		return nil
	}

	restored, failed := patch.Restore(snapshots, true, logger)
	fmt.Printf("%d file(s) restored, %d failed\n", restored, failed)
	if failed > 0 {
		return fmt.Errorf("restore incomplete")
	}
	return nil
}
