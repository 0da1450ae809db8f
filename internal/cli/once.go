package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single poll cycle and exit",
	RunE:  runOnce,
}

func init() {
	rootCmd.AddCommand(onceCmd)
}

func runOnce(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := initApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.runner.RunOnce(cmd.Context())
	if err != nil {
		return fmt.Errorf("poll cycle: %w", err)
	}

	fmt.Printf("Cycle %s:\n", res.Outcome)
	fmt.Printf("  Fetched:  %d\n", res.Fetched)
	fmt.Printf("  Matched:  %d\n", res.Matched)
	fmt.Printf("  Notified: %d\n", res.Notified)
	fmt.Printf("  Took:     %s\n", res.Took)
	return nil
}
