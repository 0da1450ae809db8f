package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var stateCmd = &cobra.Command{
	Use:   "state",
	Short: "Show pools that have been notified",
	Long:  `Print the persisted notification state with each pool's last notification time and volume.`,
	RunE:  runState,
}

func init() {
	rootCmd.AddCommand(stateCmd)
}

func runState(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := initState(cfg, newLogger(cfg))
	if err != nil {
		return err
	}

	snap := st.Snapshot()
	keys := make([]string, 0, len(snap))
	for k := range snap {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return snap[keys[i]].NotifiedAt.After(snap[keys[j]].NotifiedAt)
	})

	fmt.Printf("State file: %s (%d pools)\n", st.Path(), len(keys))
	if len(keys) == 0 {
		return nil
	}

	cooldown := cfg.Cooldown()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  ADDRESS\tNOTIFIED\tVOLUME\tCOOLDOWN LEFT\n")
	for _, k := range keys {
		rec := snap[k]
		left := "-"
		if cooldown > 0 {
			if rem := cooldown - time.Since(rec.NotifiedAt); rem > 0 {
				left = rem.Round(time.Minute).String()
			}
		}
		fmt.Fprintf(w, "  %s\t%s\t%.2f\t%s\n",
			k, rec.NotifiedAt.UTC().Format("2006-01-02 15:04"), rec.Volume, left)
	}
	return w.Flush()
}
