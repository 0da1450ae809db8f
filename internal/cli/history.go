package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ogulcanaydogan/pool-watch/pkg/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent poll cycles and notifications",
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntP("limit", "n", 20, "Number of rows to show")
	historyCmd.Flags().String("address", "", "Show notifications for one pool address")
	historyCmd.Flags().String("chain", "", "Filter notifications by chain id")
	historyCmd.Flags().Bool("notifications", false, "List notifications instead of cycles")
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	address, _ := cmd.Flags().GetString("address")
	chain, _ := cmd.Flags().GetString("chain")
	showNotifications, _ := cmd.Flags().GetBool("notifications")

	history, err := openHistory(cfg.Storage.HistoryPath)
	if err != nil {
		return err
	}
	defer history.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	if showNotifications || address != "" || chain != "" {
		items, err := history.QueryNotifications(cmd.Context(), storage.NotificationFilter{
			Address: address,
			ChainID: chain,
			Limit:   limit,
		})
		if err != nil {
			return fmt.Errorf("query notifications: %w", err)
		}
		fmt.Fprintf(w, "  NOTIFIED\tADDRESS\tCHAIN\tEXCHANGE\tAPR\tVOLUME\tREASON\n")
		for _, n := range items {
			fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%.2f\t%.2f\t%s\n",
				n.NotifiedAt.Format("2006-01-02 15:04"),
				n.Address, n.ChainID, n.Exchange,
				n.APR, n.Volume, n.Reason,
			)
		}
		return w.Flush()
	}

	cycles, err := history.ListCycles(cmd.Context(), limit)
	if err != nil {
		return fmt.Errorf("list cycles: %w", err)
	}
	fmt.Fprintf(w, "  STARTED\tRESULT\tFETCHED\tMATCHED\tNOTIFIED\tTOOK\tERROR\n")
	for _, c := range cycles {
		fmt.Fprintf(w, "  %s\t%s\t%d\t%d\t%d\t%dms\t%s\n",
			c.StartedAt.Format("2006-01-02 15:04:05"),
			c.Result, c.Fetched, c.Matched, c.Notified, c.TookMS, c.Error,
		)
	}
	return w.Flush()
}
