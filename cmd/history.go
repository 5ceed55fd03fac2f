package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"pairbench/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List past comparison runs, or show one run in detail",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := storage.NewStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if len(args) == 1 {
			item, err := store.Get(args[0])
			if err != nil {
				return err
			}
			printHistoryDetail(item)
			return nil
		}

		items := store.List()
		if len(items) == 0 {
			fmt.Println("No runs recorded yet.")
			return nil
		}
		for _, item := range items {
			fmt.Printf("%s  %s  %s  %s vs %s  query=%s  scenarios=%d\n",
				item.Timestamp.Format("2006-01-02 15:04:05"),
				item.ID, item.Target, item.BackendA, item.BackendB,
				item.QueryType, len(item.Scenarios))
		}
		return nil
	},
}

func printHistoryDetail(item *storage.HistoryItem) {
	fmt.Printf("Run      : %s\n", item.ID)
	fmt.Printf("Started  : %s\n", item.Timestamp.Format("2006-01-02 15:04:05"))
	fmt.Printf("Target   : %s\n", item.Target)
	fmt.Printf("Backends : %s vs %s\n", item.BackendA, item.BackendB)
	fmt.Printf("Query    : %s\n", item.QueryType)
	for _, s := range item.Scenarios {
		if s.Skipped {
			fmt.Printf("  %5d users  skipped\n", s.Users)
			continue
		}
		fmt.Printf("  %5d users  avg %8.2fms / %8.2fms  qps %8.1f / %8.1f  ok %5.1f%% / %5.1f%%\n",
			s.Users, s.AvgAMs, s.AvgBMs, s.QPSA, s.QPSB,
			s.SuccessRateA*100, s.SuccessRateB*100)
	}
}
