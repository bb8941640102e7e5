package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or edit the download history",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List downloaded files, most recent first",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		records := eng.History.List()
		if len(records) == 0 {
			fmt.Println("No downloads yet")
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "#\tTIME\tTITLE\tFILE")
		for i, r := range records {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", i, r.DisplayTime(), truncate(r.Title, 40), r.ResultPath)
		}
		return w.Flush()
	},
}

var historyRemoveCmd = &cobra.Command{
	Use:   "remove [index]",
	Short: "Remove one entry from the history (the file is kept)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		index, err := strconv.Atoi(args[0])
		if err != nil || index < 0 {
			return fmt.Errorf("index must be a non-negative integer")
		}

		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		record, err := eng.History.RemoveAt(index)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %s\n", record.Title)
		return nil
	},
}

var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every entry from the history (files are kept)",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := openEngine()
		if err != nil {
			return err
		}
		defer eng.Close()

		fmt.Printf("Removed %d entries\n", eng.History.Clear())
		return nil
	},
}

func init() {
	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyRemoveCmd)
	historyCmd.AddCommand(historyClearCmd)
}
