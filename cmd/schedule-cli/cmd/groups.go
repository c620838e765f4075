package cmd

import (
	"schedule-backend/cmd/schedule-cli/utils"
	"schedule-backend/internal/schedule"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(groupsCmd)
}

var groupsCmd = &cobra.Command{
	Use:   "groups <file.xlsx>",
	Short: "Lists the groups of a spreadsheet and how many records each has.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		records := readRecords(args[0])

		counts := map[string]int{}
		for _, r := range records {
			counts[r.Group]++
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"Group", "Records"})
		for _, g := range schedule.Groups(records) {
			t.AppendRow(table.Row{g, counts[g]})
		}
		t.Render()
	},
}

