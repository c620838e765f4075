package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"schedule-backend/cmd/schedule-cli/utils"
	"schedule-backend/internal/normalizer"
	"schedule-backend/internal/schedule"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	groupMode     string
	missingMarker string
	group         string
	asJson        bool
)

func init() {
	for _, c := range []*cobra.Command{parseCmd, groupsCmd} {
		c.Flags().StringVar(&groupMode, "mode", string(normalizer.GroupFromHeader), "Where groups come from: header or pattern.")
		c.Flags().StringVar(&missingMarker, "marker", normalizer.DefaultMissingMarker, "Cells containing this text are skipped.")
	}
	parseCmd.Flags().StringVarP(&group, "group", "g", "", "Only print records of this group.")
	parseCmd.Flags().BoolVar(&asJson, "json", false, "Print records as json.")
	rootCmd.AddCommand(parseCmd)
}

func readRecords(path string) []normalizer.Record {
	data, err := os.ReadFile(path)
	if err != nil {
		utils.Exit(err)
	}
	records, err := normalizer.Parse(data, normalizer.Options{
		GroupMode:     normalizer.GroupMode(groupMode),
		MissingMarker: missingMarker,
	})
	if err != nil {
		utils.Exit(err)
	}
	return records
}

var parseCmd = &cobra.Command{
	Use:   "parse <file.xlsx>",
	Short: "Prints the schedule records of a spreadsheet.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		all := readRecords(args[0])
		records := schedule.FilterGroup(all, group)

		if asJson {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			err := encoder.Encode(records)
			if err != nil {
				utils.Exit(err)
			}
			return
		}

		if len(records) == 0 && group != "" {
			suggestions := schedule.SuggestGroups(schedule.Groups(all), group, schedule.DefaultSuggestionLimit)
			fmt.Fprintf(os.Stderr, "no records for group %q, did you mean: %v\n", group, suggestions)
			os.Exit(1)
		}

		t := utils.NewTable()
		t.AppendHeader(table.Row{"Week", "Day", "#", "Subject", "Group"})
		for _, r := range records {
			t.AppendRow(table.Row{r.Week, r.Day, r.Number, r.Subject, r.Group})
		}
		t.AppendFooter(table.Row{"", "", "", fmt.Sprintf("%d records", len(records)), ""})
		t.Render()
	},
}
