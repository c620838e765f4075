package cmd

import (
	"fmt"
	"os"

	"schedule-backend/cmd/schedule-cli/utils"
	"schedule-backend/internal/retrieval"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	outputPath string
	fromPage   bool
)

func init() {
	fetchCmd.Flags().StringVarP(&outputPath, "output", "o", "schedule.xlsx", "Where to write the spreadsheet.")
	fetchCmd.Flags().BoolVar(&fromPage, "page", false, "Treat the url as a page and download the spreadsheet it links to.")
	fetchCmd.Flags().StringVar(&fallbackUrl, "fallback", "", "With --page, the url to use when the page has no spreadsheet link.")
	fetchCmd.Flags().StringVar(&targetPhrase, "phrase", "", "With --page, also match links whose text contains this phrase.")
	rootCmd.AddCommand(fetchCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Downloads a spreadsheet with retries.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		req := retrieval.Request{Url: args[0], Kind: retrieval.KindDocument}
		if fromPage {
			loc, err := newLocator().Locate(cmd.Context(), args[0])
			if err != nil {
				utils.Exit(err)
			}
			req.Url = loc.Url
			req.Referer = args[0]
		}

		res, err := newEngine().Fetch(cmd.Context(), req)
		if err != nil {
			utils.Exit(err)
		}
		err = os.WriteFile(outputPath, res.Body, 0644)
		if err != nil {
			utils.Exit(err)
		}

		t := utils.NewTable()
		t.AppendRows([]table.Row{
			{"Url", req.Url},
			{"Attempts", res.Attempts},
			{"Content-Type", res.ContentType},
			{"Size", fmt.Sprintf("%d bytes", len(res.Body))},
			{"Written to", outputPath},
		})
		t.Render()
	},
}
