package cmd

import (
	"fmt"

	"schedule-backend/cmd/schedule-cli/utils"
	"schedule-backend/internal/components/telemetry"
	"schedule-backend/internal/locator"

	"github.com/spf13/cobra"
)

var (
	fallbackUrl   string
	targetPhrase  string
	acceptAnyLink bool
)

func init() {
	locateCmd.Flags().StringVar(&fallbackUrl, "fallback", "", "Url to use when the page has no spreadsheet link.")
	locateCmd.Flags().StringVar(&targetPhrase, "phrase", "", "Also match links whose text contains this phrase.")
	locateCmd.Flags().BoolVar(&acceptAnyLink, "any", false, "Accept the first link when nothing else matches.")
	rootCmd.AddCommand(locateCmd)
}

func newLocator() locator.Locator {
	return locator.NewLocator(newEngine(), locator.Options{
		FallbackUrl:   fallbackUrl,
		TargetPhrase:  targetPhrase,
		AcceptAnyLink: acceptAnyLink,
	}, telemetry.SlogAPI{})
}

var locateCmd = &cobra.Command{
	Use:   "locate <page-url>",
	Short: "Prints the spreadsheet link found on a page.",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		loc, err := newLocator().Locate(cmd.Context(), args[0])
		if err != nil {
			utils.Exit(err)
		}
		if loc.Fallback {
			fmt.Printf("%s (fallback)\n", loc.Url)
			return
		}
		fmt.Println(loc.Url)
	},
}
