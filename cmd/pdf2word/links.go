package main

import (
	"encoding/json"
	"fmt"

	"github.com/Lllllllleong/pdfwordconverter/internal/links"
	"github.com/spf13/cobra"
)

var linksCmd = &cobra.Command{
	Use:   "links [pdfs...]",
	Short: "Print the hyperlinks of PDF files",
	Long: `Links prints the deduplicated hyperlinks of each PDF in the order they
appear: link annotations first on every page, then URLs in the page text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")
		extractor := links.NewExtractor()

		all := map[string][]string{}
		for _, path := range args {
			found, err := extractor.Extract(cmd.Context(), path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if asJSON {
				all[path] = found
				continue
			}
			if len(args) > 1 {
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n", path)
			}
			for _, link := range found {
				fmt.Fprintln(cmd.OutOrStdout(), link)
			}
		}

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(all)
		}
		return nil
	},
}

func init() {
	linksCmd.Flags().Bool("json", false, "output links as JSON keyed by file")

	rootCmd.AddCommand(linksCmd)
}
