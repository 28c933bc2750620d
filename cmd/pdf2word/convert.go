package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Lllllllleong/pdfwordconverter/internal/links"
	"github.com/Lllllllleong/pdfwordconverter/internal/services"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var convertCmd = &cobra.Command{
	Use:   "convert [pdfs...]",
	Short: "Convert PDF files to Word",
	Long: `Convert turns each PDF into a .docx named after it and appends a link list
page when the PDF contains hyperlinks. One input produces <name>.docx in the
output directory; several produce converted_docs.zip.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		outDir := viper.GetString("out")
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("failed to create output dir: %w", err)
		}

		converter := services.NewConverter(services.TextLayoutConverter{}, services.ConverterConfig{
			LinkHeading: viper.GetString("link-heading"),
		})
		packager := services.NewPackager(converter, links.NewExtractor(), services.PackagerConfig{})

		sources := make([]services.Source, len(args))
		for i, arg := range args {
			sources[i] = services.ByPath(arg)
		}
		bundle, err := packager.ConvertBatch(cmd.Context(), sources)
		if err != nil {
			return err
		}
		defer os.RemoveAll(bundle.Dir)

		dst := filepath.Join(outDir, bundle.Name())
		if err := services.CopyFile(bundle.Path, dst); err != nil {
			return err
		}
		for _, res := range bundle.Results {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %d pages, %d links\n", res.SourceName, res.PageCount, len(res.Links))
		}
		fmt.Fprintln(cmd.OutOrStdout(), dst)
		return nil
	},
}

func init() {
	convertCmd.Flags().StringP("out", "o", ".", "directory to write the .docx or zip into")
	convertCmd.Flags().String("link-heading", services.DefaultLinkHeading, "heading of the appended link list page")
	_ = viper.BindPFlag("out", convertCmd.Flags().Lookup("out"))
	_ = viper.BindPFlag("link-heading", convertCmd.Flags().Lookup("link-heading"))

	rootCmd.AddCommand(convertCmd)
}
