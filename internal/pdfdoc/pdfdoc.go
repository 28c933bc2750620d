// Package pdfdoc holds the pdfcpu settings shared by every component that
// reads source PDFs.
package pdfdoc

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

func init() {
	// pdfcpu otherwise creates and reads a per-user config dir, which is not
	// safe across concurrent requests.
	api.DisableConfigDir()
}

// Configuration returns a pdfcpu configuration with relaxed validation, which
// accepts the small ISO 32000 deviations common in real-world PDFs.
func Configuration() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// Inspect validates the PDF at path and returns its page count.
func Inspect(path string) (int, error) {
	if err := api.ValidateFile(path, Configuration()); err != nil {
		return 0, fmt.Errorf("failed to validate PDF: %w", err)
	}
	pageCount, err := api.PageCountFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count: %w", err)
	}
	return pageCount, nil
}
