package main

import (
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/GoogleCloudPlatform/functions-framework-go/funcframework"
	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/pdfwordconverter/internal/gcp"
	"github.com/Lllllllleong/pdfwordconverter/internal/links"
	"github.com/Lllllllleong/pdfwordconverter/internal/services"
	"github.com/Lllllllleong/pdfwordconverter/internal/ui"
)

const functionName = "PDFToWord"

var (
	server *ui.Server
	once   sync.Once
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.HTTP(functionName, handlePDFToWord)
}

// main serves the function locally; deployed functions never call it.
func main() {
	if _, ok := os.LookupEnv("FUNCTION_TARGET"); !ok {
		os.Setenv("FUNCTION_TARGET", functionName)
	}
	port := gcp.GetEnv("PORT", "8080")
	slog.Info("Serving converter form.", "port", port)
	if err := funcframework.Start(port); err != nil {
		slog.Error("Server stopped.", "error", err)
		os.Exit(1)
	}
}

func handlePDFToWord(w http.ResponseWriter, r *http.Request) {
	once.Do(func() {
		server = newServer()
	})
	server.ServeHTTP(w, r)
}

func newServer() *ui.Server {
	converter := services.NewConverter(services.TextLayoutConverter{}, services.ConverterConfig{
		LinkHeading: gcp.GetEnv("LINK_HEADING", services.DefaultLinkHeading),
	})
	packager := services.NewPackager(converter, links.NewExtractor(), services.PackagerConfig{
		TempRoot: gcp.GetEnv("TEMP_ROOT", ""),
	})
	config := ui.Config{
		MaxUploadBytes: int64(gcp.GetEnvInt("MAX_UPLOAD_MB", 64)) << 20,
		TempRoot:       gcp.GetEnv("TEMP_ROOT", ""),
		SessionIdle:    time.Duration(gcp.GetEnvInt("SESSION_IDLE_MINUTES", 60)) * time.Minute,
	}
	slog.Info("Converter form initialized.", "maxUploadBytes", config.MaxUploadBytes, "sessionIdle", config.SessionIdle.String())
	return ui.NewServer(packager, config)
}
