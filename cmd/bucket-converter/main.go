package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"
	"github.com/Lllllllleong/pdfwordconverter/internal/models"
	"github.com/Lllllllleong/pdfwordconverter/internal/services"
	cloudevents "github.com/cloudevents/sdk-go/v2"
)

var (
	converterInstance *services.BucketConverterFunction
	once              sync.Once
	initErr           error
)

func init() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	functions.CloudEvent("ConvertUploadedPDF", convertUploadedPDF)
}

// main is required by the Go Functions Framework.
func main() {}

func convertUploadedPDF(ctx context.Context, e cloudevents.Event) error {
	once.Do(func() {
		converterInstance, initErr = services.NewBucketConverter(context.Background())
	})
	if initErr != nil {
		slog.Error("Critical error during function initialization", "error", initErr)
		return initErr
	}

	var gcsEvent models.GCSEvent
	if err := json.Unmarshal(e.Data(), &gcsEvent); err != nil {
		slog.Error("Failed to unmarshal event data", "error", err, "data", string(e.Data()))
		return fmt.Errorf("json.Unmarshal: %w", err)
	}

	// Process logs its own failures with context.
	return converterInstance.Process(ctx, gcsEvent)
}
