package gcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GetEnv is a helper to read an environment variable or return a default value.
func GetEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

// GetEnvInt reads an integer environment variable, falling back when it is
// unset or not a number.
func GetEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		slog.Warn("Ignoring non-numeric environment variable.", "key", key, "value", value)
		return fallback
	}
	return n
}

// RetryPolicy bounds Retry: Attempts tries with a delay doubling from Backoff.
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration
}

// DefaultUploadRetry is used for object uploads.
var DefaultUploadRetry = RetryPolicy{Attempts: 4, Backoff: time.Second}

// Retry calls fn until it succeeds, the attempts run out or ctx is done.
func Retry(ctx context.Context, policy RetryPolicy, name string, fn func(ctx context.Context) error) error {
	backoff := policy.Backoff
	var lastErr error
	for i := 0; i < policy.Attempts; i++ {
		err := fn(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		if i == policy.Attempts-1 {
			break
		}
		slog.Warn(
			"Operation failed, will retry.",
			"operation", name,
			"attempt", i+1,
			"maxRetries", policy.Attempts,
			"backoff", backoff.String(),
			"error", err,
		)
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			slog.Error("Context cancelled during backoff. Aborting retries.", "operation", name, "error", ctx.Err())
			return ctx.Err()
		}
	}
	slog.Error("Operation failed after all retries.", "operation", name, "error", lastErr)
	return fmt.Errorf("%s failed after all retries: %w", name, lastErr)
}

// DownloadObject streams gs://bucket/object into destPath.
func DownloadObject(ctx context.Context, client *storage.Client, bucket, object, destPath string) error {
	reader, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("failed to get GCS object reader for gs://%s/%s: %w", bucket, object, err)
	}
	defer reader.Close()

	localFile, err := os.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create temp file at %s: %w", destPath, err)
	}
	if _, err := io.Copy(localFile, reader); err != nil {
		localFile.Close()
		return fmt.Errorf("failed to copy GCS object to local file: %w", err)
	}
	if err := localFile.Close(); err != nil {
		return fmt.Errorf("failed to close local file %s: %w", destPath, err)
	}
	return nil
}

// UploadFile copies a local file to an object, retrying with exponential backoff.
func UploadFile(ctx context.Context, bucket *storage.BucketHandle, localPath, destObject, contentType string) error {
	return Retry(ctx, DefaultUploadRetry, "upload "+destObject, func(ctx context.Context) error {
		localFile, err := os.Open(localPath)
		if err != nil {
			return fmt.Errorf("could not open local file %s: %w", localPath, err)
		}
		defer localFile.Close()

		writeCtx, cancel := context.WithTimeout(ctx, 50*time.Second)
		defer cancel()

		writer := bucket.Object(destObject).NewWriter(writeCtx)
		writer.ContentType = contentType
		if _, err := io.Copy(writer, localFile); err != nil {
			_ = writer.Close()
			return fmt.Errorf("io.Copy to GCS failed: %w", err)
		}
		if err := writer.Close(); err != nil {
			return fmt.Errorf("failed to close GCS writer (finalize upload): %w", err)
		}
		return nil
	})
}

// SaveToGCSAtomically writes content to an object only if it does not exist yet.
// An existing object is not an error.
func SaveToGCSAtomically(ctx context.Context, bucket *storage.BucketHandle, objectName, contentType string, content io.Reader) error {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	writer.ContentType = contentType

	if _, err := io.Copy(writer, content); err != nil {
		_ = writer.Close()
		if IsPreconditionFailed(err) {
			slog.Info("Object already exists. Skipping.", "gcsObject", objectName)
			return nil
		}
		return fmt.Errorf("failed to write to GCS: %w", err)
	}
	if err := writer.Close(); err != nil {
		if IsPreconditionFailed(err) {
			slog.Info("Object already exists. Skipping.", "gcsObject", objectName)
			return nil
		}
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

// IsPreconditionFailed reports whether err is a GCS 412 response.
func IsPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
