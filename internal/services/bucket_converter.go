package services

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/pdfwordconverter/internal/gcp"
	"github.com/Lllllllleong/pdfwordconverter/internal/links"
	"github.com/Lllllllleong/pdfwordconverter/internal/models"
)

const docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

type BucketConverterConfig struct {
	ProjectID      string
	OutputBucket   string
	CollectionName string
	LinkHeading    string
}

// BucketConverterFunction converts PDFs dropped into a bucket and records
// each conversion in Firestore.
type BucketConverterFunction struct {
	storageClient   *storage.Client
	firestoreClient *firestore.Client
	packager        *Packager
	config          BucketConverterConfig
}

func NewBucketConverter(ctx context.Context) (*BucketConverterFunction, error) {
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}

	config := BucketConverterConfig{
		ProjectID:      projectID,
		OutputBucket:   gcp.GetEnv("OUTPUT_BUCKET", ""),
		CollectionName: gcp.GetEnv("FIRESTORE_COLLECTION", "conversions"),
		LinkHeading:    gcp.GetEnv("LINK_HEADING", DefaultLinkHeading),
	}
	if config.OutputBucket == "" {
		return nil, fmt.Errorf("OUTPUT_BUCKET environment variable must be set")
	}

	firestoreClient, err := gcp.NewFirestoreClient(ctx, config.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}

	f := &BucketConverterFunction{
		firestoreClient: firestoreClient,
		storageClient:   storageClient,
		packager: NewPackager(
			NewConverter(TextLayoutConverter{}, ConverterConfig{LinkHeading: config.LinkHeading}),
			links.NewExtractor(),
			PackagerConfig{},
		),
		config: config,
	}
	slog.Info("Bucket converter initialized.", "outputBucket", config.OutputBucket)
	return f, nil
}

func (f *BucketConverterFunction) Process(ctx context.Context, e models.GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	if !IsPDFObject(e.Name) {
		logCtx.Info("Object is not a PDF. Skipping.")
		return nil
	}
	logCtx.Info("Processing new GCS object.")

	tempDir, err := os.MkdirTemp("", "bucket-converter-*")
	if err != nil {
		return fmt.Errorf("failed to create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	sourcePath := filepath.Join(tempDir, path.Base(e.Name))
	if err := gcp.DownloadObject(ctx, f.storageClient, e.Bucket, e.Name, sourcePath); err != nil {
		logCtx.Error("Failed to download source PDF", "error", err)
		return err
	}

	fileHash, err := calculateFileHash(sourcePath)
	if err != nil {
		logCtx.Error("Failed to calculate file hash", "error", err)
		return fmt.Errorf("failed to calculate file hash: %w", err)
	}
	logCtx = logCtx.With("fileHash", fileHash)

	snaps, err := gcp.FindByField(ctx, f.firestoreClient, f.config.CollectionName, "fileHash", fileHash)
	if err != nil {
		logCtx.Error("Failed to check for duplicate", "error", err)
		return err
	}
	duplicateID, retryID := resolveExisting(existingRecords(snaps))
	if duplicateID != "" {
		logCtx.Info("Duplicate file detected. Skipping.", "existingDocId", duplicateID)
		return nil
	}

	var docRef *firestore.DocumentRef
	if retryID != "" {
		docRef, err = f.restartRecord(ctx, retryID)
		logCtx.Info("Retrying previously failed conversion.", "existingDocId", retryID)
	} else {
		docRef, err = f.createInitialRecord(ctx, fileHash, e)
	}
	if err != nil {
		logCtx.Error("Failed to prepare Firestore record", "error", err)
		return err
	}
	logCtx = logCtx.With("documentId", docRef.ID)

	res, err := f.packager.ConvertOne(ctx, ByPath(sourcePath), tempDir)
	if err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to convert PDF", err)
	}

	outputObject := OutputObjectName(e.Name)
	if err := gcp.UploadFile(ctx, f.storageClient.Bucket(f.config.OutputBucket), res.Path, outputObject, docxContentType); err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to upload converted document", err)
	}

	if err := f.saveLinks(ctx, e.Name, res.Links); err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to save link list", err)
	}

	updates := []firestore.Update{
		{Path: "status", Value: models.StatusConverted},
		{Path: "outputObject", Value: outputObject},
		{Path: "pageCount", Value: res.PageCount},
		{Path: "linkCount", Value: len(res.Links)},
	}
	if _, err := docRef.Update(ctx, updates); err != nil {
		return f.handleError(ctx, logCtx, docRef, "failed to update status to CONVERTED", err)
	}
	logCtx.Info("Conversion complete.", "outputObject", outputObject, "linkCount", len(res.Links))
	return nil
}

func (f *BucketConverterFunction) createInitialRecord(ctx context.Context, fileHash string, e models.GCSEvent) (*firestore.DocumentRef, error) {
	record := models.ConversionRecord{
		FileHash:         fileHash,
		OriginalFilename: e.Name,
		SourceBucket:     e.Bucket,
		Status:           models.StatusConverting,
		CreatedAt:        time.Now(),
	}
	docRef, _, err := f.firestoreClient.Collection(f.config.CollectionName).Add(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("failed to create conversion record: %w", err)
	}
	return docRef, nil
}

// restartRecord puts a FAILED record back into CONVERTING.
func (f *BucketConverterFunction) restartRecord(ctx context.Context, id string) (*firestore.DocumentRef, error) {
	docRef := f.firestoreClient.Collection(f.config.CollectionName).Doc(id)
	updates := []firestore.Update{
		{Path: "status", Value: models.StatusConverting},
		{Path: "errorDetails", Value: firestore.Delete},
	}
	if _, err := docRef.Update(ctx, updates); err != nil {
		return nil, fmt.Errorf("failed to restart conversion record: %w", err)
	}
	return docRef, nil
}

// existingRecord is the part of a stored ConversionRecord that decides whether
// a redelivered file is converted again.
type existingRecord struct {
	ID     string
	Status string
}

func existingRecords(snaps []*firestore.DocumentSnapshot) []existingRecord {
	out := make([]existingRecord, 0, len(snaps))
	for _, snap := range snaps {
		status, _ := snap.Data()["status"].(string)
		out = append(out, existingRecord{ID: snap.Ref.ID, Status: status})
	}
	return out
}

// resolveExisting picks what to do with a file whose hash is already recorded.
// A CONVERTING or CONVERTED record makes it a duplicate. Otherwise the first
// FAILED record is reused for a retry. Both IDs are empty for a new file.
func resolveExisting(records []existingRecord) (duplicateID, retryID string) {
	for _, r := range records {
		if r.Status == models.StatusConverting || r.Status == models.StatusConverted {
			return r.ID, ""
		}
	}
	for _, r := range records {
		if r.Status == models.StatusFailed {
			return "", r.ID
		}
	}
	return "", ""
}

func (f *BucketConverterFunction) handleError(ctx context.Context, logCtx *slog.Logger, docRef *firestore.DocumentRef, message string, originalErr error) error {
	logCtx.Error(message, "error", originalErr)
	updates := []firestore.Update{
		{Path: "status", Value: models.StatusFailed},
		{Path: "errorDetails", Value: fmt.Sprintf("%s: %v", message, originalErr)},
	}
	if _, err := docRef.Update(ctx, updates); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s: %w", message, originalErr)
}

// saveLinks stores the link list next to the document. Redelivered events
// find the object already written and leave it alone.
func (f *BucketConverterFunction) saveLinks(ctx context.Context, name string, found []string) error {
	if found == nil {
		found = []string{}
	}
	payload, err := json.Marshal(found)
	if err != nil {
		return fmt.Errorf("failed to marshal link list: %w", err)
	}
	return gcp.SaveToGCSAtomically(ctx, f.storageClient.Bucket(f.config.OutputBucket), LinksObjectName(name), "application/json", bytes.NewReader(payload))
}

// IsPDFObject reports whether an object name looks like a PDF upload.
func IsPDFObject(name string) bool {
	return !strings.HasSuffix(name, "/") && strings.EqualFold(path.Ext(name), ".pdf")
}

// OutputObjectName keeps the object's folder and swaps the extension for .docx.
func OutputObjectName(name string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ".docx"
}

// LinksObjectName names the JSON link list stored beside the converted document.
func LinksObjectName(name string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ".links.json"
}

func calculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
