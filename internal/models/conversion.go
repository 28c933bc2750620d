package models

import "time"

// Conversion statuses stored on a ConversionRecord.
const (
	StatusConverting = "CONVERTING"
	StatusConverted  = "CONVERTED"
	StatusFailed     = "FAILED"
)

// ConversionRecord is the Firestore record of one bucket-triggered conversion.
type ConversionRecord struct {
	FileHash         string    `firestore:"fileHash,omitempty"`
	OriginalFilename string    `firestore:"originalFilename,omitempty"`
	SourceBucket     string    `firestore:"sourceBucket,omitempty"`
	OutputObject     string    `firestore:"outputObject,omitempty"`
	Status           string    `firestore:"status,omitempty"`
	ErrorDetails     string    `firestore:"errorDetails,omitempty"`
	PageCount        int       `firestore:"pageCount,omitempty"`
	LinkCount        int       `firestore:"linkCount"`
	CreatedAt        time.Time `firestore:"createdAt,omitempty"`
}

// GCSEvent is the payload of a Cloud Storage object finalize event.
type GCSEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
}
