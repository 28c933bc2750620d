package models

// These structs define the JSON bodies exchanged between the browser form
// and the converter HTTP function.

// DownloadState tells the page whether the Download button is usable.
type DownloadState struct {
	Enabled      bool     `json:"enabled"`
	DownloadName string   `json:"downloadName,omitempty"`
	Uploads      []string `json:"uploads"`
}

// UploadResponse is returned after the upload set changes.
type UploadResponse struct {
	Status string        `json:"status"`
	Count  int           `json:"count"`
	State  DownloadState `json:"state"`
}

// ConvertResponse is the output of a convert request.
type ConvertResponse struct {
	Status       string `json:"status"`
	DownloadName string `json:"downloadName,omitempty"`
	Enabled      bool   `json:"enabled"`
	FileCount    int    `json:"fileCount,omitempty"`
	LinkCount    int    `json:"linkCount,omitempty"`
}

// ErrorResponse carries a user-facing error message.
type ErrorResponse struct {
	Status string `json:"status"`
	Error  string `json:"error"`
}
