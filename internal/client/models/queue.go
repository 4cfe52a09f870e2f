package models

// UploadStatus is the state of one upload queue entry.
type UploadStatus string

const (
	UploadPending   UploadStatus = "pending"
	UploadUploading UploadStatus = "uploading"
	UploadSuccess   UploadStatus = "success"
	UploadError     UploadStatus = "error"
)

// QueueEntry is a read-only snapshot of a transient upload queue entry.
type QueueEntry struct {
	ID       string
	Name     string
	Size     int64
	MimeType string
	Status   UploadStatus
	// Progress is 0–100.
	Progress int
	// Err is set when Status is UploadError.
	Err error
	// Document is set when Status is UploadSuccess.
	Document *Document
}
