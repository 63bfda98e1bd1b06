package models

import "time"

// FileObject is server-side metadata for a blob held in object storage.
// The content itself never passes through the database.
type FileObject struct {
	ID          int64
	OwnerID     int64
	StorageKey  string
	FileName    string
	ContentType string
	Size        int64
	CreatedAt   time.Time
}
