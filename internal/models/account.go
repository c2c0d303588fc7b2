package models

import "errors"

// ErrNotFound is returned by stores when an account or transaction does not exist.
var ErrNotFound = errors.New("not found")

// Account is one tracked ledger. URL points at the remote tracker the ledger can be synced from.
type Account struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	URL          string        `json:"url,omitempty"`
	Transactions []Transaction `json:"transactions,omitempty"`
}

// BackupData is the document written by backups and read back on restore.
type BackupData struct {
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
	Data      struct {
		Accounts []Account `json:"accounts"`
	} `json:"data"`
}

// JobKind identifies a background job carried on the jobs queue.
type JobKind string

const (
	JobImport JobKind = "import"
	JobSync   JobKind = "sync"
)

// Job is the queue message for work processed outside the request path.
type Job struct {
	Kind      JobKind `json:"kind"`
	AccountID string  `json:"account_id"`
	BlobName  string  `json:"blob_name,omitempty"`
}
