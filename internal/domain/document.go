package domain

import "strings"

// DocumentStatus values. Pending means awaiting approval; a document that
// only exists locally after a failed upload is tagged via SyncState instead
// of overloading this field.
const (
	DocStatusApproved = "approved"
	DocStatusDraft    = "draft"
	DocStatusPending  = "pending"
)

// LocalURLPrefix marks file URLs whose blob never reached the remote file
// store.
const LocalURLPrefix = "local://"

// Document is an entry in a unit's document repository.
type Document struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Date      string    `json:"date"` // display string, not a sortable timestamp
	Size      string    `json:"size"` // display string, e.g. "1.2 MB"
	Type      string    `json:"type"` // file-extension tag
	Status    string    `json:"status"`
	Category  string    `json:"category"`
	URL       string    `json:"url,omitempty"`
	SyncState SyncState `json:"syncState,omitempty"`
}

// Ref returns the lightweight metadata copy embedded into bookings.
func (d Document) Ref() DocumentRef {
	return DocumentRef{ID: d.ID, Name: d.Name, Type: d.Type}
}

// LocalOnlyBlob reports whether the document's file bytes exist only
// locally. Such a document cannot be re-pushed by sync; the metadata row
// would point at a URL the remote cannot serve.
func (d Document) LocalOnlyBlob() bool {
	return strings.HasPrefix(d.URL, LocalURLPrefix)
}
