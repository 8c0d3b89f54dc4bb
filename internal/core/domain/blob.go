package domain

import "time"

// FileBlob is one row per unique byte sequence, deduplicated by MD5.
// Blobs are globally scoped: identical content uploaded by different
// tenants shares a single payload.
type FileBlob struct {
	// ID is the unique identifier for the blob row.
	ID string

	// MD5 is the hex-encoded 128-bit content digest. It is the sole
	// lookup key for deduplication.
	MD5 string

	// SHA256 is the hex-encoded 256-bit digest, carried for integrity
	// verification only, never for lookup.
	SHA256 string

	// SizeBytes is the payload size. Always positive.
	SizeBytes int64

	// MimeType is the declared content type of the original upload.
	MimeType string

	// OriginalName is the filename of the first upload of this content.
	OriginalName string

	// StorageID is the opaque handle into the binary object store.
	StorageID string

	// RefCount is the number of documents referencing this blob.
	// Reaching zero makes the blob eligible for garbage collection;
	// deletion itself is a separate, explicit step.
	RefCount int

	// ReferencingDocs is the set of document IDs using this blob.
	// Maintained together with RefCount as a relaxed approximation.
	ReferencingDocs []string

	// CreatedAt is when the first unique upload created this row.
	CreatedAt time.Time

	// LastAccessedAt is updated on every reference.
	LastAccessedAt time.Time
}

// References reports whether docID is in the referencing set.
func (b *FileBlob) References(docID string) bool {
	for _, id := range b.ReferencingDocs {
		if id == docID {
			return true
		}
	}
	return false
}

// BlobMetadata describes the upload being deduplicated.
type BlobMetadata struct {
	// MimeType is the declared content type.
	MimeType string

	// OriginalName is the uploaded filename.
	OriginalName string
}

// BlobResult is the outcome of a get-or-create call.
type BlobResult struct {
	// BlobID is the identifier of the new or existing blob row.
	BlobID string

	// MD5 is the content digest of the payload.
	MD5 string

	// Deduplicated is true when an existing blob was reused and no
	// bytes were written to the object store.
	Deduplicated bool

	// SavedBytes is the payload size avoided by deduplication.
	// Zero on first upload.
	SavedBytes int64
}
