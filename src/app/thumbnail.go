package app

// Sources a thumbnail can come from: a manual upload, or the Gemini flow.
const (
	SourceManual = "manual"
	SourceGemini = "gemini"
)

// Thumbnail represents a stored thumbnail joined with its public reference.
type Thumbnail struct {
	// The key (object name) of the thumbnail in the S3 bucket,
	// always prefixed with the owner's user id.
	Name string `json:"name"`

	// A presigned URL anyone can use to fetch the bytes.
	URL string `json:"url"`

	// Generated caption. Only set for Gemini-derived thumbnails.
	Caption string `json:"caption,omitempty"`

	// Either SourceManual or SourceGemini.
	Source string `json:"source"`

	// The user that owns the thumbnail.
	UserID string `json:"userId,omitempty"`
}

// FileEntry is a single item of a gallery listing.
type FileEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}
