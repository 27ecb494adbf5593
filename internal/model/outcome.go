package model

// Outcome is the per-file processing result.
type Outcome int

const (
	// UnknownOutcome is the zero value. A result left in this state is
	// counted as Failed.
	UnknownOutcome Outcome = iota

	// MetadataRemoved means at least one tag region was excised.
	MetadataRemoved

	// NoMetadataFound means the file was clean and left untouched.
	NoMetadataFound

	// Failed means the file could not be processed; the original is unchanged.
	Failed
)

// String returns a human-readable name for the outcome.
func (o Outcome) String() string {
	switch o {
	case MetadataRemoved:
		return "metadata removed"
	case NoMetadataFound:
		return "no metadata"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is everything known about one processed file.
type Result struct {
	File    AudioFile
	Outcome Outcome

	// Regions lists the tag regions that were (or, in a dry run, would be) removed.
	Regions []TagRegion

	// BytesRemoved is TotalLength(Regions).
	BytesRemoved int64

	// Description is a short summary of the removed tags, e.g. "ID3v2.4, 12 frames".
	Description string

	// DryRun is true when the file was analysed but not rewritten.
	DryRun bool

	// Err is set for Failed outcomes.
	Err error
}

// BatchStats counts outcomes over one batch.
//
// BatchStats has a single writer: the batch runner adds each result after the
// file is fully processed.
type BatchStats struct {
	Removed    int `json:"metadata_removed"`
	NoMetadata int `json:"no_metadata_found"`
	Failed     int `json:"failed_count"`
}

// Add records one outcome. Anything other than MetadataRemoved or
// NoMetadataFound counts as Failed.
func (s *BatchStats) Add(o Outcome) {
	switch o {
	case MetadataRemoved:
		s.Removed++
	case NoMetadataFound:
		s.NoMetadata++
	default:
		s.Failed++
	}
}

// Total returns the number of files that were classified.
func (s BatchStats) Total() int {
	return s.Removed + s.NoMetadata + s.Failed
}
