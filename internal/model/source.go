package model

// Source is one input unit of a batch: a file or pasted text.
// Err is set when the source could not be loaded; such sources are
// reported and skipped, never fatal to the batch.
type Source struct {
	Name string // Display name used for labeling and error reports
	Path string // Originating path, empty for pasted input
	Data []byte
	Err  error
}

// ExtractionPath records which strategy produced a document's rows
type ExtractionPath string

const (
	PathRemittance ExtractionPath = "remittance" // Remittance/Claim/Activity header map
	PathGeneric    ExtractionPath = "generic"    // Generic flattening fallback
)
