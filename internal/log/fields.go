package log

// Canonical field name constants for structured logging.
const (
	FieldComponent = "component"
	FieldCommand   = "command"
	FieldFile      = "file"
	FieldDataset   = "dataset"
	FieldManifest  = "manifest"
)
