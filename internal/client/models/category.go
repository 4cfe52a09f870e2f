package models

// Category is a fixed policy record for one bucket of deal documents.
type Category struct {
	Key         string
	Label       string
	Description string
	Required    bool
	MaxFiles    int
	// Accept lists the accepted MIME types; Extensions the accepted
	// lower-case filename extensions including the dot.
	Accept     []string
	Extensions []string
}
