package spewder

// Converter converts HTML to Markdown.
type Converter interface {
	// Convert transforms clean HTML, usually from an Extractor, into Markdown.
	Convert(html string) (string, error)
}
