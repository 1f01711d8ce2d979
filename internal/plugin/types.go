package plugin

// ImportRecord is the result of one successful import: the media found in a
// post plus the attribution and display text wrapped around its mirrors.
type ImportRecord struct {
	// SourceURLs are the media URLs to mirror, in display order. An import
	// with no URLs never reaches the export stage.
	SourceURLs []string

	// Author and Source attribute the original work in export descriptions.
	Author string
	Source string

	// Video marks the media kind; exporters that only handle one kind skip
	// records of the other.
	Video bool

	// Header and Footer wrap this import's export links in the reply.
	Header string
	Footer string
}

// Useful reports whether the record can produce exports.
func (r *ImportRecord) Useful() bool {
	return r != nil && len(r.SourceURLs) > 0
}

// ExportRecord is the result of one successful export.
type ExportRecord struct {
	// Exporter is the name of the owning plugin. Required whenever the
	// export must be deletable on rollback.
	Exporter string

	// LinkDisplay is the markup fragment added to the reply.
	LinkDisplay string

	// DeleteToken is an opaque string the owning plugin's DeleteExport
	// accepts. Empty when the export cannot be undone.
	DeleteToken string
}

// Deletable reports whether rollback can act on this record.
func (r *ExportRecord) Deletable() bool {
	return r != nil && r.DeleteToken != "" && r.Exporter != ""
}

// ExportEntry groups the exports produced for one import.
type ExportEntry struct {
	Header  string
	Footer  string
	Exports []*ExportRecord
	Import  *ImportRecord
}

// ExportTable is the ordered per-post assembly of imports that produced at
// least one export. Built fresh per post, discarded after use.
type ExportTable []ExportEntry
