package audit

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/net/html"

	"github.com/auditgrid/auditgrid/internal/progress"
	"github.com/auditgrid/auditgrid/internal/schema"
)

// Parse reads an HTML degree-audit export and produces the full audit
// result. The vendor classifier runs first; when the document lacks vendor
// markup the generic cascade takes over. An empty section list is a valid
// result and is reported with zeroed metadata, not an error.
func Parse(r io.Reader) (schema.AuditResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return schema.AuditResult{}, fmt.Errorf("audit: parse html: %w", err)
	}

	sections := ClassifyVendor(doc)
	if len(sections) == 0 {
		sections = Classify(doc)
	}

	meta := progress.BuildMetadata(sections)
	meta.StudentName = StudentName(doc)
	meta.UnitsCompleted = UnitsCompleted(doc)
	meta.ParseTimestamp = time.Now().UTC()

	return schema.AuditResult{Sections: sections, Metadata: meta}, nil
}
