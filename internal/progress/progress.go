// Package progress aggregates requirement sections into summary metadata
// and completion figures.
package progress

import (
	"math"

	"github.com/auditgrid/auditgrid/internal/schema"
)

// Counts holds the per-status section tallies of an audit.
type Counts struct {
	Total        int
	Fulfilled    int
	InProgress   int
	NotFulfilled int
}

// StatusCounts tallies sections by fulfillment status. Unknown-status
// sections count toward the total only.
func StatusCounts(sections []schema.RequirementSection) Counts {
	c := Counts{Total: len(sections)}
	for _, sec := range sections {
		switch sec.Status {
		case schema.StatusFulfilled:
			c.Fulfilled++
		case schema.StatusInProgress:
			c.InProgress++
		case schema.StatusNotFulfilled:
			c.NotFulfilled++
		}
	}
	return c
}

// CompletionPercentage is the share of fulfilled sections, rounded to the
// nearest whole percent. An audit with no sections is 0% complete.
func CompletionPercentage(sections []schema.RequirementSection) int {
	c := StatusCounts(sections)
	if c.Total == 0 {
		return 0
	}
	return int(math.Round(float64(c.Fulfilled) / float64(c.Total) * 100))
}

// BuildMetadata assembles the section tallies into audit metadata. Caller
// fills in the document-derived fields (student name, units, timestamp).
func BuildMetadata(sections []schema.RequirementSection) schema.AuditMetadata {
	c := StatusCounts(sections)
	return schema.AuditMetadata{
		TotalSections:        c.Total,
		FulfilledSections:    c.Fulfilled,
		InProgressSections:   c.InProgress,
		NotFulfilledSections: c.NotFulfilled,
	}
}
