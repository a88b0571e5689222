// Package schema defines all canonical data types shared across the audit
// parsing, planning, and export pipeline. External collaborators (catalog
// search, chat backend, spreadsheet export) adapt into these types at the
// edge; core packages never accept alternative field spellings.
package schema

import "time"

// FulfillmentStatus is the completion state of one requirement section.
type FulfillmentStatus string

const (
	StatusFulfilled    FulfillmentStatus = "fulfilled"
	StatusInProgress   FulfillmentStatus = "in_progress"
	StatusNotFulfilled FulfillmentStatus = "not_fulfilled"
	StatusUnknown      FulfillmentStatus = "unknown"
)

// CourseStatus is the planner-level state of a placed course.
type CourseStatus string

const (
	CourseCompleted CourseStatus = "completed"
	CourseCurrent   CourseStatus = "current"
	CoursePlanned   CourseStatus = "planned"
)

// Quarter is one of the three plannable terms in an academic year. Summer
// sessions are deliberately excluded from the planning grid.
type Quarter string

const (
	QuarterFall   Quarter = "fall"
	QuarterWinter Quarter = "winter"
	QuarterSpring Quarter = "spring"
)

// Quarters lists the plannable quarters in academic-year order.
var Quarters = []Quarter{QuarterFall, QuarterWinter, QuarterSpring}

// PlanYears is the number of academic years in the planning horizon.
const PlanYears = 4

// DefaultCredits is assigned when a source line carries no credit
// information. Audit item lines never do; this is a documented
// approximation, not a parsing defect.
const DefaultCredits = 4

// RequirementSection is one degree requirement group extracted from an
// audit document. Items hold the raw constituent lines (course lines plus
// NEEDS/Available marker lines) in document order.
type RequirementSection struct {
	Title  string            `json:"title"`
	Status FulfillmentStatus `json:"status"`
	Items  []string          `json:"items"`
}

// AuditMetadata is computed once from the final section list.
type AuditMetadata struct {
	TotalSections        int       `json:"totalSections"`
	FulfilledSections    int       `json:"fulfilledSections"`
	InProgressSections   int       `json:"inProgressSections"`
	NotFulfilledSections int       `json:"notFulfilledSections"`
	UnitsCompleted       float64   `json:"unitsCompleted"`
	StudentName          string    `json:"studentName,omitempty"`
	ParseTimestamp       time.Time `json:"parseTimestamp"`
	Error                string    `json:"error,omitempty"`
}

// AuditResult is the complete outcome of parsing one audit document.
// A result with zero sections is a valid (if unhelpful) outcome.
type AuditResult struct {
	Sections []RequirementSection `json:"sections"`
	Metadata AuditMetadata        `json:"metadata"`
}

// ParsedCourseItem is the structured form of one audit item line.
// Transient: it exists between extraction and placement.
type ParsedCourseItem struct {
	CourseID   string  `json:"course_id"`
	CourseName string  `json:"course_name"`
	Term       string  `json:"term"` // raw token, e.g. "FA24"
	Grade      string  `json:"grade"`
	Credits    float64 `json:"credits"`
}

// TermCoordinate locates a term within the planning grid.
type TermCoordinate struct {
	YearIndex int     `json:"yearIndex"` // 0..PlanYears-1
	Quarter   Quarter `json:"quarter"`
}

// PlannerCourse is a course ready for (or already in) a grid slot.
// OfferedIn is optional offering-term data from the catalog; empty means
// the course is assumed offered in every quarter.
type PlannerCourse struct {
	ParsedCourseItem
	TermCoordinate
	Status    CourseStatus `json:"status"`
	OfferedIn []Quarter    `json:"offeredIn,omitempty"`
}

// CatalogCourse is one record from the external course catalog.
type CatalogCourse struct {
	CourseID     string    `json:"course_id"`
	NormalizedID string    `json:"normalized_course_id"`
	CourseName   string    `json:"course_name"`
	Description  string    `json:"description,omitempty"`
	Credits      float64   `json:"credits"`
	OfferedIn    []Quarter `json:"offered_in,omitempty"`
}
