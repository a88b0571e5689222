// Package course extracts structured course records from free-text audit
// item lines. Input lines come from uncontrolled HTML exports, so extraction
// uses a primary pattern plus an ordered fallback cascade; lines that match
// nothing are dropped silently rather than reported as errors.
package course

import (
	"regexp"
	"strings"

	"github.com/auditgrid/auditgrid/internal/schema"
)

// Marker prefixes for informational (non-course) item lines. A section's
// items mix taken-course lines with these synthesized need/alternative rows.
const (
	NeedsMarker     = "NEEDS:"
	AvailableMarker = "Available:"
)

// Line patterns, tried in order. All capture (code, title, term, grade?):
//
//	primary:  "DSC 30 - DataStrc/Algrthms for Data Sc (SP25, NR)"
//	flexible: code may have any spacing between letters and digits
//	compact:  code has no space at all, e.g. "DSC30 - ... (SP25)"
//
// The fallbacks run unconditionally; the upstream export is inconsistent
// enough that restricting them to a diagnostic mode loses real courses.
var linePatterns = []*regexp.Regexp{
	regexp.MustCompile(`^([A-Z]{2,5}\s+\d+[A-Z]*)\s*-\s*(.+?)\s*\(([^,)]+)(?:,\s*([^)]+))?\)$`),
	regexp.MustCompile(`^([A-Z]+\s*\d+[A-Z]*)\s*-\s*(.+?)\s*\(([^,)]+)(?:,\s*([^)]+))?\)$`),
	regexp.MustCompile(`^([A-Z]+\d+[A-Z]*)\s*-\s*(.+?)\s*\(([^,)]+)(?:,\s*([^)]+))?\)$`),
}

// IsMarker reports whether line is an informational row rather than a
// taken course: a NEEDS/Available marker or generic requirement-header text.
func IsMarker(line string) bool {
	return strings.Contains(line, NeedsMarker) ||
		strings.Contains(line, AvailableMarker) ||
		strings.Contains(line, "Requirement")
}

// Extract parses one audit item line into a course record. The second
// return value is false for marker lines and lines matching no pattern.
func Extract(line string) (schema.ParsedCourseItem, bool) {
	if line == "" || IsMarker(line) {
		return schema.ParsedCourseItem{}, false
	}

	for _, pattern := range linePatterns {
		m := pattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		return schema.ParsedCourseItem{
			CourseID:   strings.TrimSpace(m[1]),
			CourseName: strings.TrimSpace(m[2]),
			Term:       strings.TrimSpace(m[3]),
			Grade:      strings.TrimSpace(m[4]),
			Credits:    schema.DefaultCredits,
		}, true
	}
	return schema.ParsedCourseItem{}, false
}

// GradeInProgress reports whether a grade denotes work not yet completed:
// empty, NR (not reported), WIP, or anything mentioning wip/progress.
func GradeInProgress(grade string) bool {
	g := strings.ToLower(strings.TrimSpace(grade))
	if g == "" || g == "nr" || g == "wip" {
		return true
	}
	return strings.Contains(g, "wip") || strings.Contains(g, "progress")
}

// IsCompleted reports whether an item line represents a finished, graded
// course. Marker lines and unparseable lines are never completed.
func IsCompleted(line string) bool {
	item, ok := Extract(line)
	if !ok {
		return false
	}
	return !GradeInProgress(item.Grade)
}
