package planner

import (
	"strings"

	"github.com/auditgrid/auditgrid/internal/course"
	"github.com/auditgrid/auditgrid/internal/schema"
	"github.com/auditgrid/auditgrid/internal/term"
)

// isInProgressSection recognizes the comprehensive work-in-progress section
// titles some audits emit. Every course under such a title is currently
// being taken regardless of its grade field.
func isInProgressSection(title string) bool {
	lower := strings.ToLower(title)
	return strings.HasPrefix(lower, "the following courses") ||
		lower == "in progress" ||
		strings.Contains(lower, "work in progress")
}

// FromSections converts requirement sections into placeable planner
// courses. Marker items, unparseable rows, and courses whose term token
// does not resolve (summer sessions, out-of-horizon years) are dropped.
func FromSections(sections []schema.RequirementSection) []schema.PlannerCourse {
	var out []schema.PlannerCourse

	for _, sec := range sections {
		inProgress := isInProgressSection(sec.Title)
		for _, item := range sec.Items {
			parsed, ok := course.Extract(item)
			if !ok {
				continue
			}
			coord, ok := term.Resolve(parsed.Term)
			if !ok {
				continue
			}
			out = append(out, schema.PlannerCourse{
				ParsedCourseItem: parsed,
				TermCoordinate:   coord,
				Status:           courseStatus(parsed, sec.Status, inProgress),
			})
		}
	}
	return out
}

// courseStatus derives a course's planner status. The grade field wins when
// present; otherwise the section's fulfillment status decides.
func courseStatus(parsed schema.ParsedCourseItem, secStatus schema.FulfillmentStatus, inProgressSection bool) schema.CourseStatus {
	if inProgressSection {
		return schema.CourseCurrent
	}
	if strings.TrimSpace(parsed.Grade) != "" {
		if course.GradeInProgress(parsed.Grade) {
			return schema.CourseCurrent
		}
		return schema.CourseCompleted
	}
	switch secStatus {
	case schema.StatusInProgress:
		return schema.CourseCurrent
	case schema.StatusFulfilled:
		return schema.CourseCompleted
	}
	return schema.CoursePlanned
}
