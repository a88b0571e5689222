package planner

import "github.com/auditgrid/auditgrid/internal/schema"

// statusPriority orders statuses for duplicate resolution: a completed
// record beats a current one, which beats a planned one.
var statusPriority = map[schema.CourseStatus]int{
	schema.CourseCompleted: 3,
	schema.CourseCurrent:   2,
	schema.CoursePlanned:   1,
}

// Place seeds audit courses into a copy of the grid. Duplicate course ids
// in the input collapse to the highest-priority record (ties keep the
// first seen), ids already on the grid are skipped, and each course lands
// in the first empty slot of its term, expanding the term when full. Every
// touched term keeps at least one open slot.
func Place(g Grid, courses []schema.PlannerCourse) Grid {
	out := g.Clone()
	placed := out.CourseIDs()

	best := make(map[string]schema.PlannerCourse)
	var order []string
	for _, c := range courses {
		cur, ok := best[c.CourseID]
		if !ok {
			best[c.CourseID] = c
			order = append(order, c.CourseID)
			continue
		}
		if statusPriority[c.Status] > statusPriority[cur.Status] {
			best[c.CourseID] = c
		}
	}

	for _, id := range order {
		if placed[id] {
			continue
		}
		placed[id] = true

		c := best[id]
		if c.YearIndex < 0 || c.YearIndex >= len(out) {
			continue
		}
		slots := out.Term(c.YearIndex, c.Quarter)
		if slots == nil {
			continue
		}

		cc := c
		if i := firstEmpty(slots); i >= 0 {
			slots[i] = &cc
		} else {
			out.setTerm(c.YearIndex, c.Quarter, append(slots, &cc))
		}
		out.ensureEmptySlot(c.YearIndex, c.Quarter)
	}

	return out
}
