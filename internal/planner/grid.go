// Package planner models the four-year, three-term schedule grid and the
// operations that mutate it: seeding from a parsed audit, drag-and-drop
// moves with displacement, and slot removal. All operations are pure in the
// sense that they take and return grids; callers own synchronization.
package planner

import "github.com/auditgrid/auditgrid/internal/schema"

// Slots per term in a freshly created grid. Terms grow past this when
// placement or displacement needs more room.
const initialTermSlots = 3

// minTermSlots is the floor below which trimming never shrinks a term.
const minTermSlots = 3

// TermSlots is one term's ordered course slots. A nil entry is an empty
// slot a course can be dropped into.
type TermSlots []*schema.PlannerCourse

// Year holds the three academic terms of one plan year.
type Year struct {
	Fall   TermSlots `json:"fall"`
	Winter TermSlots `json:"winter"`
	Spring TermSlots `json:"spring"`
}

// Grid is the full plan: PlanYears years of three terms each.
type Grid []Year

// NewGrid returns an empty plan with initialTermSlots open slots per term.
func NewGrid() Grid {
	g := make(Grid, schema.PlanYears)
	for y := range g {
		g[y] = Year{
			Fall:   make(TermSlots, initialTermSlots),
			Winter: make(TermSlots, initialTermSlots),
			Spring: make(TermSlots, initialTermSlots),
		}
	}
	return g
}

// Term returns the slot slice for a coordinate, or nil when the year index
// is outside the plan.
func (g Grid) Term(year int, q schema.Quarter) TermSlots {
	if year < 0 || year >= len(g) {
		return nil
	}
	switch q {
	case schema.QuarterFall:
		return g[year].Fall
	case schema.QuarterWinter:
		return g[year].Winter
	case schema.QuarterSpring:
		return g[year].Spring
	}
	return nil
}

// setTerm replaces the slot slice at a coordinate.
func (g Grid) setTerm(year int, q schema.Quarter, slots TermSlots) {
	if year < 0 || year >= len(g) {
		return
	}
	switch q {
	case schema.QuarterFall:
		g[year].Fall = slots
	case schema.QuarterWinter:
		g[year].Winter = slots
	case schema.QuarterSpring:
		g[year].Spring = slots
	}
}

// Clone deep-copies the grid structure. Courses themselves are shared;
// slot layout is not.
func (g Grid) Clone() Grid {
	out := make(Grid, len(g))
	for y := range g {
		out[y] = Year{
			Fall:   append(TermSlots(nil), g[y].Fall...),
			Winter: append(TermSlots(nil), g[y].Winter...),
			Spring: append(TermSlots(nil), g[y].Spring...),
		}
	}
	return out
}

// CourseIDs collects the ids of every placed course.
func (g Grid) CourseIDs() map[string]bool {
	ids := make(map[string]bool)
	for y := range g {
		for _, q := range schema.Quarters {
			for _, c := range g.Term(y, q) {
				if c != nil {
					ids[c.CourseID] = true
				}
			}
		}
	}
	return ids
}

// TermUnits sums the credits of the courses placed in one term.
func (g Grid) TermUnits(year int, q schema.Quarter) float64 {
	var units float64
	for _, c := range g.Term(year, q) {
		if c != nil {
			units += c.Credits
		}
	}
	return units
}

// emptyCount reports how many open slots a term has.
func emptyCount(slots TermSlots) int {
	n := 0
	for _, c := range slots {
		if c == nil {
			n++
		}
	}
	return n
}

// firstEmpty returns the index of the first open slot, or -1.
func firstEmpty(slots TermSlots) int {
	for i, c := range slots {
		if c == nil {
			return i
		}
	}
	return -1
}

// ensureEmptySlot appends an open slot to the term when it has none, so
// every term stays a valid drop target.
func (g Grid) ensureEmptySlot(year int, q schema.Quarter) {
	slots := g.Term(year, q)
	if slots == nil {
		return
	}
	if emptyCount(slots) == 0 {
		g.setTerm(year, q, append(slots, nil))
	}
}

// EnsureEmptySlots restores the open-slot invariant across the whole grid.
func (g Grid) EnsureEmptySlots() {
	for y := range g {
		for _, q := range schema.Quarters {
			g.ensureEmptySlot(y, q)
		}
	}
}
