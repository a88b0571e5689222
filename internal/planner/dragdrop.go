package planner

import "github.com/auditgrid/auditgrid/internal/schema"

// DragPhase is the state of an in-flight drag interaction.
type DragPhase string

const (
	PhaseIdle       DragPhase = "idle"
	PhaseDragging   DragPhase = "dragging"
	PhasePreviewing DragPhase = "previewing"
)

// PreviewAction says what committing the current drop would do to the
// occupant of the target slot.
type PreviewAction string

const (
	ActionSwap     PreviewAction = "swap"
	ActionDisplace PreviewAction = "displace"
)

// SlotRef addresses one slot on the grid.
type SlotRef struct {
	YearIndex int            `json:"year_index"`
	Quarter   schema.Quarter `json:"quarter"`
	Slot      int            `json:"slot"`
}

// Preview describes the occupant movement a drop would cause.
type Preview struct {
	Action PreviewAction        `json:"action"`
	Source SlotRef              `json:"source"`
	Target SlotRef              `json:"target"`
	Course *schema.PlannerCourse `json:"course"`
}

// Drag tracks one drag interaction from pickup to drop. The zero value is
// an idle drag.
type Drag struct {
	Phase       DragPhase
	Course      *schema.PlannerCourse
	FromSidebar bool
	Source      SlotRef
	Target      SlotRef
	Invalid     bool
	Preview     *Preview
}

// Begin starts a drag. A sidebar pickup carries no source slot.
func (d *Drag) Begin(c *schema.PlannerCourse, fromSidebar bool, source SlotRef) {
	*d = Drag{
		Phase:       PhaseDragging,
		Course:      c,
		FromSidebar: fromSidebar,
		Source:      source,
	}
}

// Over updates the drag for a new hover target: it re-checks term
// availability and computes the displacement preview when the target slot
// is occupied. Hovering the same slot again is a no-op.
func (d *Drag) Over(g Grid, target SlotRef) {
	if d.Phase == PhaseIdle || d.Target == target {
		return
	}
	d.Target = target
	d.Preview = nil
	d.Phase = PhaseDragging

	d.Invalid = !offeredInTerm(d.Course, target.Quarter)

	occupant := slotAt(g, target)
	if occupant == nil || d.Invalid {
		return
	}

	if !d.FromSidebar {
		d.Preview = &Preview{
			Action: ActionSwap,
			Source: d.Source,
			Target: target,
			Course: occupant,
		}
		d.Phase = PhasePreviewing
		return
	}

	if dest, ok := findEmptySlot(g, target); ok {
		d.Preview = &Preview{
			Action: ActionDisplace,
			Source: target,
			Target: dest,
			Course: occupant,
		}
		d.Phase = PhasePreviewing
	}
}

// Drop commits the drag onto the target slot and returns the updated grid.
// The boolean reports whether the grid changed: drops into a term the
// course is not offered in, and same-slot drops, leave it untouched. The
// drag resets to idle either way.
func (d *Drag) Drop(g Grid, target SlotRef) (Grid, bool) {
	course := d.Course
	fromSidebar := d.FromSidebar
	source := d.Source
	d.End()

	if course == nil || !offeredInTerm(course, target.Quarter) {
		return g, false
	}
	if !fromSidebar && source == target {
		return g, false
	}

	out := g.Clone()
	occupant := slotAt(out, target)

	if !fromSidebar {
		setSlot(out, source, occupant)
	} else if occupant != nil {
		if dest, ok := findEmptySlot(out, target); ok {
			setSlot(out, dest, occupant)
			out.ensureEmptySlot(dest.YearIndex, dest.Quarter)
		}
	}

	setSlot(out, target, course)
	out.ensureEmptySlot(target.YearIndex, target.Quarter)
	return out, true
}

// End resets the drag to idle.
func (d *Drag) End() {
	*d = Drag{Phase: PhaseIdle}
}

// Remove clears a slot and trims the term back down: surplus empty slots
// go first from the end, but the term never drops below one open slot or
// minTermSlots total.
func Remove(g Grid, ref SlotRef) Grid {
	out := g.Clone()
	slots := out.Term(ref.YearIndex, ref.Quarter)
	if slots == nil || ref.Slot < 0 || ref.Slot >= len(slots) {
		return out
	}
	slots[ref.Slot] = nil

	for emptyCount(slots) > 1 && len(slots) > minTermSlots {
		i := lastEmpty(slots)
		slots = append(slots[:i], slots[i+1:]...)
	}
	out.setTerm(ref.YearIndex, ref.Quarter, slots)
	return out
}

// findEmptySlot locates where a displaced course should go: the same term
// first (skipping the contested slot), then the other terms of the same
// year, then every other year in order. Returns false when the whole grid
// is full.
func findEmptySlot(g Grid, skip SlotRef) (SlotRef, bool) {
	for i, c := range g.Term(skip.YearIndex, skip.Quarter) {
		if i != skip.Slot && c == nil {
			return SlotRef{skip.YearIndex, skip.Quarter, i}, true
		}
	}
	for _, q := range schema.Quarters {
		if q == skip.Quarter {
			continue
		}
		if i := firstEmpty(g.Term(skip.YearIndex, q)); i >= 0 {
			return SlotRef{skip.YearIndex, q, i}, true
		}
	}
	for y := range g {
		if y == skip.YearIndex {
			continue
		}
		for _, q := range schema.Quarters {
			if i := firstEmpty(g.Term(y, q)); i >= 0 {
				return SlotRef{y, q, i}, true
			}
		}
	}
	return SlotRef{}, false
}

// offeredInTerm reports whether the course can sit in the quarter. Courses
// without offering data are assumed offered everywhere.
func offeredInTerm(c *schema.PlannerCourse, q schema.Quarter) bool {
	if c == nil || len(c.OfferedIn) == 0 {
		return true
	}
	for _, o := range c.OfferedIn {
		if o == q {
			return true
		}
	}
	return false
}

func slotAt(g Grid, ref SlotRef) *schema.PlannerCourse {
	slots := g.Term(ref.YearIndex, ref.Quarter)
	if ref.Slot < 0 || ref.Slot >= len(slots) {
		return nil
	}
	return slots[ref.Slot]
}

func setSlot(g Grid, ref SlotRef, c *schema.PlannerCourse) {
	slots := g.Term(ref.YearIndex, ref.Quarter)
	if ref.Slot < 0 || ref.Slot >= len(slots) {
		return
	}
	slots[ref.Slot] = c
}

func lastEmpty(slots TermSlots) int {
	for i := len(slots) - 1; i >= 0; i-- {
		if slots[i] == nil {
			return i
		}
	}
	return -1
}
