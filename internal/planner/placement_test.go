package planner

import (
	"reflect"
	"testing"

	"github.com/auditgrid/auditgrid/internal/schema"
)

func plannerCourse(id string, year int, q schema.Quarter, status schema.CourseStatus) schema.PlannerCourse {
	return schema.PlannerCourse{
		ParsedCourseItem: schema.ParsedCourseItem{
			CourseID: id,
			Credits:  schema.DefaultCredits,
		},
		TermCoordinate: schema.TermCoordinate{YearIndex: year, Quarter: q},
		Status:         status,
	}
}

func TestNewGrid(t *testing.T) {
	g := NewGrid()
	if len(g) != schema.PlanYears {
		t.Fatalf("years = %d, want %d", len(g), schema.PlanYears)
	}
	for y := range g {
		for _, q := range schema.Quarters {
			slots := g.Term(y, q)
			if len(slots) != initialTermSlots {
				t.Errorf("year %d %s: %d slots, want %d", y, q, len(slots), initialTermSlots)
			}
			if emptyCount(slots) != initialTermSlots {
				t.Errorf("year %d %s: not all slots empty", y, q)
			}
		}
	}
}

func TestFromSections(t *testing.T) {
	sections := []schema.RequirementSection{
		{
			Title:  "Lower Division Core",
			Status: schema.StatusFulfilled,
			Items: []string{
				"DSC 10 - Principles of Data Sci (FA24, A)",
				"DSC 30 - Data Structures Java (WI25, NR)",
				"EAP 100 - Study Abroad Seminar (S325, A)",
				"NEEDS: 2 Courses",
			},
		},
		{
			Title:  "THE FOLLOWING COURSES are in progress",
			Status: schema.StatusNotFulfilled,
			Items: []string{
				"CCE 2 - Community Engagement (FA25, B)",
			},
		},
	}

	courses := FromSections(sections)
	if len(courses) != 3 {
		t.Fatalf("got %d courses, want 3: %+v", len(courses), courses)
	}

	byID := make(map[string]schema.PlannerCourse)
	for _, c := range courses {
		byID[c.CourseID] = c
	}

	if _, ok := byID["EAP 100"]; ok {
		t.Error("summer course EAP 100 should be excluded")
	}

	dsc10 := byID["DSC 10"]
	if dsc10.Status != schema.CourseCompleted {
		t.Errorf("DSC 10 status = %q, want completed", dsc10.Status)
	}
	if dsc10.YearIndex != 0 || dsc10.Quarter != schema.QuarterFall {
		t.Errorf("DSC 10 placed at year %d %s", dsc10.YearIndex, dsc10.Quarter)
	}

	dsc30 := byID["DSC 30"]
	if dsc30.Status != schema.CourseCurrent {
		t.Errorf("DSC 30 status = %q, want current for NR grade", dsc30.Status)
	}

	// A graded course inside the work-in-progress section is still current.
	cce2 := byID["CCE 2"]
	if cce2.Status != schema.CourseCurrent {
		t.Errorf("CCE 2 status = %q, want current", cce2.Status)
	}
	if cce2.YearIndex != 1 || cce2.Quarter != schema.QuarterFall {
		t.Errorf("CCE 2 placed at year %d %s, want year 1 fall", cce2.YearIndex, cce2.Quarter)
	}
}

func TestFromSectionsSectionStatusFallback(t *testing.T) {
	sections := []schema.RequirementSection{
		{
			Title:  "Electives",
			Status: schema.StatusInProgress,
			Items:  []string{"DSC 80 - Practice of Data Science (WI25)"},
		},
		{
			Title:  "Core Courses",
			Status: schema.StatusNotFulfilled,
			Items:  []string{"DSC 40A - Theoretical Foundations (SP25)"},
		},
	}
	courses := FromSections(sections)
	if len(courses) != 2 {
		t.Fatalf("got %d courses, want 2", len(courses))
	}
	if courses[0].Status != schema.CourseCurrent {
		t.Errorf("ungraded course in in-progress section = %q, want current", courses[0].Status)
	}
	if courses[1].Status != schema.CoursePlanned {
		t.Errorf("ungraded course in unfulfilled section = %q, want planned", courses[1].Status)
	}
}

func TestPlaceDedupesByPriority(t *testing.T) {
	courses := []schema.PlannerCourse{
		plannerCourse("DSC 30", 0, schema.QuarterWinter, schema.CourseCurrent),
		plannerCourse("DSC 30", 0, schema.QuarterSpring, schema.CourseCompleted),
		plannerCourse("DSC 10", 0, schema.QuarterFall, schema.CoursePlanned),
		plannerCourse("DSC 10", 1, schema.QuarterFall, schema.CoursePlanned),
	}

	g := Place(NewGrid(), courses)

	spring := g.Term(0, schema.QuarterSpring)
	if spring[0] == nil || spring[0].CourseID != "DSC 30" {
		t.Errorf("completed record should win: spring slot 0 = %+v", spring[0])
	}
	if winter := g.Term(0, schema.QuarterWinter); winter[0] != nil {
		t.Errorf("losing duplicate still placed: %+v", winter[0])
	}

	// Equal priority keeps the first record seen.
	fall0 := g.Term(0, schema.QuarterFall)
	if fall0[0] == nil || fall0[0].CourseID != "DSC 10" {
		t.Errorf("first-seen tie should win: fall year 0 slot 0 = %+v", fall0[0])
	}
	if fall1 := g.Term(1, schema.QuarterFall); fall1[0] != nil {
		t.Errorf("tie loser still placed: %+v", fall1[0])
	}
}

func TestPlaceSkipsExistingGridCourses(t *testing.T) {
	g := NewGrid()
	existing := plannerCourse("DSC 10", 0, schema.QuarterFall, schema.CourseCompleted)
	g.Term(0, schema.QuarterFall)[0] = &existing

	out := Place(g, []schema.PlannerCourse{
		plannerCourse("DSC 10", 2, schema.QuarterWinter, schema.CourseCompleted),
	})

	if c := out.Term(2, schema.QuarterWinter)[0]; c != nil {
		t.Errorf("already-placed course duplicated: %+v", c)
	}
	if c := out.Term(0, schema.QuarterFall)[0]; c == nil || c.CourseID != "DSC 10" {
		t.Error("existing placement lost")
	}
}

func TestPlaceExpandsFullTermAndKeepsEmptySlot(t *testing.T) {
	courses := []schema.PlannerCourse{
		plannerCourse("DSC 10", 0, schema.QuarterFall, schema.CourseCompleted),
		plannerCourse("DSC 20", 0, schema.QuarterFall, schema.CourseCompleted),
		plannerCourse("DSC 30", 0, schema.QuarterFall, schema.CourseCompleted),
		plannerCourse("DSC 40A", 0, schema.QuarterFall, schema.CourseCompleted),
	}

	g := Place(NewGrid(), courses)
	fall := g.Term(0, schema.QuarterFall)
	if len(fall) != 5 {
		t.Fatalf("fall slots = %d, want 5 (4 courses + 1 empty)", len(fall))
	}
	if emptyCount(fall) != 1 {
		t.Errorf("empty slots = %d, want 1", emptyCount(fall))
	}
	if fall[4] != nil {
		t.Error("trailing slot should stay empty")
	}
}

func TestPlaceIsIdempotent(t *testing.T) {
	courses := []schema.PlannerCourse{
		plannerCourse("DSC 10", 0, schema.QuarterFall, schema.CourseCompleted),
		plannerCourse("DSC 20", 0, schema.QuarterWinter, schema.CourseCurrent),
		plannerCourse("DSC 30", 1, schema.QuarterSpring, schema.CoursePlanned),
	}

	once := Place(NewGrid(), courses)
	twice := Place(once, courses)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("placing the same courses again changed the grid:\nonce:  %+v\ntwice: %+v", once, twice)
	}
}

func TestPlaceIgnoresOutOfRangeYear(t *testing.T) {
	g := Place(NewGrid(), []schema.PlannerCourse{
		plannerCourse("DSC 10", 7, schema.QuarterFall, schema.CoursePlanned),
	})
	if len(g.CourseIDs()) != 0 {
		t.Errorf("out-of-range course placed: %v", g.CourseIDs())
	}
}

func TestPlaceDoesNotMutateInput(t *testing.T) {
	g := NewGrid()
	Place(g, []schema.PlannerCourse{
		plannerCourse("DSC 10", 0, schema.QuarterFall, schema.CoursePlanned),
	})
	if g.Term(0, schema.QuarterFall)[0] != nil {
		t.Error("input grid mutated")
	}
}

func TestTermUnits(t *testing.T) {
	g := NewGrid()
	a := plannerCourse("DSC 10", 0, schema.QuarterFall, schema.CourseCompleted)
	b := plannerCourse("MATH 18", 0, schema.QuarterFall, schema.CourseCompleted)
	b.Credits = 5
	g.Term(0, schema.QuarterFall)[0] = &a
	g.Term(0, schema.QuarterFall)[1] = &b

	if units := g.TermUnits(0, schema.QuarterFall); units != 9 {
		t.Errorf("TermUnits = %v, want 9", units)
	}
	if units := g.TermUnits(0, schema.QuarterWinter); units != 0 {
		t.Errorf("empty term units = %v, want 0", units)
	}
}
