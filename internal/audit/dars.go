package audit

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/auditgrid/auditgrid/internal/schema"
)

// Vendor audit exports (DARS / uAchieve) carry explicit structure: a
// .reqHeader banner anchors the major block, .requirement containers hold
// sections, and Status_OK / Status_NO / Status_IP classes carry fulfillment
// directly. When that structure is present it beats the generic cascade.

const majorAnchorText = "MAJOR REQUIREMENTS"

// degreeBannerRe matches program banner titles like "Data Science - B.S."
// which head the major block but are not themselves a requirement section.
var degreeBannerRe = regexp.MustCompile(`\s-\s*B\.?[SA]\.?\b`)

// ClassifyVendor walks the vendor requirement structure and returns the
// sections of the major block, or nil when the document does not carry the
// vendor markup.
func ClassifyVendor(doc *html.Node) []schema.RequirementSection {
	anchor := findFirst(doc, func(n *html.Node) bool {
		return hasClass(n, "reqHeader") &&
			strings.Contains(strings.ToUpper(text(n)), majorAnchorText)
	})
	if anchor == nil {
		return nil
	}
	first := closest(anchor, func(n *html.Node) bool { return hasClass(n, "requirement") })
	if first == nil {
		return nil
	}

	// The anchor block itself is the banner, not a section.
	var out []schema.RequirementSection
	for req := nextRequirement(first); req != nil; req = nextRequirement(req) {
		if sec, ok := vendorSection(req); ok {
			out = append(out, sec)
		}
	}
	return dedupeSections(out)
}

func nextRequirement(n *html.Node) *html.Node {
	for sib := nextElemSibling(n); sib != nil; sib = nextElemSibling(sib) {
		if hasClass(sib, "requirement") {
			return sib
		}
	}
	return nil
}

// vendorSection extracts a single .requirement container. The program
// banner and title-less containers yield no section. Items come from the
// container's .subrequirement blocks: completed-course rows from each, plus
// one needs line per not-fulfilled subrequirement.
func vendorSection(req *html.Node) (schema.RequirementSection, bool) {
	title := vendorTitle(req)
	if title == "" || degreeBannerRe.MatchString(title) {
		return schema.RequirementSection{}, false
	}
	wip := strings.Contains(strings.ToUpper(title), "WORK IN PROGRESS")

	status := requirementStatus(req)
	var items []string
	for _, sub := range findAll(req, func(n *html.Node) bool { return hasClass(n, "subrequirement") }) {
		items = append(items, subreqCourses(sub, wip)...)
		if subreqStatus(sub) == schema.StatusNotFulfilled {
			if needs := subreqNeeds(sub); needs != "" {
				items = append(items, needs)
			}
		}
	}
	if len(items) == 0 {
		return schema.RequirementSection{}, false
	}
	// A WORK IN PROGRESS block is in progress whatever its marker says.
	if wip {
		status = schema.StatusInProgress
	}

	return schema.RequirementSection{Title: title, Status: status, Items: items}, true
}

func vendorTitle(req *html.Node) string {
	el := findFirst(req, func(n *html.Node) bool { return hasClass(n, "reqTitle") })
	if el == nil {
		el = findFirst(req, func(n *html.Node) bool { return hasClass(n, "reqHeader") })
	}
	if el == nil {
		return ""
	}
	title := strings.TrimSpace(strings.NewReplacer(">>", "", "<<", "").Replace(text(el)))
	return title
}

// requirementStatus reads the explicit status class off the requirement
// header group. Absent or unrecognized markers report unknown.
func requirementStatus(req *html.Node) schema.FulfillmentStatus {
	if el := findFirst(req, func(n *html.Node) bool {
		return hasClass(n, "status") && insideClass(n, "reqStatusGroup")
	}); el != nil {
		if s, ok := statusFromMarker(el); ok {
			return s
		}
	}
	return schema.StatusUnknown
}

func subreqStatus(sub *html.Node) schema.FulfillmentStatus {
	if el := findFirst(sub, func(n *html.Node) bool { return hasClass(n, "status") }); el != nil {
		if s, ok := statusFromMarker(el); ok {
			return s
		}
	}
	return schema.StatusUnknown
}

func insideClass(n *html.Node, class string) bool {
	return closest(n, func(a *html.Node) bool { return hasClass(a, class) }) != nil
}

func statusFromMarker(el *html.Node) (schema.FulfillmentStatus, bool) {
	switch {
	case hasClass(el, "statusOK"), hasClass(el, "Status_OK"):
		return schema.StatusFulfilled, true
	case hasClass(el, "statusNO"), hasClass(el, "Status_NO"):
		return schema.StatusNotFulfilled, true
	case hasClass(el, "statusIP"), hasClass(el, "Status_IP"):
		return schema.StatusInProgress, true
	}
	return schema.StatusUnknown, false
}

// subreqCourses renders each completed-course row of one subrequirement as
// "CODE - DESC (TERM, GRADE)". Inside a WORK IN PROGRESS block, rows with
// an empty or NR grade render with a WIP placeholder.
func subreqCourses(sub *html.Node, wip bool) []string {
	var items []string
	for _, row := range findAll(sub, func(n *html.Node) bool {
		return hasClass(n, "takenCourse") && insideClass(n, "completedCourses")
	}) {
		code := childText(row, "course")
		desc := childText(row, "descLine")
		if desc == "" {
			if d := findFirst(row, func(n *html.Node) bool { return hasClass(n, "description") }); d != nil {
				desc = childText(d, "descLine")
			}
		}
		if code == "" {
			continue
		}
		term := childText(row, "term")
		grade := childText(row, "grade")
		if wip && (grade == "" || grade == "NR") {
			grade = "WIP"
		}
		items = append(items, fmt.Sprintf("%s - %s (%s, %s)", code, desc, term, grade))
	}
	return items
}

func childText(n *html.Node, class string) string {
	el := findFirst(n, func(c *html.Node) bool { return hasClass(c, class) })
	if el == nil {
		return ""
	}
	return trimmedText(el)
}

// subreqNeeds summarizes what one unfulfilled subrequirement still needs: a
// course or unit count from its .subreqNeeds table plus its selectable
// course list, joined as "NEEDS: ... | Available: ...".
func subreqNeeds(sub *html.Node) string {
	var needs string
	if el := findFirst(sub, func(n *html.Node) bool { return hasClass(n, "subreqNeeds") }); el != nil {
		if count := numberWithLabel(el, "count", "Courses"); count != "" {
			needs = fmt.Sprintf("NEEDS: %s Courses", count)
		} else if hours := numberWithLabel(el, "hours", "Units"); hours != "" {
			needs = fmt.Sprintf("NEEDS: %s Units", hours)
		} else if count := childText(el, "number"); count != "" {
			needs = fmt.Sprintf("NEEDS: %s more courses", count)
		}
	}

	var avail []string
	for _, sel := range findAll(sub, func(n *html.Node) bool {
		return hasClass(n, "course") && insideClass(n, "selectcourses")
	}) {
		if num := childText(sel, "number"); num != "" {
			avail = append(avail, num)
		}
	}

	switch {
	case needs != "" && len(avail) > 0:
		return needs + " | " + availableLine(avail)
	case needs != "":
		return needs
	case len(avail) > 0:
		return availableLine(avail)
	}
	return ""
}

func availableLine(courses []string) string {
	return "Available: " + strings.Join(courses, ", ")
}

// numberWithLabel reads a .<group> .number value whose sibling label text
// mentions the given word.
func numberWithLabel(el *html.Node, group, label string) string {
	g := findFirst(el, func(n *html.Node) bool { return hasClass(n, group) })
	if g == nil {
		return ""
	}
	num := childText(g, "number")
	if num == "" {
		return ""
	}
	lbl := childText(g, group+"label")
	if lbl == "" || !strings.Contains(strings.ToLower(lbl), strings.ToLower(label)) {
		return ""
	}
	return num
}

// nameRes are tried in order against the whole-document text.
var nameRes = []*regexp.Regexp{
	regexp.MustCompile(`Student:\s*([^\n\r]+)`),
	regexp.MustCompile(`Name:\s*([^\n\r]+)`),
	regexp.MustCompile(`Student Name:\s*([^\n\r]+)`),
}

var (
	titleNameRe = regexp.MustCompile(`([A-Z][a-z]+\s+[A-Z][a-z]+)`)
	leadNameRe  = regexp.MustCompile(`^([A-Z][a-z]+\s+[A-Z][a-z]+)(?:\s|$)`)
)

// StudentName digs the student's name out of the document, trying dedicated
// containers, labeled text, the page title, and finally a scan for
// capitalized name pairs. Falls back to "Student".
func StudentName(doc *html.Node) string {
	classes := []string{
		"studentInfo", "student-info", "student-name",
		"studentName", "name", "student_name",
	}
	for _, class := range classes {
		if el := findFirst(doc, func(n *html.Node) bool { return hasClass(n, class) }); el != nil {
			if name := trimmedText(el); len(name) > 2 && len(name) < 100 {
				return name
			}
		}
	}

	body := text(doc)
	for _, re := range nameRes {
		if m := re.FindStringSubmatch(body); m != nil {
			if name := strings.TrimSpace(m[1]); len(name) > 2 && len(name) < 100 {
				return name
			}
		}
	}

	if t := findFirst(doc, func(n *html.Node) bool { return isElem(n, "title") }); t != nil {
		title := trimmedText(t)
		if strings.Contains(title, "Degree Audit") {
			if m := titleNameRe.FindStringSubmatch(title); m != nil {
				return m[1]
			}
		}
	}

	for _, el := range findAll(doc, func(n *html.Node) bool {
		return isElem(n, "div", "span", "p", "td", "h1", "h2", "h3")
	}) {
		t := trimmedText(el)
		if len(t) <= 5 || len(t) >= 50 {
			continue
		}
		m := leadNameRe.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		if strings.Contains(t, "Degree") || strings.Contains(t, "Audit") || strings.Contains(t, "University") {
			continue
		}
		return m[1]
	}

	return "Student"
}

var unitsRe = regexp.MustCompile(`[\d.]+`)

// UnitsCompleted reads the earned-unit total off the TOTALHRX requirement
// block. Returns 0 when the block is absent.
func UnitsCompleted(doc *html.Node) float64 {
	total := findFirst(doc, func(n *html.Node) bool {
		return attr(n, "rname") == "TOTALHRX"
	})
	if total == nil {
		return 0
	}
	earned := findFirst(total, func(n *html.Node) bool {
		return hasClass(n, "reqEarned") && insideClass(n, "requirementTotals")
	})
	if earned == nil {
		earned = findFirst(total, func(n *html.Node) bool { return hasClass(n, "reqEarned") })
	}
	if earned == nil {
		return 0
	}
	num := findFirst(earned, func(n *html.Node) bool {
		return hasClass(n, "number") && insideClass(n, "hours")
	})
	if num == nil {
		num = findFirst(earned, func(n *html.Node) bool { return hasClass(n, "number") })
	}
	if num == nil {
		return 0
	}
	return parseUnits(trimmedText(num))
}

func parseUnits(s string) float64 {
	m := unitsRe.FindString(s)
	if m == "" {
		return 0
	}
	var v float64
	if _, err := fmt.Sscanf(m, "%f", &v); err != nil {
		return 0
	}
	return v
}
