// Package audit turns an uploaded HTML degree-audit export into typed
// requirement sections. Two classifiers cooperate: a vendor-structure parser
// for exports that carry explicit status classes (dars.go), and a generic
// cascade of structural strategies for everything else (this file). Both
// favor partial results over failure; a document yielding zero sections is a
// valid outcome, not an error.
package audit

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/auditgrid/auditgrid/internal/schema"
)

// Item caps keep a single pathological blob from flooding a section.
const (
	maxSectionItems  = 20
	maxFlatItems     = 10
	minTitleLen      = 15
	maxTitleLen      = 100
	minBlockTextLen  = 50
	minBlockLineLen  = 10
	minSiblingText   = 5
	minSiblingLine   = 3
	minFlatLineLen   = 5
	minHeadingTitle  = 3
)

// statusClasses are the known audit status-color classes. Elements tagged
// with one of these carry an explicit fulfillment signal; everything else
// falls back to the text heuristic.
var statusClasses = map[string]schema.FulfillmentStatus{
	"text-auditGray": schema.StatusFulfilled,
	"text-auditBlue": schema.StatusInProgress,
	"text-auditRed":  schema.StatusNotFulfilled,
}

// Keyword lists for the text status heuristic, checked in this order with
// first-category-wins semantics.
var (
	fulfilledKeywords = []string{
		"complete", "satisfied", "fulfilled", "passed", "earned", "100%", "done",
	}
	inProgressKeywords = []string{
		"in progress", "current", "enrolled", "taking", "partial",
	}
	notFulfilledKeywords = []string{
		"not", "missing", "required", "needed", "outstanding", "0%", "none",
	}
)

// titleKeywords mark a line as a plausible requirement-section title.
var titleKeywords = []string{
	"requirement", "division", "major", "college", "general",
	"education", "course", "unit", "credit", "math", "science",
	"english", "writing", "language", "elective", "core",
	"foundation", "breadth", "depth", "concentration", "degree",
	"bachelor", "master", "lower", "upper", "graduation", "audit",
	"data science", "computer science", "engineering", "physics",
	"chemistry", "biology", "history", "literature", "arts",
	"social", "humanities", "ethnic", "international", "studies",
}

// courseCodeRe matches department-code-plus-number tokens like "CSE 101".
// A line with one of these and a dash separator is a course row, not a title.
var courseCodeRe = regexp.MustCompile(`[A-Z]{2,4}\s*\d+`)

// Classify runs the generic strategy cascade over a parsed document and
// returns deduplicated requirement sections in discovery order.
//
// Strategies 1–4 each contribute sections independently; 5 runs only when
// 1–4 found nothing, and 6 only when 5 also found nothing. Strategy 2
// skips elements already claimed by a status-color class so the same block
// is not reported twice.
func Classify(doc *html.Node) []schema.RequirementSection {
	var sections []schema.RequirementSection

	sections = append(sections, classifyByStatusClass(doc)...)
	sections = append(sections, classifyByContainerClass(doc)...)
	sections = append(sections, classifyByTable(doc)...)
	sections = append(sections, classifyByHeading(doc)...)

	if len(sections) == 0 {
		sections = classifyByBlockText(doc)
	}
	if len(sections) == 0 {
		sections = classifyByFlatText(doc)
	}

	return dedupeSections(sections)
}

// classifyByStatusClass handles elements tagged with a known status color.
func classifyByStatusClass(doc *html.Node) []schema.RequirementSection {
	var out []schema.RequirementSection
	for _, el := range findAll(doc, hasStatusClass) {
		if sec, ok := sectionFromElement(el, statusFromClass(el)); ok {
			out = append(out, sec)
		}
	}
	return out
}

// classifyByContainerClass handles common requirement-container class
// patterns: anything whose class mentions "requirement" or "audit", an
// exact "section" class, or a div whose class mentions "block" or "area".
func classifyByContainerClass(doc *html.Node) []schema.RequirementSection {
	pred := func(n *html.Node) bool {
		if hasStatusClass(n) {
			return false // already claimed by the class-based strategy
		}
		if classContains(n, "requirement") || classContains(n, "audit") || hasClass(n, "section") {
			return true
		}
		return isElem(n, "div") && (classContains(n, "block") || classContains(n, "area"))
	}

	var out []schema.RequirementSection
	for _, el := range findAll(doc, pred) {
		if sec, ok := sectionFromElement(el, statusFromText(text(el))); ok {
			out = append(out, sec)
		}
	}
	return out
}

// classifyByTable treats any table with two or more non-empty rows as a
// section: first row is the title, remaining rows are items. Tables carry
// no reliable status signal, so the status defaults to in-progress.
func classifyByTable(doc *html.Node) []schema.RequirementSection {
	var out []schema.RequirementSection
	for _, table := range findAll(doc, func(n *html.Node) bool { return isElem(n, "table") }) {
		var rows []string
		for _, tr := range findAll(table, func(n *html.Node) bool { return isElem(n, "tr") }) {
			var cells []string
			for _, cell := range findAll(tr, func(n *html.Node) bool { return isElem(n, "td", "th") }) {
				if t := trimmedText(cell); t != "" {
					cells = append(cells, t)
				}
			}
			if len(cells) > 0 {
				rows = append(rows, strings.Join(cells, " - "))
			}
		}
		if len(rows) >= 2 {
			out = append(out, schema.RequirementSection{
				Title:  rows[0],
				Status: schema.StatusInProgress,
				Items:  rows[1:],
			})
		}
	}
	return out
}

// classifyByHeading starts a section at each heading whose text looks like a
// requirement title and collects line-like text from following siblings up
// to the next heading.
func classifyByHeading(doc *html.Node) []schema.RequirementSection {
	heading := func(n *html.Node) bool { return isElem(n, "h1", "h2", "h3", "h4", "h5", "h6") }

	var out []schema.RequirementSection
	for _, h := range findAll(doc, heading) {
		title := trimmedText(h)
		if len(title) <= minHeadingTitle || !isLikelyTitle(title) {
			continue
		}

		var items []string
		for sib := nextElemSibling(h); sib != nil && !heading(sib); sib = nextElemSibling(sib) {
			t := trimmedText(sib)
			if len(t) > minSiblingText {
				items = append(items, splitLines(t, minSiblingLine)...)
			}
		}
		if len(items) == 0 {
			continue
		}

		status := schema.StatusInProgress
		if h.Parent != nil {
			status = statusFromText(text(h.Parent))
		}
		out = append(out, schema.RequirementSection{Title: title, Status: status, Items: items})
	}
	return out
}

// classifyByBlockText is the generic-block fallback: any div carrying
// substantial text whose first line passes the title heuristic becomes a
// section.
func classifyByBlockText(doc *html.Node) []schema.RequirementSection {
	var out []schema.RequirementSection
	for _, div := range findAll(doc, func(n *html.Node) bool { return isElem(n, "div") }) {
		full := trimmedText(div)
		if len(full) <= minBlockTextLen {
			continue
		}
		lines := splitLines(text(div), minBlockLineLen)
		if len(lines) < 2 || !isLikelyTitle(lines[0]) {
			continue
		}
		out = append(out, schema.RequirementSection{
			Title:  lines[0],
			Status: statusFromText(full),
			Items:  lines[1:],
		})
	}
	return out
}

// classifyByFlatText is the last resort: flatten the document to plain text
// with block tags as line breaks, then greedily group consecutive lines into
// title/items runs by re-testing the title heuristic on every line.
func classifyByFlatText(doc *html.Node) []schema.RequirementSection {
	lines := splitLines(flattenText(doc), minFlatLineLen)

	var out []schema.RequirementSection
	var title string
	var items []string

	flush := func() {
		if title == "" || len(items) == 0 {
			return
		}
		capped := items
		if len(capped) > maxFlatItems {
			capped = capped[:maxFlatItems]
		}
		out = append(out, schema.RequirementSection{
			Title:  title,
			Status: statusFromText(strings.Join(capped, " ")),
			Items:  capped,
		})
	}

	for _, line := range lines {
		if isLikelyTitle(line) && len(line) < maxTitleLen {
			flush()
			title = line
			items = nil
		} else if title != "" {
			items = append(items, line)
		}
	}
	flush()

	return out
}

// sectionFromElement builds a section from a container element: the title
// comes from the first bold/heading/paragraph text, the items from list
// items or paragraphs, with a line-split fallback when neither exists.
func sectionFromElement(el *html.Node, status schema.FulfillmentStatus) (schema.RequirementSection, bool) {
	title := elementTitle(el)
	if len(title) < 3 {
		return schema.RequirementSection{}, false
	}

	var items []string
	appendTexts := func(tag string, minLen int) {
		for _, n := range findAll(el, func(n *html.Node) bool { return isElem(n, tag) }) {
			t := trimmedText(n)
			if t != "" && t != title && len(t) > minLen {
				items = append(items, t)
			}
		}
	}
	appendTexts("li", 2)
	appendTexts("p", 2)

	if len(items) == 0 {
		for _, line := range splitLines(text(el), minSiblingLine) {
			if line != title {
				items = append(items, line)
			}
		}
	}
	if len(items) == 0 {
		return schema.RequirementSection{}, false
	}
	if len(items) > maxSectionItems {
		items = items[:maxSectionItems]
	}

	return schema.RequirementSection{Title: title, Status: status, Items: items}, true
}

// elementTitle picks the most title-like text inside a container element.
func elementTitle(el *html.Node) string {
	if b := findFirst(el, func(n *html.Node) bool { return isElem(n, "b", "strong") }); b != nil {
		return trimmedText(b)
	}
	if h := findFirst(el, func(n *html.Node) bool {
		return isElem(n, "h1", "h2", "h3", "h4", "h5", "h6")
	}); h != nil {
		return trimmedText(h)
	}
	if p := findFirst(el, func(n *html.Node) bool { return isElem(n, "p") }); p != nil {
		return trimmedText(p)
	}
	if lines := strings.SplitN(text(el), "\n", 2); len(lines) > 0 {
		return strings.TrimSpace(lines[0])
	}
	return ""
}

// hasStatusClass reports whether the element carries one of the known
// status-color classes.
func hasStatusClass(n *html.Node) bool {
	for name := range statusClasses {
		if hasClass(n, name) {
			return true
		}
	}
	return false
}

// statusFromClass reads the explicit status signal off a status-color class.
func statusFromClass(n *html.Node) schema.FulfillmentStatus {
	for name, status := range statusClasses {
		if hasClass(n, name) {
			return status
		}
	}
	return schema.StatusNotFulfilled
}

// statusFromText infers a fulfillment status from free text. Keyword
// categories are checked in order and short-circuit on the first hit;
// nothing recognizable defaults to in-progress.
func statusFromText(s string) schema.FulfillmentStatus {
	lower := strings.ToLower(s)
	for _, kw := range fulfilledKeywords {
		if strings.Contains(lower, kw) {
			return schema.StatusFulfilled
		}
	}
	for _, kw := range inProgressKeywords {
		if strings.Contains(lower, kw) {
			return schema.StatusInProgress
		}
	}
	for _, kw := range notFulfilledKeywords {
		if strings.Contains(lower, kw) {
			return schema.StatusNotFulfilled
		}
	}
	return schema.StatusInProgress
}

// isLikelyTitle reports whether a line reads like a requirement-section
// title: it mentions an academic-domain keyword or has a title-ish length,
// and it is not itself a "CODE - name" course row.
func isLikelyTitle(title string) bool {
	if courseCodeRe.MatchString(title) && strings.Contains(title, " - ") {
		return false
	}
	lower := strings.ToLower(title)
	for _, kw := range titleKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return len(title) > minTitleLen && len(title) < maxTitleLen
}

// dedupeSections drops sections with no items and duplicate titles,
// keeping the first occurrence of each title.
func dedupeSections(sections []schema.RequirementSection) []schema.RequirementSection {
	seen := make(map[string]bool, len(sections))
	out := make([]schema.RequirementSection, 0, len(sections))
	for _, sec := range sections {
		if len(sec.Items) == 0 || seen[sec.Title] {
			continue
		}
		seen[sec.Title] = true
		out = append(out, sec)
	}
	return out
}
