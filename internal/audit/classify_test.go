package audit

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/auditgrid/auditgrid/internal/schema"
)

func parseDoc(t *testing.T, src string) *html.Node {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse fixture: %v", err)
	}
	return doc
}

func findSection(secs []schema.RequirementSection, title string) *schema.RequirementSection {
	for i := range secs {
		if secs[i].Title == title {
			return &secs[i]
		}
	}
	return nil
}

func TestClassifyStatusClasses(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<div class="text-auditGray"><b>Lower Division Requirements</b>
			<li>DSC 10 - Principles of Data Science (FA24, A)</li>
			<li>DSC 20 - Programming and Data Structures (WI25, B+)</li>
		</div>
		<div class="text-auditBlue"><b>Upper Division Requirements</b>
			<li>DSC 100 - Theoretical Foundations (SP25, NR)</li>
		</div>
		<div class="text-auditRed"><b>Capstone Requirement</b>
			<li>NEEDS: 2 Courses</li>
		</div>
	</body></html>`)

	secs := Classify(doc)
	if len(secs) < 3 {
		t.Fatalf("got %d sections, want at least 3", len(secs))
	}

	tests := []struct {
		title  string
		status schema.FulfillmentStatus
	}{
		{"Lower Division Requirements", schema.StatusFulfilled},
		{"Upper Division Requirements", schema.StatusInProgress},
		{"Capstone Requirement", schema.StatusNotFulfilled},
	}
	for _, tt := range tests {
		sec := findSection(secs, tt.title)
		if sec == nil {
			t.Errorf("section %q not found", tt.title)
			continue
		}
		if sec.Status != tt.status {
			t.Errorf("%q status = %q, want %q", tt.title, sec.Status, tt.status)
		}
		if len(sec.Items) == 0 {
			t.Errorf("%q has no items", tt.title)
		}
	}
}

func TestClassifyContainerClass(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<div class="requirement-block">
			<b>General Education Requirements</b>
			<li>MATH 18 - Linear Algebra (FA24, A-)</li>
			<li>MATH 20C - Calculus III (WI25, B)</li>
		</div>
	</body></html>`)

	secs := Classify(doc)
	sec := findSection(secs, "General Education Requirements")
	if sec == nil {
		t.Fatalf("section not found in %+v", secs)
	}
	if len(sec.Items) != 2 {
		t.Errorf("items = %d, want 2", len(sec.Items))
	}
}

func TestClassifyTable(t *testing.T) {
	doc := parseDoc(t, `<html><body><table>
		<tr><th>Major Requirements</th></tr>
		<tr><td>CSE 100</td><td>Advanced Data Structures</td></tr>
		<tr><td>CSE 101</td><td>Algorithms</td></tr>
	</table></body></html>`)

	secs := Classify(doc)
	sec := findSection(secs, "Major Requirements")
	if sec == nil {
		t.Fatalf("table section not found in %+v", secs)
	}
	if len(sec.Items) != 2 {
		t.Fatalf("items = %d, want 2", len(sec.Items))
	}
	if sec.Items[0] != "CSE 100 - Advanced Data Structures" {
		t.Errorf("item = %q", sec.Items[0])
	}
}

func TestClassifyHeading(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<h2>Writing Requirement</h2>
		<p>WCWP 10A - The Writing Course A (FA24, A)</p>
		<p>WCWP 10B - The Writing Course B (WI25, B+)</p>
		<h2>Language Requirement</h2>
		<p>LISP 1A - Spanish Conversation (SP25, NR)</p>
	</body></html>`)

	secs := Classify(doc)
	for _, title := range []string{"Writing Requirement", "Language Requirement"} {
		sec := findSection(secs, title)
		if sec == nil {
			t.Errorf("section %q not found", title)
			continue
		}
		if len(sec.Items) == 0 {
			t.Errorf("%q has no items", title)
		}
	}
	// Items stop at the next heading.
	if sec := findSection(secs, "Writing Requirement"); sec != nil {
		for _, item := range sec.Items {
			if strings.Contains(item, "LISP") {
				t.Errorf("item %q leaked past heading boundary", item)
			}
		}
	}
}

func TestClassifyFlatTextFallback(t *testing.T) {
	// No recognizable structure at all: bare text inside a span.
	doc := parseDoc(t, `<html><body><span>College Core Requirements
HILD 7A - Race and Ethnicity (FA24, A)
HILD 7B - Modern American History (WI25, B)
</span></body></html>`)

	secs := Classify(doc)
	if len(secs) == 0 {
		t.Fatal("flat-text fallback produced no sections")
	}
	sec := findSection(secs, "College Core Requirements")
	if sec == nil {
		t.Fatalf("section not found in %+v", secs)
	}
	if len(sec.Items) != 2 {
		t.Errorf("items = %d, want 2", len(sec.Items))
	}
}

func TestClassifyBlockTextFallback(t *testing.T) {
	// No classes, tables, or headings, but a div holding line-structured
	// text with a title-looking first line.
	doc := parseDoc(t, `<html><body><div>General Education Requirements
MATH 20C still needed for the math sequence
CAT 125 still needed for the writing sequence
</div></body></html>`)

	secs := Classify(doc)
	sec := findSection(secs, "General Education Requirements")
	if sec == nil {
		t.Fatalf("section not found in %+v", secs)
	}
	if sec.Status != schema.StatusNotFulfilled {
		t.Errorf("status = %q, want %q", sec.Status, schema.StatusNotFulfilled)
	}
	if len(sec.Items) != 2 {
		t.Errorf("items = %d, want 2: %+v", len(sec.Items), sec.Items)
	}
}

func TestClassifyBlockTextSkippedWhenStructured(t *testing.T) {
	// Structured markup wins: the unstructured block must not add a
	// second section.
	doc := parseDoc(t, `<html><body>
		<div class="text-auditGray"><b>Math Requirement</b>
			<li>MATH 18 - Linear Algebra (FA24, A)</li>
		</div>
		<div>General Education Requirements
MATH 20C still needed for the math sequence
CAT 125 still needed for the writing sequence
</div></body></html>`)

	secs := Classify(doc)
	if findSection(secs, "Math Requirement") == nil {
		t.Fatalf("structured section missing: %+v", secs)
	}
	if sec := findSection(secs, "General Education Requirements"); sec != nil {
		t.Errorf("block-text fallback ran despite structured sections: %+v", sec)
	}
}

func TestClassifyDedupesTitles(t *testing.T) {
	doc := parseDoc(t, `<html><body>
		<div class="text-auditGray"><b>Math Requirement</b>
			<li>MATH 18 - Linear Algebra (FA24, A)</li>
		</div>
		<div class="requirement"><b>Math Requirement</b>
			<li>MATH 18 - Linear Algebra (FA24, A)</li>
		</div>
	</body></html>`)

	secs := Classify(doc)
	n := 0
	for _, sec := range secs {
		if sec.Title == "Math Requirement" {
			n++
		}
	}
	if n != 1 {
		t.Errorf("got %d sections titled Math Requirement, want 1", n)
	}
}

func TestClassifyEmptyDocument(t *testing.T) {
	doc := parseDoc(t, `<html><body></body></html>`)
	if secs := Classify(doc); len(secs) != 0 {
		t.Errorf("got %d sections from empty document, want 0", len(secs))
	}
}

func TestStatusFromText(t *testing.T) {
	tests := []struct {
		text string
		want schema.FulfillmentStatus
	}{
		{"Requirement complete", schema.StatusFulfilled},
		{"100% satisfied", schema.StatusFulfilled},
		{"Currently enrolled", schema.StatusInProgress},
		{"work in progress", schema.StatusInProgress},
		{"2 courses needed", schema.StatusNotFulfilled},
		{"not satisfied", schema.StatusFulfilled}, // "satisfied" hits first
		{"something else entirely", schema.StatusInProgress},
	}
	for _, tt := range tests {
		if got := statusFromText(tt.text); got != tt.want {
			t.Errorf("statusFromText(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestIsLikelyTitle(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"Lower Division Requirements", true},
		{"Data Science Major", true},
		{"DSC 10 - Principles of Data Science (FA24, A)", false},
		{"ab", false},
		{"A reasonably long line of text", true},
	}
	for _, tt := range tests {
		if got := isLikelyTitle(tt.title); got != tt.want {
			t.Errorf("isLikelyTitle(%q) = %v, want %v", tt.title, got, tt.want)
		}
	}
}
