// Package search serves catalog course lookups: exact id match first, then
// id prefix matches, then name substring matches, deduplicated by course id.
package search

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/auditgrid/auditgrid/internal/schema"
)

// Catalog is an in-memory course catalog loaded once at startup.
type Catalog struct {
	courses []schema.CatalogCourse
}

// Load reads the catalog JSON file, an array of catalog course records.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("search: read catalog: %w", err)
	}
	return Parse(data)
}

// Parse builds a catalog from raw JSON. Records missing a normalized id
// get one derived from their course id.
func Parse(data []byte) (*Catalog, error) {
	var courses []schema.CatalogCourse
	if err := json.Unmarshal(data, &courses); err != nil {
		return nil, fmt.Errorf("search: parse catalog: %w", err)
	}
	for i := range courses {
		if courses[i].NormalizedID == "" {
			courses[i].NormalizedID = NormalizeID(courses[i].CourseID)
		}
	}
	return &Catalog{courses: courses}, nil
}

// Len reports the number of catalog entries.
func (c *Catalog) Len() int { return len(c.courses) }

// NormalizeID strips everything but letters and digits and lowercases the
// rest, so "DSC 10", "dsc10", and "DSC-10" all normalize the same way.
func NormalizeID(id string) string {
	var b strings.Builder
	b.Grow(len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		}
	}
	return b.String()
}

// Search ranks catalog courses against a free-text query. The exact
// normalized-id match leads, followed by normalized-id prefix matches,
// then case-insensitive name substring matches. Duplicate course ids keep
// their first-ranked position. An empty query returns nothing.
func (c *Catalog) Search(query string) []schema.CatalogCourse {
	normalized := NormalizeID(query)
	queryLower := strings.ToLower(query)
	if queryLower == "" {
		return nil
	}

	var combined []schema.CatalogCourse
	for _, course := range c.courses {
		if strings.ToLower(course.NormalizedID) == normalized {
			combined = append(combined, course)
			break
		}
	}
	if normalized != "" {
		for _, course := range c.courses {
			if strings.HasPrefix(strings.ToLower(course.NormalizedID), normalized) {
				combined = append(combined, course)
			}
		}
	}
	for _, course := range c.courses {
		if strings.Contains(strings.ToLower(course.CourseName), queryLower) {
			combined = append(combined, course)
		}
	}

	seen := make(map[string]bool, len(combined))
	out := make([]schema.CatalogCourse, 0, len(combined))
	for _, course := range combined {
		if seen[course.CourseID] {
			continue
		}
		seen[course.CourseID] = true
		out = append(out, course)
	}
	return out
}
