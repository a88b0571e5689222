// Package term resolves raw term tokens (e.g. "FA24", "SP26") into planner
// grid coordinates. Summer sessions are excluded by business rule: the
// planning grid has no summer column.
package term

import (
	"strconv"
	"strings"

	"github.com/auditgrid/auditgrid/internal/schema"
)

// BaseYear is the two-digit code of the first supported academic year.
// Year index 0 is the academic year beginning fall 20XX where XX == BaseYear.
const BaseYear = 24

// seasonMap translates two-letter season codes to quarters. Any code not
// listed here is rejected.
var seasonMap = map[string]schema.Quarter{
	"FA": schema.QuarterFall,
	"WI": schema.QuarterWinter,
	"SP": schema.QuarterSpring,
}

// Resolve maps a term token to a grid coordinate. The second return value is
// false when the token is malformed, names a summer session, or falls outside
// the four-year planning horizon. Resolve is pure and deterministic.
func Resolve(token string) (schema.TermCoordinate, bool) {
	if len(token) < 3 {
		return schema.TermCoordinate{}, false
	}

	season := strings.ToUpper(token[:2])
	suffix := token[2:]

	if isSummer(season, token) {
		return schema.TermCoordinate{}, false
	}

	quarter, ok := seasonMap[season]
	if !ok {
		return schema.TermCoordinate{}, false
	}

	year, err := strconv.Atoi(suffix)
	if err != nil || year < 0 {
		return schema.TermCoordinate{}, false
	}

	// Fall terms belong to the academic year starting that calendar year;
	// winter/spring terms belong to the year that began the preceding fall.
	yearIndex := year - BaseYear
	if quarter != schema.QuarterFall {
		yearIndex--
	}

	if yearIndex < 0 || yearIndex >= schema.PlanYears {
		return schema.TermCoordinate{}, false
	}

	return schema.TermCoordinate{YearIndex: yearIndex, Quarter: quarter}, true
}

// isSummer reports whether the token names a summer session. This covers SU,
// SM, and session codes like S1/S2/S325: any token starting with S (other
// than the Spring code SP) that carries a digit after its first character.
func isSummer(season, token string) bool {
	if season == "SU" || season == "SM" {
		return true
	}
	if !strings.HasPrefix(season, "S") || season == "SP" {
		return false
	}
	return strings.ContainsAny(token[1:], "0123456789")
}
