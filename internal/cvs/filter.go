package cvs

import "strings"

// isBlank reports whether s has no visible content.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// FilterAggregate returns a copy of cv whose child collections hold only the
// entries that are persisted: non-blank skills and references, experiences with
// a company or role, and education entries with an institution or
// qualification. Kept values are not modified and keep their relative order.
func FilterAggregate(cv CVAggregate) CVAggregate {
	out := cv
	out.Skills = filterStrings(cv.Skills)
	out.References = filterStrings(cv.References)

	out.Experiences = make([]Experience, 0, len(cv.Experiences))
	for _, e := range cv.Experiences {
		if isBlank(e.Company) && isBlank(e.Role) {
			continue
		}
		out.Experiences = append(out.Experiences, e)
	}

	out.Education = make([]Education, 0, len(cv.Education))
	for _, e := range cv.Education {
		if isBlank(e.Institution) && isBlank(e.Qualification) {
			continue
		}
		out.Education = append(out.Education, e)
	}
	return out
}

func filterStrings(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if isBlank(s) {
			continue
		}
		out = append(out, s)
	}
	return out
}
