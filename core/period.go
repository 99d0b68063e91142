package core

import "strconv"

// Terms
const (
	Term1 = "TERM1"
	Term2 = "TERM2"
	Term3 = "TERM3"
)

var AllTerms = []string{Term1, Term2, Term3}

func IsValidTerm(term string) bool {
	for _, t := range AllTerms {
		if term == t {
			return true
		}
	}
	return false
}

// IsValidAcademicYear checks that `year` is of the form "2024-2025".
func IsValidAcademicYear(year string) bool {
	m := academicYearRegex.FindStringSubmatch(year)
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return end == start+1
}

// Period scopes reports to an academic year and, optionally, a term.
type Period struct {
	AcademicYear string `json:"academic_year" query:"academic_year" validate:"required,academic_year"`
	Term         string `json:"term,omitempty" query:"term" validate:"omitempty,term"`
}

func (p *Period) Clean() {
	p.AcademicYear = CleanString(p.AcademicYear)
	p.Term = CleanString(p.Term)
}
