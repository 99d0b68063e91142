package academic

import (
	"sort"

	"github.com/trezcool/shule/core"
)

type SubjectResult struct {
	Subject    string  `json:"subject"`
	Marks      float64 `json:"marks"`
	TotalMarks float64 `json:"total_marks"`
	Percentage float64 `json:"percentage"`
	Grade      string  `json:"grade"`
}

type ReportCard struct {
	Student       Student           `json:"student"`
	Period        core.Period       `json:"period"`
	Subjects      []SubjectResult   `json:"subjects"`
	TotalMarks    float64           `json:"total_marks"`
	TotalPossible float64           `json:"total_possible"`
	Percentage    float64           `json:"percentage"`
	Grade         string            `json:"grade"` // empty when ungraded
	Attendance    AttendanceSummary `json:"attendance"`
	Rank          int               `json:"rank"` // 0 when ungraded
	TotalStudents int               `json:"total_students"`
}

// NewReportCard builds a student's report card from their own grades and attendance,
// and the class cohort they are ranked in.
func NewReportCard(
	std Student,
	period core.Period,
	grades []Grade,
	attendance []AttendanceRecord,
	cohort []RankedStudent,
) ReportCard {
	card := ReportCard{
		Student:    std,
		Period:     period,
		Subjects:   subjectResults(grades),
		Attendance: SummarizeAttendance(attendance),
	}
	for _, sr := range card.Subjects {
		card.TotalMarks += sr.Marks
		card.TotalPossible += sr.TotalMarks
	}
	if card.TotalPossible > 0 {
		pct := percentage(card.TotalMarks, card.TotalPossible)
		card.Percentage = round2(pct)
		card.Grade = LetterGrade(pct)
	}
	card.Rank, card.TotalStudents = RankOf(cohort, std.ID)
	return card
}

// subjectResults sums up the grades per subject, sorted by subject.
func subjectResults(grades []Grade) []SubjectResult {
	bySubject := make(map[string]*SubjectResult)
	for _, g := range grades {
		sr, ok := bySubject[g.Subject]
		if !ok {
			sr = &SubjectResult{Subject: g.Subject}
			bySubject[g.Subject] = sr
		}
		sr.Marks += g.Marks
		sr.TotalMarks += g.TotalMarks
	}

	results := make([]SubjectResult, 0, len(bySubject))
	for _, sr := range bySubject {
		pct := percentage(sr.Marks, sr.TotalMarks)
		sr.Percentage = round2(pct)
		sr.Grade = LetterGrade(pct)
		results = append(results, *sr)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Subject < results[j].Subject })
	return results
}
