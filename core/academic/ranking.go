package academic

import (
	"math"
	"sort"
)

// LetterGrade maps a percentage to a letter grade.
func LetterGrade(percentage float64) string {
	switch {
	case percentage >= 80:
		return "A"
	case percentage >= 70:
		return "B"
	case percentage >= 60:
		return "C"
	case percentage >= 50:
		return "D"
	default:
		return "F"
	}
}

// MarkRecord holds a student's marks totals over a period.
type MarkRecord struct {
	StudentID          string  `json:"student_id"`
	TotalMarksObtained float64 `json:"total_marks_obtained"`
	TotalMarksPossible float64 `json:"total_marks_possible"`
}

type RankedStudent struct {
	MarkRecord
	Percentage float64 `json:"percentage"` // rounded to 2 places
	Grade      string  `json:"grade"`
	Rank       int     `json:"rank"`
}

// RankCohort ranks students by descending percentage.
// Records without possible marks are left out. Ties keep their input order and get distinct ranks.
func RankCohort(records []MarkRecord) []RankedStudent {
	type scored struct {
		MarkRecord
		pct float64
	}

	graded := make([]scored, 0, len(records))
	for _, rec := range records {
		if rec.TotalMarksPossible <= 0 {
			continue
		}
		graded = append(graded, scored{
			MarkRecord: rec,
			pct:        rec.TotalMarksObtained / rec.TotalMarksPossible * 100,
		})
	}
	sort.SliceStable(graded, func(i, j int) bool { return graded[i].pct > graded[j].pct })

	ranked := make([]RankedStudent, len(graded))
	for i, s := range graded {
		ranked[i] = RankedStudent{
			MarkRecord: s.MarkRecord,
			Percentage: round2(s.pct),
			Grade:      LetterGrade(s.pct),
			Rank:       i + 1,
		}
	}
	return ranked
}

// RankOf returns the student's rank and the cohort size. A rank of 0 means the student is ungraded.
func RankOf(ranked []RankedStudent, studentID string) (int, int) {
	for _, rs := range ranked {
		if rs.StudentID == studentID {
			return rs.Rank, len(ranked)
		}
	}
	return 0, len(ranked)
}

// CohortFromGrades sums up each student's marks, in order of first appearance.
func CohortFromGrades(grades []Grade) []MarkRecord {
	idx := make(map[string]int)
	var records []MarkRecord
	for _, g := range grades {
		i, ok := idx[g.StudentID]
		if !ok {
			i = len(records)
			idx[g.StudentID] = i
			records = append(records, MarkRecord{StudentID: g.StudentID})
		}
		records[i].TotalMarksObtained += g.Marks
		records[i].TotalMarksPossible += g.TotalMarks
	}
	return records
}

func percentage(obtained, possible float64) float64 {
	if possible <= 0 {
		return 0
	}
	return obtained / possible * 100
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
