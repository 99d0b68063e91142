package inmemdb

import (
	"cmp"
	"context"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
)

var (
	studentComparators = map[string]func(a, b academic.Student) int{
		"name":       func(a, b academic.Student) int { return cmp.Compare(a.Name, b.Name) },
		"class_id":   func(a, b academic.Student) int { return cmp.Compare(a.ClassID, b.ClassID) },
		"created_at": func(a, b academic.Student) int { return a.CreatedAt.Compare(b.CreatedAt) },
	}

	gradeComparators = map[string]func(a, b academic.Grade) int{
		"subject":    func(a, b academic.Grade) int { return cmp.Compare(a.Subject, b.Subject) },
		"marks":      func(a, b academic.Grade) int { return cmp.Compare(a.Marks, b.Marks) },
		"term":       func(a, b academic.Grade) int { return cmp.Compare(a.Term, b.Term) },
		"created_at": func(a, b academic.Grade) int { return a.CreatedAt.Compare(b.CreatedAt) },
	}

	attendanceComparators = map[string]func(a, b academic.AttendanceRecord) int{
		"date":   func(a, b academic.AttendanceRecord) int { return a.Date.Compare(b.Date) },
		"status": func(a, b academic.AttendanceRecord) int { return cmp.Compare(a.Status, b.Status) },
	}
)

type academicRepository struct {
	db *DB
}

var _ academic.Repository = (*academicRepository)(nil) // interface compliance check

func NewAcademicRepository(db *DB) academic.Repository {
	return &academicRepository{db: db}
}

// Students

func (repo *academicRepository) CreateStudent(_ context.Context, std academic.Student) (academic.Student, error) {
	repo.db.student.Lock()
	defer repo.db.student.Unlock()

	std.ID = newID()
	repo.db.student.insert(std.ID, std)
	return std, nil
}

func (repo *academicRepository) GetStudentByID(_ context.Context, id string) (academic.Student, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	if std, ok := repo.db.student.rows[id]; ok {
		return *std, nil
	}
	return academic.Student{}, academic.ErrStudentNotFound
}

func (repo *academicRepository) QueryStudents(
	_ context.Context,
	filter *academic.StudentFilter,
	ordering []core.DBOrdering,
) ([]academic.Student, error) {
	repo.db.student.RLock()
	defer repo.db.student.RUnlock()

	students := repo.db.student.filter(func(s academic.Student) bool {
		return matches(s.ClassID, filter.ClassID) && (filter.Search == "" || containsFold(s.Name, filter.Search))
	})
	orderBy(students, ordering, studentComparators)
	return students, nil
}

// Grades

func (repo *academicRepository) CreateGrades(_ context.Context, grades ...academic.Grade) ([]academic.Grade, error) {
	repo.db.grade.Lock()
	defer repo.db.grade.Unlock()

	created := make([]academic.Grade, len(grades))
	for i, g := range grades {
		g.ID = newID()
		repo.db.grade.insert(g.ID, g)
		created[i] = g
	}
	return created, nil
}

func (repo *academicRepository) QueryGrades(
	_ context.Context,
	filter *academic.GradeFilter,
	ordering []core.DBOrdering,
) ([]academic.Grade, error) {
	repo.db.grade.RLock()
	defer repo.db.grade.RUnlock()

	grades := repo.db.grade.filter(func(g academic.Grade) bool {
		return matches(g.StudentID, filter.StudentID) &&
			matches(g.ClassID, filter.ClassID) &&
			matches(g.Subject, filter.Subject) &&
			matches(g.Term, filter.Term) &&
			matches(g.AcademicYear, filter.AcademicYear)
	})
	orderBy(grades, ordering, gradeComparators)
	return grades, nil
}

// Attendance

func (repo *academicRepository) SaveAttendance(_ context.Context, records ...academic.AttendanceRecord) ([]academic.AttendanceRecord, error) {
	repo.db.attendance.Lock()
	defer repo.db.attendance.Unlock()

	saved := make([]academic.AttendanceRecord, len(records))
	for i, rec := range records {
		rec.ID = ""
		for id, existing := range repo.db.attendance.rows {
			if existing.StudentID == rec.StudentID && existing.Date.Equal(rec.Date) {
				rec.ID = id
				break
			}
		}
		if rec.ID == "" {
			rec.ID = newID()
		}
		repo.db.attendance.insert(rec.ID, rec)
		saved[i] = rec
	}
	return saved, nil
}

func (repo *academicRepository) QueryAttendance(
	_ context.Context,
	filter *academic.AttendanceFilter,
	ordering []core.DBOrdering,
) ([]academic.AttendanceRecord, error) {
	repo.db.attendance.RLock()
	defer repo.db.attendance.RUnlock()

	records := repo.db.attendance.filter(func(r academic.AttendanceRecord) bool {
		if !(matches(r.StudentID, filter.StudentID) &&
			matches(r.ClassID, filter.ClassID) &&
			matches(r.Status, filter.Status) &&
			matches(r.Term, filter.Term) &&
			matches(r.AcademicYear, filter.AcademicYear)) {
			return false
		}
		if !filter.DateFrom.IsZero() && r.Date.Before(academic.Date(filter.DateFrom)) {
			return false
		}
		if !filter.DateTo.IsZero() && r.Date.After(academic.Date(filter.DateTo)) {
			return false
		}
		return true
	})
	orderBy(records, ordering, attendanceComparators)
	return records, nil
}
