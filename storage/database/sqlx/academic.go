package sqlxrepos

import (
	"context"
	"database/sql"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
)

var (
	studentOrderings    = []string{"name", "class_id", "created_at"}
	gradeOrderings      = []string{"subject", "marks", "term", "created_at"}
	gradeColumns        = []string{"id", "student_id", "class_id", "subject", "term", "academic_year", "marks", "total_marks", "created_at"}
	attendanceOrderings = []string{"date", "status"}
)

type academicRepository struct {
	repo
}

var _ academic.Repository = (*academicRepository)(nil) // interface compliance check

func NewAcademicRepository(db *sqlx.DB) academic.Repository {
	return &academicRepository{repo: newRepo(db)}
}

// Students

func (r *academicRepository) CreateStudent(ctx context.Context, std academic.Student) (academic.Student, error) {
	std.ID = uuid.NewString()
	q, args, err := r.builder.Insert("student").
		Columns("id", "name", "class_id", "created_at").
		Values(std.ID, std.Name, std.ClassID, std.CreatedAt).
		ToSql()
	if err != nil {
		return academic.Student{}, errors.Wrap(err, "building query")
	}
	if _, err = r.db.ExecContext(ctx, q, args...); err != nil {
		return academic.Student{}, dbError(err, "inserting student")
	}
	return std, nil
}

func (r *academicRepository) GetStudentByID(ctx context.Context, id string) (academic.Student, error) {
	q, args, err := r.builder.Select("*").From("student").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return academic.Student{}, errors.Wrap(err, "building query")
	}
	var std academic.Student
	if err = r.db.GetContext(ctx, &std, q, args...); err != nil {
		if errors.Cause(err) == sql.ErrNoRows {
			return academic.Student{}, academic.ErrStudentNotFound
		}
		return academic.Student{}, dbError(err, "selecting student")
	}
	return std, nil
}

func (r *academicRepository) QueryStudents(
	ctx context.Context,
	filter *academic.StudentFilter,
	ordering []core.DBOrdering,
) ([]academic.Student, error) {
	query := eqIfSet(r.builder.Select("*").From("student"), map[string]string{"class_id": filter.ClassID})
	if filter.Search != "" {
		query = query.Where(sq.Like{"LOWER(name)": "%" + strings.ToLower(filter.Search) + "%"})
	}
	query = orderBy(query, ordering, studentOrderings, "created_at ASC", "id ASC")

	q, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var students []academic.Student
	if err = r.db.SelectContext(ctx, &students, q, args...); err != nil {
		return nil, dbError(err, "selecting students")
	}
	return students, nil
}

// Grades

func (r *academicRepository) CreateGrades(ctx context.Context, grades ...academic.Grade) ([]academic.Grade, error) {
	if len(grades) == 0 {
		return nil, nil
	}

	// batch_index keeps the batch in its recorded order, as its grades share created_at
	insert := r.builder.Insert("grade").Columns(append(gradeColumns, "batch_index")...)
	created := make([]academic.Grade, len(grades))
	for i, g := range grades {
		g.ID = uuid.NewString()
		insert = insert.Values(g.ID, g.StudentID, g.ClassID, g.Subject, g.Term, g.AcademicYear, g.Marks, g.TotalMarks, g.CreatedAt, i)
		created[i] = g
	}

	q, args, err := insert.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	if _, err = r.db.ExecContext(ctx, q, args...); err != nil {
		return nil, dbError(err, "inserting grades")
	}
	return created, nil
}

func (r *academicRepository) QueryGrades(
	ctx context.Context,
	filter *academic.GradeFilter,
	ordering []core.DBOrdering,
) ([]academic.Grade, error) {
	query := eqIfSet(r.builder.Select(gradeColumns...).From("grade"), map[string]string{
		"student_id":    filter.StudentID,
		"class_id":      filter.ClassID,
		"subject":       filter.Subject,
		"term":          filter.Term,
		"academic_year": filter.AcademicYear,
	})
	query = orderBy(query, ordering, gradeOrderings, "created_at ASC", "batch_index ASC", "id ASC")

	q, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var grades []academic.Grade
	if err = r.db.SelectContext(ctx, &grades, q, args...); err != nil {
		return nil, dbError(err, "selecting grades")
	}
	return grades, nil
}

// Attendance

func (r *academicRepository) SaveAttendance(ctx context.Context, records ...academic.AttendanceRecord) ([]academic.AttendanceRecord, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, dbError(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	saved := make([]academic.AttendanceRecord, len(records))
	for i, rec := range records {
		rec.Date = academic.Date(rec.Date)
		q, args, err := r.builder.Insert("attendance").
			Columns("id", "student_id", "class_id", "date", "status", "term", "academic_year").
			Values(uuid.NewString(), rec.StudentID, rec.ClassID, rec.Date, rec.Status, rec.Term, rec.AcademicYear).
			Suffix(`ON CONFLICT (student_id, date) DO UPDATE SET
				class_id = excluded.class_id,
				status = excluded.status,
				term = excluded.term,
				academic_year = excluded.academic_year
			RETURNING id`).
			ToSql()
		if err != nil {
			return nil, errors.Wrap(err, "building query")
		}
		if err = tx.GetContext(ctx, &rec.ID, q, args...); err != nil {
			return nil, dbError(err, "upserting attendance")
		}
		saved[i] = rec
	}

	if err = tx.Commit(); err != nil {
		return nil, dbError(err, "committing attendance")
	}
	return saved, nil
}

func (r *academicRepository) QueryAttendance(
	ctx context.Context,
	filter *academic.AttendanceFilter,
	ordering []core.DBOrdering,
) ([]academic.AttendanceRecord, error) {
	query := eqIfSet(r.builder.Select("*").From("attendance"), map[string]string{
		"student_id":    filter.StudentID,
		"class_id":      filter.ClassID,
		"status":        filter.Status,
		"term":          filter.Term,
		"academic_year": filter.AcademicYear,
	})
	if !filter.DateFrom.IsZero() {
		query = query.Where(sq.GtOrEq{"date": academic.Date(filter.DateFrom)})
	}
	if !filter.DateTo.IsZero() {
		query = query.Where(sq.LtOrEq{"date": academic.Date(filter.DateTo)})
	}
	query = orderBy(query, ordering, attendanceOrderings, "date ASC", "student_id ASC")

	q, args, err := query.ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	var records []academic.AttendanceRecord
	if err = r.db.SelectContext(ctx, &records, q, args...); err != nil {
		return nil, dbError(err, "selecting attendance")
	}
	return records, nil
}
