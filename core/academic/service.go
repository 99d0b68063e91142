package academic

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/shule/core"
)

var (
	// errors
	ErrStudentNotFound = errors.New("student not found")
)

type (
	Repository interface {
		CreateStudent(ctx context.Context, std Student) (Student, error)
		GetStudentByID(ctx context.Context, id string) (Student, error)
		// QueryStudents applies AND operation on available StudentFilter fields.
		QueryStudents(ctx context.Context, filter *StudentFilter, ordering []core.DBOrdering) ([]Student, error)

		CreateGrades(ctx context.Context, grades ...Grade) ([]Grade, error)
		QueryGrades(ctx context.Context, filter *GradeFilter, ordering []core.DBOrdering) ([]Grade, error)

		// SaveAttendance inserts the records, replacing any existing record for the same student and date.
		SaveAttendance(ctx context.Context, records ...AttendanceRecord) ([]AttendanceRecord, error)
		QueryAttendance(ctx context.Context, filter *AttendanceFilter, ordering []core.DBOrdering) ([]AttendanceRecord, error)
	}

	Service interface {
		EnrollStudent(ctx context.Context, ns NewStudent) (Student, error)
		GetStudent(ctx context.Context, id string) (Student, error)
		QueryStudents(ctx context.Context, filter *StudentFilter, ordering []core.DBOrdering) ([]Student, error)

		RecordGrades(ctx context.Context, rg RecordGrades) ([]Grade, error)
		QueryGrades(ctx context.Context, filter *GradeFilter, ordering []core.DBOrdering) ([]Grade, error)

		RecordAttendance(ctx context.Context, ra RecordAttendance) ([]AttendanceRecord, error)
		QueryAttendance(ctx context.Context, filter *AttendanceFilter, ordering []core.DBOrdering) ([]AttendanceRecord, AttendanceSummary, error)

		GetReportCard(ctx context.Context, studentID string, period core.Period) (ReportCard, error)
		GetClassRanking(ctx context.Context, classID string, period core.Period) (ClassRanking, error)
	}

	service struct {
		repo Repository
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

// Students

func (svc *service) EnrollStudent(ctx context.Context, ns NewStudent) (Student, error) {
	std, err := svc.repo.CreateStudent(ctx, Student{
		Name:      ns.Name,
		ClassID:   ns.ClassID,
		CreatedAt: time.Now().UTC(),
	})
	return std, errors.Wrap(err, "creating student")
}

func (svc *service) GetStudent(ctx context.Context, id string) (Student, error) {
	return svc.repo.GetStudentByID(ctx, id)
}

func (svc *service) QueryStudents(ctx context.Context, filter *StudentFilter, ordering []core.DBOrdering) ([]Student, error) {
	if filter == nil {
		filter = new(StudentFilter)
	}
	return svc.repo.QueryStudents(ctx, filter, ordering)
}

// students loads the students referenced by a batch, by ID.
// An unknown student is reported against its position in the batch (eg: "grades[2].student_id").
func (svc *service) students(ctx context.Context, batchField string, ids []string) (map[string]Student, error) {
	students := make(map[string]Student, len(ids))
	for i, id := range ids {
		if _, ok := students[id]; ok {
			continue
		}
		std, err := svc.repo.GetStudentByID(ctx, id)
		if err != nil {
			if errors.Cause(err) == ErrStudentNotFound {
				return nil, core.NewValidationError(err, core.FieldError{
					Field: fieldPath(batchField, i, "student_id"),
					Error: err.Error(),
				})
			}
			return nil, errors.Wrap(err, "finding student by ID")
		}
		students[id] = std
	}
	return students, nil
}

func fieldPath(batch string, idx int, field string) string {
	return fmt.Sprintf("%s[%d].%s", batch, idx, field)
}

// Grades

func (svc *service) RecordGrades(ctx context.Context, rg RecordGrades) ([]Grade, error) {
	ids := make([]string, len(rg.Grades))
	for i, ng := range rg.Grades {
		ids[i] = ng.StudentID
	}
	students, err := svc.students(ctx, "grades", ids)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	grades := make([]Grade, len(rg.Grades))
	for i, ng := range rg.Grades {
		grades[i] = Grade{
			StudentID:    ng.StudentID,
			ClassID:      students[ng.StudentID].ClassID,
			Subject:      ng.Subject,
			Term:         ng.Term,
			AcademicYear: ng.AcademicYear,
			Marks:        ng.Marks,
			TotalMarks:   ng.TotalMarks,
			CreatedAt:    now,
		}
	}
	grades, err = svc.repo.CreateGrades(ctx, grades...)
	return grades, errors.Wrap(err, "creating grades")
}

func (svc *service) QueryGrades(ctx context.Context, filter *GradeFilter, ordering []core.DBOrdering) ([]Grade, error) {
	if filter == nil {
		filter = new(GradeFilter)
	}
	return svc.repo.QueryGrades(ctx, filter, ordering)
}

// Attendance

func (svc *service) RecordAttendance(ctx context.Context, ra RecordAttendance) ([]AttendanceRecord, error) {
	ids := make([]string, len(ra.Records))
	for i, na := range ra.Records {
		ids[i] = na.StudentID
	}
	students, err := svc.students(ctx, "records", ids)
	if err != nil {
		return nil, err
	}

	records := make([]AttendanceRecord, len(ra.Records))
	for i, na := range ra.Records {
		records[i] = AttendanceRecord{
			StudentID:    na.StudentID,
			ClassID:      students[na.StudentID].ClassID,
			Date:         Date(na.Date),
			Status:       na.Status,
			Term:         na.Term,
			AcademicYear: na.AcademicYear,
		}
	}
	records, err = svc.repo.SaveAttendance(ctx, records...)
	return records, errors.Wrap(err, "saving attendance")
}

func (svc *service) QueryAttendance(
	ctx context.Context,
	filter *AttendanceFilter,
	ordering []core.DBOrdering,
) ([]AttendanceRecord, AttendanceSummary, error) {
	if filter == nil {
		filter = new(AttendanceFilter)
	}
	records, err := svc.repo.QueryAttendance(ctx, filter, ordering)
	if err != nil {
		return nil, AttendanceSummary{}, err
	}
	return records, SummarizeAttendance(records), nil
}

// Reports

// GetReportCard ranks the student within their current class for the period.
func (svc *service) GetReportCard(ctx context.Context, studentID string, period core.Period) (ReportCard, error) {
	std, err := svc.repo.GetStudentByID(ctx, studentID)
	if err != nil {
		return ReportCard{}, err
	}

	classGrades, err := svc.repo.QueryGrades(ctx, &GradeFilter{
		ClassID:      std.ClassID,
		Term:         period.Term,
		AcademicYear: period.AcademicYear,
	}, nil)
	if err != nil {
		return ReportCard{}, errors.Wrap(err, "querying class grades")
	}

	var grades []Grade
	for _, g := range classGrades {
		if g.StudentID == std.ID {
			grades = append(grades, g)
		}
	}

	attendance, err := svc.repo.QueryAttendance(ctx, &AttendanceFilter{
		StudentID:    std.ID,
		Term:         period.Term,
		AcademicYear: period.AcademicYear,
	}, nil)
	if err != nil {
		return ReportCard{}, errors.Wrap(err, "querying attendance")
	}

	cohort := RankCohort(CohortFromGrades(classGrades))
	return NewReportCard(std, period, grades, attendance, cohort), nil
}

type (
	ClassRanking struct {
		ClassID       string         `json:"class_id"`
		Period        core.Period    `json:"period"`
		TotalStudents int            `json:"total_students"`
		Students      []RankingEntry `json:"students"`
	}

	RankingEntry struct {
		RankedStudent
		Name string `json:"name"`
	}
)

func (svc *service) GetClassRanking(ctx context.Context, classID string, period core.Period) (ClassRanking, error) {
	grades, err := svc.repo.QueryGrades(ctx, &GradeFilter{
		ClassID:      classID,
		Term:         period.Term,
		AcademicYear: period.AcademicYear,
	}, nil)
	if err != nil {
		return ClassRanking{}, errors.Wrap(err, "querying class grades")
	}

	students, err := svc.repo.QueryStudents(ctx, &StudentFilter{ClassID: classID}, nil)
	if err != nil {
		return ClassRanking{}, errors.Wrap(err, "querying students")
	}
	names := make(map[string]string, len(students))
	for _, std := range students {
		names[std.ID] = std.Name
	}

	ranked := RankCohort(CohortFromGrades(grades))
	ranking := ClassRanking{
		ClassID:       classID,
		Period:        period,
		TotalStudents: len(ranked),
		Students:      make([]RankingEntry, len(ranked)),
	}
	for i, rs := range ranked {
		ranking.Students[i] = RankingEntry{RankedStudent: rs, Name: names[rs.StudentID]}
	}
	return ranking, nil
}
