package academic

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shule/core"
)

// Attendance statuses
const (
	AttendancePresent = "present"
	AttendanceAbsent  = "absent"
	AttendanceLate    = "late"
	AttendanceExcused = "excused"
)

var AttendanceStatuses = []string{AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused}

func IsValidAttendanceStatus(status string) bool {
	for _, s := range AttendanceStatuses {
		if status == s {
			return true
		}
	}
	return false
}

type Student struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ClassID   string    `json:"class_id"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// NewStudent contains information needed to enroll a new Student.
type NewStudent struct {
	Name    string `json:"name" validate:"required,notblank,max=100"`
	ClassID string `json:"class_id" validate:"required,notblank,max=50"`
}

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.Name = core.CleanString(ns.Name)
	ns.ClassID = core.CleanString(ns.ClassID)
	return validate.Struct(ns)
}

type StudentFilter struct {
	ClassID string `query:"class_id"`
	Search  string `query:"search"` // case-insensitive match on the name
}

func (sf *StudentFilter) Clean() {
	sf.ClassID = core.CleanString(sf.ClassID)
	sf.Search = core.CleanString(sf.Search)
}

type Grade struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	ClassID      string    `json:"class_id"`
	Subject      string    `json:"subject"`
	Term         string    `json:"term"`
	AcademicYear string    `json:"academic_year"`
	Marks        float64   `json:"marks"`
	TotalMarks   float64   `json:"total_marks"`
	CreatedAt    time.Time `json:"created_at"` // UTC
}

type NewGrade struct {
	StudentID    string  `json:"student_id" validate:"required,notblank"`
	Subject      string  `json:"subject" validate:"required,notblank,max=100"`
	Term         string  `json:"term" validate:"required,term"`
	AcademicYear string  `json:"academic_year" validate:"required,academic_year"`
	Marks        float64 `json:"marks" validate:"gte=0,ltefield=TotalMarks"`
	TotalMarks   float64 `json:"total_marks" validate:"gt=0"`
}

// RecordGrades is a batch of grades recorded at once.
type RecordGrades struct {
	Grades []NewGrade `json:"grades" validate:"required,min=1,dive"`
}

func (rg *RecordGrades) Validate(validate *validator.Validate) error {
	for i := range rg.Grades {
		g := &rg.Grades[i]
		g.StudentID = core.CleanString(g.StudentID)
		g.Subject = core.CleanString(g.Subject)
		g.Term = core.CleanString(g.Term)
		g.AcademicYear = core.CleanString(g.AcademicYear)
	}
	return validate.Struct(rg)
}

type GradeFilter struct {
	StudentID    string `query:"student_id"`
	ClassID      string `query:"class_id"`
	Subject      string `query:"subject"`
	Term         string `query:"term"`
	AcademicYear string `query:"academic_year"`
}

func (gf *GradeFilter) Clean() {
	gf.StudentID = core.CleanString(gf.StudentID)
	gf.ClassID = core.CleanString(gf.ClassID)
	gf.Subject = core.CleanString(gf.Subject)
	gf.Term = core.CleanString(gf.Term)
	gf.AcademicYear = core.CleanString(gf.AcademicYear)
}

type AttendanceRecord struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	ClassID      string    `json:"class_id"`
	Date         time.Time `json:"date"` // UTC midnight
	Status       string    `json:"status"`
	Term         string    `json:"term"`
	AcademicYear string    `json:"academic_year"`
}

type NewAttendance struct {
	StudentID    string    `json:"student_id" validate:"required,notblank"`
	Date         time.Time `json:"date" validate:"required"`
	Status       string    `json:"status" validate:"required,attendance_status"`
	Term         string    `json:"term" validate:"required,term"`
	AcademicYear string    `json:"academic_year" validate:"required,academic_year"`
}

// RecordAttendance is a batch of attendance records. Re-recording a student's day overwrites it.
type RecordAttendance struct {
	Records []NewAttendance `json:"records" validate:"required,min=1,dive"`
}

func (ra *RecordAttendance) Validate(validate *validator.Validate) error {
	for i := range ra.Records {
		r := &ra.Records[i]
		r.StudentID = core.CleanString(r.StudentID)
		r.Status = core.CleanString(r.Status, true /* lower */)
		r.Term = core.CleanString(r.Term)
		r.AcademicYear = core.CleanString(r.AcademicYear)
	}
	return validate.Struct(ra)
}

type AttendanceFilter struct {
	StudentID    string    `query:"student_id"`
	ClassID      string    `query:"class_id"`
	Status       string    `query:"status"`
	Term         string    `query:"term"`
	AcademicYear string    `query:"academic_year"`
	DateFrom     time.Time `query:"-"` // date_from
	DateTo       time.Time `query:"-"` // date_to
}

func (af *AttendanceFilter) Clean() {
	af.StudentID = core.CleanString(af.StudentID)
	af.ClassID = core.CleanString(af.ClassID)
	af.Status = core.CleanString(af.Status, true /* lower */)
	af.Term = core.CleanString(af.Term)
	af.AcademicYear = core.CleanString(af.AcademicYear)
}

type AttendanceSummary struct {
	Total          int     `json:"total"`
	Present        int     `json:"present"`
	Absent         int     `json:"absent"`
	Late           int     `json:"late"`
	Excused        int     `json:"excused"`
	AttendanceRate float64 `json:"attendance_rate"` // (present + late) / total, as a percentage
}

func SummarizeAttendance(records []AttendanceRecord) AttendanceSummary {
	var sum AttendanceSummary
	for _, r := range records {
		sum.Total++
		switch r.Status {
		case AttendancePresent:
			sum.Present++
		case AttendanceAbsent:
			sum.Absent++
		case AttendanceLate:
			sum.Late++
		case AttendanceExcused:
			sum.Excused++
		}
	}
	sum.AttendanceRate = round2(percentage(float64(sum.Present+sum.Late), float64(sum.Total)))
	return sum
}

// Date truncates t to its UTC day.
func Date(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
