package echoapi_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/auth"
	"github.com/trezcool/shule/tests"
)

var term1 = core.Period{AcademicYear: year, Term: core.Term1}

func periodQuery(p core.Period) string {
	return url.Values{"academic_year": {p.AcademicYear}, "term": {p.Term}}.Encode()
}

func Test_academicApi_students(t *testing.T) {
	f := setup(t)
	testutil.CreateStudent(t, f.acaRepo, "Alice Mbuyi", "5A")
	testutil.CreateStudent(t, f.acaRepo, "Bob Kabila", "5B")

	rec := f.do(http.MethodPost, "/v1/students", f.teacher, []byte(`{"name": " Carol Ilunga ", "class_id": "5A"}`))
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %v, want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	var carol academic.Student
	decode(t, rec, &carol)
	assert.Equal(t, "Carol Ilunga", carol.Name)
	assert.NotEmpty(t, carol.ID)

	tests := []struct {
		name      string
		query     url.Values
		wantNames []string
	}{
		{"all", url.Values{"ordering": {"name"}}, []string{"Alice Mbuyi", "Bob Kabila", "Carol Ilunga"}},
		{"by class", url.Values{"class_id": {"5A"}, "ordering": {"-name"}}, []string{"Carol Ilunga", "Alice Mbuyi"}},
		{"search", url.Values{"search": {"kabi"}}, []string{"Bob Kabila"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodGet, "/v1/students?"+tt.query.Encode(), f.teacher)
			var students []academic.Student
			decode(t, rec, &students)
			names := make([]string, len(students))
			for i, std := range students {
				names[i] = std.Name
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}

	rec = f.do(http.MethodPost, "/v1/students", f.teacher, []byte(`{"name": "Dan"}`))
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: []byte(`{"class_id": "this field is required"}`),
	}, rec)
}

func Test_academicApi_recordGrades(t *testing.T) {
	f := setup(t)
	alice := testutil.CreateStudent(t, f.acaRepo, "Alice", "5A")

	grade := func(studentID string, marks, total float64) string {
		return fmt.Sprintf(
			`{"student_id": %q, "subject": "Maths", "term": "TERM1", "academic_year": "2024-2025", "marks": %v, "total_marks": %v}`,
			studentID, marks, total,
		)
	}

	tests := []httpTest{
		{
			name:     "empty",
			method:   http.MethodPost,
			path:     "/v1/grades",
			body:     []byte(`{"grades": []}`),
			token:    f.teacher,
			wantCode: http.StatusBadRequest,
		},
		{
			name:     "marks above total",
			method:   http.MethodPost,
			path:     "/v1/grades",
			body:     []byte(`{"grades": [` + grade(alice.ID, 70, 100) + `,` + grade(alice.ID, 120, 100) + `]}`),
			token:    f.teacher,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"grades[1].marks": "marks cannot be greater than the total marks"}`),
		},
		{
			name:     "unknown student",
			method:   http.MethodPost,
			path:     "/v1/grades",
			body:     []byte(`{"grades": [` + grade("ghost", 70, 100) + `]}`),
			token:    f.teacher,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"grades[0].student_id": "student not found"}`),
		},
		{
			name:     "valid",
			method:   http.MethodPost,
			path:     "/v1/grades",
			body:     []byte(`{"grades": [` + grade(alice.ID, 70, 100) + `]}`),
			token:    f.teacher,
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}

	rec := f.do(http.MethodGet, "/v1/grades?student_id="+alice.ID, f.teacher)
	var grades []academic.Grade
	decode(t, rec, &grades)
	if assert.Len(t, grades, 1, "failed batches record nothing") {
		assert.Equal(t, "5A", grades[0].ClassID)
		assert.Equal(t, 70.0, grades[0].Marks)
	}
}

func Test_academicApi_attendance(t *testing.T) {
	f := setup(t)
	alice := testutil.CreateStudent(t, f.acaRepo, "Alice", "5A")
	bob := testutil.CreateStudent(t, f.acaRepo, "Bob", "5A")

	record := func(studentID, date, status string) string {
		return fmt.Sprintf(
			`{"student_id": %q, "date": %q, "status": %q, "term": "TERM1", "academic_year": "2024-2025"}`,
			studentID, date, status,
		)
	}
	body := `{"records": [` +
		record(alice.ID, "2024-10-14T08:00:00Z", "present") + `,` +
		record(bob.ID, "2024-10-14T08:00:00Z", "absent") + `,` +
		record(alice.ID, "2024-10-15T08:00:00Z", "LATE") + `,` +
		record(bob.ID, "2024-10-15T08:00:00Z", "excused") + `]}`

	rec := f.do(http.MethodPost, "/v1/attendance", f.teacher, []byte(body))
	if rec.Code != http.StatusCreated {
		t.Fatalf("code = %v, want %v; body %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	rec = f.do(http.MethodPost, "/v1/attendance", f.teacher, []byte(`{"records": [`+record(bob.ID, "2024-10-15T08:00:00Z", "asleep")+`]}`))
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusBadRequest,
		wantData: []byte(`{"records[0].status": "must be one of present, absent, late or excused"}`),
	}, rec)

	tests := []struct {
		name        string
		query       url.Values
		wantCount   int
		wantSummary academic.AttendanceSummary
	}{
		{
			name:        "class",
			query:       url.Values{"class_id": {"5A"}},
			wantCount:   4,
			wantSummary: academic.AttendanceSummary{Total: 4, Present: 1, Absent: 1, Late: 1, Excused: 1, AttendanceRate: 50},
		},
		{
			name:        "student",
			query:       url.Values{"student_id": {alice.ID}},
			wantCount:   2,
			wantSummary: academic.AttendanceSummary{Total: 2, Present: 1, Late: 1, AttendanceRate: 100},
		},
		{
			name:        "day",
			query:       url.Values{"date_from": {"2024-10-15"}, "date_to": {"2024-10-15"}},
			wantCount:   2,
			wantSummary: academic.AttendanceSummary{Total: 2, Late: 1, Excused: 1, AttendanceRate: 50},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(http.MethodGet, "/v1/attendance?"+tt.query.Encode(), f.teacher)
			var records []academic.AttendanceRecord
			env := decode(t, rec, &records)
			assert.Len(t, records, tt.wantCount)

			var summary academic.AttendanceSummary
			if err := json.Unmarshal(env.Summary, &summary); err != nil {
				t.Fatalf("summary error = %v", err)
			}
			assert.Equal(t, tt.wantSummary, summary)
		})
	}
}

func Test_academicApi_reports(t *testing.T) {
	f := setup(t)
	alice := testutil.CreateStudent(t, f.acaRepo, "Alice", "5A")
	bob := testutil.CreateStudent(t, f.acaRepo, "Bob", "5A")
	carol := testutil.CreateStudent(t, f.acaRepo, "Carol", "5A")
	testutil.CreateGrade(t, f.acaRepo, alice, "Maths", term1, 90, 100)
	testutil.CreateGrade(t, f.acaRepo, bob, "Maths", term1, 90, 100)
	testutil.CreateGrade(t, f.acaRepo, carol, "Maths", term1, 70, 100)

	aliceToken := testutil.Token(t, f.conf, alice.ID, alice.Name, auth.RoleStudent)

	t.Run("ranking", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/classes/5A/ranking?"+periodQuery(term1), f.teacher)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v, want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var ranking academic.ClassRanking
		decode(t, rec, &ranking)
		assert.Equal(t, 3, ranking.TotalStudents)
		if assert.Len(t, ranking.Students, 3) {
			for i, want := range []struct {
				name  string
				rank  int
				grade string
			}{{"Alice", 1, "A"}, {"Bob", 2, "A"}, {"Carol", 3, "B"}} {
				assert.Equal(t, want.name, ranking.Students[i].Name)
				assert.Equal(t, want.rank, ranking.Students[i].Rank)
				assert.Equal(t, want.grade, ranking.Students[i].Grade)
			}
		}
	})

	t.Run("own report card", func(t *testing.T) {
		rec := f.do(http.MethodGet, "/v1/students/"+alice.ID+"/report-card?"+periodQuery(term1), aliceToken)
		if rec.Code != http.StatusOK {
			t.Fatalf("code = %v, want %v; body %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		var card academic.ReportCard
		decode(t, rec, &card)
		assert.Equal(t, alice.ID, card.Student.ID)
		assert.Equal(t, 1, card.Rank)
		assert.Equal(t, 3, card.TotalStudents)
		assert.Equal(t, "A", card.Grade)
	})

	tests := []httpTest{
		{
			name:     "someone else's report card",
			method:   http.MethodGet,
			path:     "/v1/students/" + bob.ID + "/report-card?" + periodQuery(term1),
			token:    aliceToken,
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, errForbidden),
		},
		{
			name:     "teacher",
			method:   http.MethodGet,
			path:     "/v1/students/" + carol.ID + "/report-card?" + periodQuery(term1),
			token:    f.teacher,
			wantCode: http.StatusOK,
		},
		{
			name:     "own profile",
			method:   http.MethodGet,
			path:     "/v1/students/" + alice.ID,
			token:    aliceToken,
			wantCode: http.StatusOK,
		},
		{
			name:     "unknown student",
			method:   http.MethodGet,
			path:     "/v1/students/ghost/report-card?" + periodQuery(term1),
			token:    f.teacher,
			wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: academic.ErrStudentNotFound.Error()}),
		},
		{
			name:     "invalid term",
			method:   http.MethodGet,
			path:     "/v1/classes/5A/ranking?academic_year=2024-2025&term=T4",
			token:    f.teacher,
			wantCode: http.StatusBadRequest,
			wantData: []byte(`{"term": "must be one of TERM1, TERM2 or TERM3"}`),
		},
		{
			name:     "student on ranking",
			method:   http.MethodGet,
			path:     "/v1/classes/5A/ranking?" + periodQuery(term1),
			token:    aliceToken,
			wantCode: http.StatusForbidden,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt.method, tt.path, tt.token, tt.body)
			checkCodeAndData(t, tt, rec)
		})
	}
}
