package testutil

import (
	"context"
	"net/mail"
	"sync"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/auth"
	"github.com/trezcool/shule/core/finance"
	"github.com/trezcool/shule/storage/database"
)

var (
	testCtx = context.Background()

	FinanceAlertEmail = mail.Address{Name: "Bursar", Address: "bursar@test.cd"}
)

// Config returns the configuration used by tests.
func Config() *core.Config {
	conf := core.NewConfig()
	conf.Debug = false
	conf.TestMode = true
	conf.RollbarToken = ""
	conf.SendgridApiKey = ""
	conf.FinanceAlertEmails = []mail.Address{FinanceAlertEmail}
	return conf
}

// Validator returns a validator with every custom validation registered.
func Validator() (*validator.Validate, ut.Translator) {
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	finance.InitValidators(validate, translator)
	academic.InitValidators(validate, translator)
	return validate, translator
}

// OpenDB opens a migrated in-memory sqlite database, closed at the end of the test.
func OpenDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.OpenSQLite("file:" + uuid.NewString() + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("OpenDB() failed: %v", err)
	}
	if err = database.Migrate(db); err != nil {
		_ = db.Close()
		t.Fatalf("OpenDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// Token returns a signed token of `subject` holding `roles`.
func Token(t *testing.T, conf *core.Config, subject, name string, roles ...string) string {
	t.Helper()
	claims, err := auth.NewClaims(conf, subject, name, "", roles...)
	if err != nil {
		t.Fatalf("Token() failed: %v", err)
	}
	token, err := auth.GenerateToken(claims, conf)
	if err != nil {
		t.Fatalf("Token() failed: %v", err)
	}
	return token
}

type LogEntry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// LoggerMock records log entries instead of writing them.
type LoggerMock struct {
	mu      sync.Mutex
	entries []LogEntry
}

var _ core.Logger = (*LoggerMock)(nil)

func (l *LoggerMock) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Args: args})
	l.mu.Unlock()
}

func (l *LoggerMock) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l *LoggerMock) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l *LoggerMock) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l *LoggerMock) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l *LoggerMock) Fatal(msg string, args ...interface{}) { l.log("FATAL", msg, args) }

// Entries returns the recorded entries of the given level (all of them if empty).
func (l *LoggerMock) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var entries []LogEntry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			entries = append(entries, e)
		}
	}
	return entries
}

func Dec(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("Dec(%q) failed: %v", s, err)
	}
	return d
}

func CreateBudget(
	t *testing.T,
	repo finance.Repository,
	category, subcategory, term, year, amount string,
	createdAt ...time.Time,
) finance.Budget {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	bgt, err := repo.CreateBudget(testCtx, finance.Budget{
		Category:     category,
		Subcategory:  subcategory,
		Term:         term,
		AcademicYear: year,
		Amount:       Dec(t, amount),
		CreatedAt:    tstamp,
		UpdatedAt:    tstamp,
	})
	if err != nil {
		t.Fatalf("CreateBudget() failed: %v", err)
	}
	return bgt
}

func CreateExpense(
	t *testing.T,
	repo finance.Repository,
	category, subcategory, year, amount, status string,
	spentOn ...time.Time,
) finance.Expense {
	t.Helper()
	now := time.Now().UTC()
	spent := now
	if len(spentOn) > 0 {
		spent = spentOn[0].UTC()
	}
	exp := finance.Expense{
		Category:     category,
		Subcategory:  subcategory,
		Description:  category + " expense",
		Amount:       Dec(t, amount),
		AcademicYear: year,
		Status:       status,
		SpentOn:      spent,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if status != finance.ExpensePending {
		exp.ApprovedBy = null.StringFrom("admin")
		exp.ApprovedAt = null.TimeFrom(now)
	}
	exp, err := repo.CreateExpense(testCtx, exp)
	if err != nil {
		t.Fatalf("CreateExpense() failed: %v", err)
	}
	return exp
}

func CreateStudent(t *testing.T, repo academic.Repository, name, classID string) academic.Student {
	t.Helper()
	std, err := repo.CreateStudent(testCtx, academic.Student{
		Name:      name,
		ClassID:   classID,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateStudent() failed: %v", err)
	}
	return std
}

func CreateGrade(
	t *testing.T,
	repo academic.Repository,
	std academic.Student,
	subject string,
	period core.Period,
	marks, total float64,
) academic.Grade {
	t.Helper()
	grades, err := repo.CreateGrades(testCtx, academic.Grade{
		StudentID:    std.ID,
		ClassID:      std.ClassID,
		Subject:      subject,
		Term:         period.Term,
		AcademicYear: period.AcademicYear,
		Marks:        marks,
		TotalMarks:   total,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateGrade() failed: %v", err)
	}
	return grades[0]
}
