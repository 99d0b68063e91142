package main

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/dgrijalva/jwt-go"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/academic"
	"github.com/trezcool/shule/core/auth"
	"github.com/trezcool/shule/core/finance"
	"github.com/trezcool/shule/services/email"
	"github.com/trezcool/shule/storage/database/inmem"
	"github.com/trezcool/shule/tests"
)

var period = core.Period{AcademicYear: "2024-2025", Term: core.Term1}

type fixture struct {
	cli     *commandLine
	out     *bytes.Buffer
	finRepo finance.Repository
	acaRepo academic.Repository
}

func setup(t *testing.T) fixture {
	t.Helper()
	conf := testutil.Config()
	db := inmemdb.Open()
	finRepo := inmemdb.NewFinanceRepository(db)
	acaRepo := inmemdb.NewAcademicRepository(db)
	out := new(bytes.Buffer)

	return fixture{
		cli: &commandLine{
			conf:   conf,
			finSvc: finance.NewService(finRepo, emailsvc.NewConsoleServiceMock(conf), new(testutil.LoggerMock), conf),
			acaSvc: academic.NewService(acaRepo),
			out:    out,
		},
		out:     out,
		finRepo: finRepo,
		acaRepo: acaRepo,
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, err)
	case tt.wantErrStr != "":
		if assert.Error(t, err) {
			assert.Equal(t, tt.wantErrStr, err.Error())
		}
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_root(t *testing.T) {
	f := setup(t)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErrStr: `unknown command "lol" for "shule-admin"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, f.cli.run(tt.args))
		})
	}
}

func Test_commandLine_migrate(t *testing.T) {
	f := setup(t)

	var gotCommand string
	migrateFunc = func(_ *sqlx.DB, command string, args ...string) error {
		gotCommand = command
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: `"lol": no such command`},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-by-one", args: []string{"migrate", "up-by-one"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "fee_discounts", "sql"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotCommand = ""
			tt.check(t, f.cli.run(tt.args))
			if len(tt.args) > 1 {
				assert.Equal(t, tt.args[1], gotCommand)
			}
		})
	}
}

func Test_commandLine_token(t *testing.T) {
	f := setup(t)

	tests := []cliTest{
		{name: "no flags", args: []string{"token"}, wantErr: errHelp},
		{name: "no role", args: []string{"token", "--subject", "staff-1"}, wantErr: errHelp},
		{name: "invalid role", args: []string{"token", "--subject", "staff-1", "--role", "lol"}, wantErrStr: "lol: invalid role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, f.cli.run(tt.args))
		})
	}

	t.Run("valid", func(t *testing.T) {
		f.out.Reset()
		err := f.cli.run([]string{
			"token", "--subject", "staff-1", "--name", "Mama Bursar",
			"--role", auth.RoleAdminBursar, "--role", auth.RoleTeacher,
		})
		require.NoError(t, err)

		claims := new(auth.Claims)
		_, err = jwt.ParseWithClaims(strings.TrimSpace(f.out.String()), claims, func(*jwt.Token) (interface{}, error) {
			return []byte(f.cli.conf.SecretKey), nil
		})
		require.NoError(t, err)
		assert.Equal(t, "staff-1", claims.Subject)
		assert.Equal(t, "Mama Bursar", claims.Name)
		assert.True(t, claims.IsAdmin)
		assert.True(t, claims.IsTeacher)
		assert.False(t, claims.IsStudent)
		assert.Equal(t, []string{auth.RoleAdminBursar, auth.RoleTeacher}, claims.Roles)
	})
}

func Test_commandLine_budgets(t *testing.T) {
	f := setup(t)

	t.Run("empty", func(t *testing.T) {
		f.out.Reset()
		require.NoError(t, f.cli.run([]string{"budgets"}))
		assert.Contains(t, f.out.String(), "no budgets found")
	})

	testutil.CreateBudget(t, f.finRepo, "Food", "", "", period.AcademicYear, "100")
	testutil.CreateBudget(t, f.finRepo, "Transport", "", "", period.AcademicYear, "200")
	testutil.CreateBudget(t, f.finRepo, "Food", "", "", "2023-2024", "50")
	testutil.CreateExpense(t, f.finRepo, "Food", "Lunch", period.AcademicYear, "95", finance.ExpenseApproved)
	testutil.CreateExpense(t, f.finRepo, "Transport", "", period.AcademicYear, "300", finance.ExpensePending)

	tests := []cliTest{
		{name: "invalid year", args: []string{"budgets", "--year", "2024"}, wantErrStr: `invalid academic year "2024"`},
		{name: "invalid term", args: []string{"budgets", "--term", "TERM4"}, wantErrStr: `invalid term "TERM4"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, f.cli.run(tt.args))
		})
	}

	t.Run("year", func(t *testing.T) {
		f.out.Reset()
		require.NoError(t, f.cli.run([]string{"budgets", "--year", period.AcademicYear}))

		out := f.out.String()
		assert.Contains(t, out, "Budgets")
		assert.Contains(t, out, "95.00")
		assert.Contains(t, out, string(finance.TierCritical))
		assert.Contains(t, out, string(finance.TierHealthy))
		assert.NotContains(t, out, "2023-2024")
		assert.Contains(t, out, "2 budget(s): allocated 300.00, spent 95.00, remaining 205.00")
		assert.Less(t, strings.Index(out, "Food"), strings.Index(out, "Transport"))
	})

	t.Run("all years", func(t *testing.T) {
		f.out.Reset()
		require.NoError(t, f.cli.run([]string{"budgets"}))

		out := f.out.String()
		assert.Contains(t, out, "3 budget(s)")
		// most recent year first
		assert.Less(t, strings.Index(out, period.AcademicYear), strings.Index(out, "2023-2024"))
	})
}

func Test_commandLine_ranking(t *testing.T) {
	f := setup(t)

	alice := testutil.CreateStudent(t, f.acaRepo, "Alice", "6A")
	bob := testutil.CreateStudent(t, f.acaRepo, "Bob", "6A")
	testutil.CreateStudent(t, f.acaRepo, "Carol", "6A") // ungraded
	testutil.CreateGrade(t, f.acaRepo, alice, "Maths", period, 40, 50)
	testutil.CreateGrade(t, f.acaRepo, alice, "English", period, 30, 50) // 70%
	testutil.CreateGrade(t, f.acaRepo, bob, "Maths", period, 45, 50)
	testutil.CreateGrade(t, f.acaRepo, bob, "English", period, 45, 50) // 90%

	tests := []cliTest{
		{name: "no flags", args: []string{"ranking"}, wantErr: errHelp},
		{name: "no year", args: []string{"ranking", "--class", "6A"}, wantErr: errHelp},
		{name: "invalid year", args: []string{"ranking", "--class", "6A", "--year", "2024-2026"}, wantErrStr: `invalid academic year "2024-2026"`},
		{name: "invalid term", args: []string{"ranking", "--class", "6A", "--year", "2024-2025", "--term", "lol"}, wantErrStr: `invalid term "lol"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, f.cli.run(tt.args))
		})
	}

	t.Run("ranked", func(t *testing.T) {
		f.out.Reset()
		require.NoError(t, f.cli.run([]string{"ranking", "--class", "6A", "--year", period.AcademicYear, "--term", period.Term}))

		out := f.out.String()
		assert.Contains(t, out, "Class 6A, 2024-2025 TERM1")
		assert.Contains(t, out, "90.00")
		assert.Contains(t, out, "70.00")
		assert.Contains(t, out, "90/100")
		assert.NotContains(t, out, "Carol")
		assert.Less(t, strings.Index(out, "Bob"), strings.Index(out, "Alice"))
	})

	t.Run("no grades", func(t *testing.T) {
		f.out.Reset()
		require.NoError(t, f.cli.run([]string{"ranking", "--class", "6B", "--year", period.AcademicYear}))
		assert.Contains(t, f.out.String(), "no graded students")
	})
}
