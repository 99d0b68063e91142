package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/shule/core/academic"
)

type academicApi struct {
	svc      academic.Service
	validate *validator.Validate
}

func registerAcademicAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc academic.Service, validate *validator.Validate) {
	api := academicApi{
		svc:      svc,
		validate: validate,
	}
	staff := staffMiddleware()

	sg := g.Group("/students", jwt)
	sg.GET("", api.queryStudents, staff)
	sg.POST("", api.enrollStudent, staff)

	// a student may see their own records
	dg := sg.Group("/:id", staffOrOwnStudentMiddleware())
	dg.GET("", api.retrieveStudent)
	dg.GET("/report-card", api.reportCard)

	gg := g.Group("/grades", jwt, staff)
	gg.GET("", api.queryGrades)
	gg.POST("", api.recordGrades)

	ag := g.Group("/attendance", jwt, staff)
	ag.GET("", api.queryAttendance)
	ag.POST("", api.recordAttendance)

	cg := g.Group("/classes", jwt, staff)
	cg.GET("/:id/ranking", api.classRanking)
}

// Students

func (api *academicApi) queryStudents(ctx echo.Context) error {
	filter := new(academic.StudentFilter)
	page, ordering, err := bindQuery(ctx, filter)
	if err != nil {
		return err
	}
	filter.Clean()

	students, err := api.svc.QueryStudents(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying students")
	}
	return respondPage(ctx, page, students, nil)
}

func (api *academicApi) enrollStudent(ctx echo.Context) error {
	var data academic.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, err := api.svc.EnrollStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "enrolling student")
	}
	return respond(ctx, http.StatusCreated, std)
}

func (api *academicApi) retrieveStudent(ctx echo.Context) error {
	std, err := api.svc.GetStudent(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return respond(ctx, http.StatusOK, std)
}

func (api *academicApi) reportCard(ctx echo.Context) error {
	period, err := bindPeriod(ctx, api.validate)
	if err != nil {
		return err
	}

	card, err := api.svc.GetReportCard(ctx.Request().Context(), ctx.Param("id"), period)
	if err != nil {
		return errors.Wrap(err, "getting report card")
	}
	return respond(ctx, http.StatusOK, card)
}

// Grades

func (api *academicApi) queryGrades(ctx echo.Context) error {
	filter := new(academic.GradeFilter)
	page, ordering, err := bindQuery(ctx, filter)
	if err != nil {
		return err
	}
	filter.Clean()

	grades, err := api.svc.QueryGrades(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying grades")
	}
	return respondPage(ctx, page, grades, nil)
}

func (api *academicApi) recordGrades(ctx echo.Context) error {
	var data academic.RecordGrades
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RecordGrades")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	grades, err := api.svc.RecordGrades(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording grades")
	}
	return respond(ctx, http.StatusCreated, grades)
}

// Attendance

func (api *academicApi) queryAttendance(ctx echo.Context) error {
	filter := new(academic.AttendanceFilter)
	page, ordering, err := bindQuery(ctx, filter)
	if err != nil {
		return err
	}
	var dates DateRange
	if err = dates.Bind(ctx, "date"); err != nil {
		return err
	}
	filter.DateFrom, filter.DateTo = dates.From, dates.To
	filter.Clean()

	records, summary, err := api.svc.QueryAttendance(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying attendance")
	}
	return respondPage(ctx, page, records, summary)
}

func (api *academicApi) recordAttendance(ctx echo.Context) error {
	var data academic.RecordAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RecordAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	records, err := api.svc.RecordAttendance(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "recording attendance")
	}
	return respond(ctx, http.StatusCreated, records)
}

// Rankings

func (api *academicApi) classRanking(ctx echo.Context) error {
	period, err := bindPeriod(ctx, api.validate)
	if err != nil {
		return err
	}

	ranking, err := api.svc.GetClassRanking(ctx.Request().Context(), ctx.Param("id"), period)
	if err != nil {
		return errors.Wrap(err, "getting class ranking")
	}
	return respond(ctx, http.StatusOK, ranking)
}
