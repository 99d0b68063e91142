package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/shule/core"
)

// Response is the envelope of every successful API response.
type Response struct {
	Success    bool             `json:"success"`
	Data       interface{}      `json:"data"`
	Pagination *core.Pagination `json:"pagination,omitempty"`
	Summary    interface{}      `json:"summary,omitempty"`
}

func respond(ctx echo.Context, code int, data interface{}) error {
	return ctx.JSON(code, Response{Success: true, Data: data})
}

// respondPage responds with the requested page of `items`, along with an optional summary of all of them.
func respondPage[T any](ctx echo.Context, page core.PageRequest, items []T, summary interface{}) error {
	start, end := page.Bounds(len(items))
	pagination := core.NewPagination(page, len(items))
	data := items[start:end]
	if data == nil {
		data = []T{}
	}
	return ctx.JSON(http.StatusOK, Response{
		Success:    true,
		Data:       data,
		Pagination: &pagination,
		Summary:    summary,
	})
}
