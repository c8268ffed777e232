package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// DataResponse writes the envelope with the given logical status.
func DataResponse(c echo.Context, statusCode int, data any) error {
	return c.JSON(http.StatusOK, APIResponse{
		Status:  statusCode,
		Message: http.StatusText(statusCode),
		Data:    data,
	})
}

// ListResponse writes a page of rows.
func ListResponse(c echo.Context, rows any, total int64, limit int) error {
	return DataResponse(c, http.StatusOK, &ListDataResponse{
		Rows:  rows,
		Total: total,
		Limit: limit,
	})
}

func SuccessResponse(c echo.Context, data any) error {
	return DataResponse(c, http.StatusOK, data)
}

// BadRequestResponse writes validation errors.
func BadRequestResponse(c echo.Context, errs []ValidationError) error {
	return DataResponse(c, http.StatusBadRequest, errs)
}

// AppErrorResponse writes an *AppError found in err's chain, or a generic
// 500 for anything else.
func AppErrorResponse(c echo.Context, err error) error {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return DataResponse(c, http.StatusInternalServerError, "Something went wrong")
	}
	if appErr.RetryAfter > 0 {
		c.Response().Header().Set("Retry-After", strconv.Itoa(appErr.RetryAfter))
	}
	return DataResponse(c, appErr.Status, []*AppError{appErr})
}
