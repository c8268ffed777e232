package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func serve(t *testing.T, target string, h echo.HandlerFunc) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	e := echo.New()
	e.GET("/x", h)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return rec, env
}

func TestAppErrorResponseRetryAfter(t *testing.T) {
	rec, env := serve(t, "/x", func(c echo.Context) error {
		return AppErrorResponse(c, TooManyRequestsError("slow down", 1500*time.Millisecond))
	})
	assert.Equal(t, http.StatusTooManyRequests, env.Status)
	assert.Equal(t, "2", rec.Header().Get("Retry-After"))

	var errs []AppError
	require.NoError(t, json.Unmarshal(env.Data, &errs))
	require.Len(t, errs, 1)
	assert.Equal(t, "ERR_RATE_LIMITED", errs[0].Code)
}

func TestAppErrorResponseWrapped(t *testing.T) {
	_, env := serve(t, "/x", func(c echo.Context) error {
		return AppErrorResponse(c, errors.Join(errors.New("ctx"), ServiceUnavailableError("down")))
	})
	assert.Equal(t, http.StatusServiceUnavailable, env.Status)

	_, env = serve(t, "/x", func(c echo.Context) error {
		return AppErrorResponse(c, errors.New("plain"))
	})
	assert.Equal(t, http.StatusInternalServerError, env.Status)
}

func TestListResponse(t *testing.T) {
	_, env := serve(t, "/x", func(c echo.Context) error {
		return ListResponse(c, []int{1, 2}, 2, 10)
	})
	var page struct {
		Rows  []int `json:"rows"`
		Total int64 `json:"total"`
		Limit int   `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, []int{1, 2}, page.Rows)
	assert.EqualValues(t, 2, page.Total)
	assert.Equal(t, 10, page.Limit)
}

type pageRequest struct {
	N    int    `query:"n" default:"10" validate:"gte=1,lte=100"`
	Kind string `query:"kind" validate:"omitempty,oneof=a b"`
}

func TestReadAndValidateRequest(t *testing.T) {
	cases := []struct {
		target string
		code   string
		n      int
	}{
		{target: "/x", n: 10},
		{target: "/x?n=5&kind=a", n: 5},
		{target: "/x?n=101", code: "ERR_LTE"},
		{target: "/x?kind=c", code: "ERR_ONEOF"},
		{target: "/x?n=abc", code: "ERR_UNKNOWN"},
	}
	for _, tc := range cases {
		t.Run(tc.target, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, tc.target, nil), httptest.NewRecorder())
			req := &pageRequest{}
			errs := ReadAndValidateRequest(c, req)
			if tc.code == "" {
				require.Nil(t, errs)
				assert.Equal(t, tc.n, req.N)
				return
			}
			require.Len(t, errs, 1)
			assert.Equal(t, tc.code, errs[0].Code)
		})
	}
}
