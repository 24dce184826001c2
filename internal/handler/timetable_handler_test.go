package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestTimetableHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(nil, nil, nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/timetables", bytes.NewReader([]byte(`invalid`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerOptimizeInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(nil, nil, nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/timetables/tt-1/optimize", bytes.NewReader([]byte(`{"timeoutSeconds":"soon"}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}

	handler.Optimize(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTimetableHandlerExportDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewTimetableHandler(nil, nil, nil, nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/timetables/tt-1/export", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "id", Value: "tt-1"}}

	handler.Export(c)
	require.Equal(t, http.StatusPreconditionFailed, w.Code)
}
