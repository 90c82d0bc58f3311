package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Take3Presents/RoomBot/internal/repository"
	"github.com/Take3Presents/RoomBot/internal/swap"
)

func runSwapError(t *testing.T, err error) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	require.NoError(t, swapError(c, err))
	return rec
}

func TestSwapError_StatusMapping(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{swap.ErrSwapsDisabled, http.StatusNotImplemented},
		{swap.ErrNotOwner, http.StatusForbidden},
		{swap.ErrIneligibleRoom, http.StatusBadRequest},
		{swap.ErrRoomCooldown, http.StatusBadRequest},
		{swap.ErrTypeMismatch, http.StatusBadRequest},
		{swap.ErrSelfSwap, http.StatusBadRequest},
		{swap.ErrCodeExpired, http.StatusBadRequest},
		{swap.ErrCodeNotFound, http.StatusNotFound},
		{swap.ErrCodeAlreadyRedeemed, http.StatusConflict},
		{swap.ErrCodeSpaceExhausted, http.StatusServiceUnavailable},
		{repository.ErrRoomNotFound, http.StatusNotFound},
		{repository.ErrConflict, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := runSwapError(t, tc.err)
		assert.Equal(t, tc.code, rec.Code, "error %v", tc.err)
	}
}

func TestSwapError_ConflictIsMarkedRetryable(t *testing.T) {
	rec := runSwapError(t, repository.ErrConflict)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"retryable":true`)
}

func TestSwapError_WrappedErrorsStillMap(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), swap.ErrCodeExpired)
	rec := runSwapError(t, wrapped)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
