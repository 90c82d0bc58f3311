package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Take3Presents/RoomBot/internal/repository"
	"github.com/Take3Presents/RoomBot/internal/swap"
)

// SwapHandler exposes the swap engine over HTTP.
type SwapHandler struct {
	Engine *swap.Engine
}

func NewSwapHandler(engine *swap.Engine) *SwapHandler {
	return &SwapHandler{Engine: engine}
}

// IssueCode mints or returns the active swap code for one of the caller's
// rooms.
func (h *SwapHandler) IssueCode(c echo.Context) error {
	email := currentEmail(c)
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	issued, err := h.Engine.IssueCode(ctx, roomID, email)
	if err != nil {
		return swapError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"code":       issued.Code,
		"issued_at":  issued.IssuedAt.Format("2006-01-02 15:04:05"),
		"expires_at": issued.ExpiresAt.Format("2006-01-02 15:04:05"),
	})
}

// RevokeCode cancels the active code on one of the caller's rooms.
func (h *SwapHandler) RevokeCode(c echo.Context) error {
	email := currentEmail(c)
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Engine.Revoke(ctx, roomID, email, false); err != nil {
		return swapError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"revoked": true})
}

type redeemReq struct {
	Code string `json:"code"`
}

// Redeem consumes a swap code shared by another guest and moves the
// caller into that guest's room, and them into the caller's.
func (h *SwapHandler) Redeem(c echo.Context) error {
	email := currentEmail(c)
	var req redeemReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code required"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	res, err := h.Engine.Redeem(ctx, req.Code, email)
	if err != nil {
		return swapError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// swapError maps engine errors onto HTTP responses.  Retryable conflicts
// carry a flag so clients know a plain retry may succeed.
func swapError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, swap.ErrSwapsDisabled):
		return c.JSON(http.StatusNotImplemented, echo.Map{"error": "swaps are currently disabled"})
	case errors.Is(err, swap.ErrNotOwner):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not your room"})
	case errors.Is(err, swap.ErrIneligibleRoom):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room is not eligible for swapping"})
	case errors.Is(err, swap.ErrRoomCooldown):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "room swapped too recently"})
	case errors.Is(err, swap.ErrTypeMismatch):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "rooms are not the same type"})
	case errors.Is(err, swap.ErrSelfSwap):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot redeem a code for your own room"})
	case errors.Is(err, swap.ErrCodeExpired):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "code has expired"})
	case errors.Is(err, swap.ErrCodeNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "code not found"})
	case errors.Is(err, swap.ErrCodeAlreadyRedeemed):
		return c.JSON(http.StatusConflict, echo.Map{"error": "code already redeemed"})
	case errors.Is(err, swap.ErrCodeSpaceExhausted):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "could not allocate a code, try again later"})
	case errors.Is(err, repository.ErrRoomNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting update, please retry", "retryable": true})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "swap operation failed"})
	}
}
