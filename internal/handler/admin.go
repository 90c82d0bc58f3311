package handler

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/Take3Presents/RoomBot/internal/audit"
	"github.com/Take3Presents/RoomBot/internal/config"
	"github.com/Take3Presents/RoomBot/internal/repository"
	"github.com/Take3Presents/RoomBot/internal/swap"
	"github.com/Take3Presents/RoomBot/internal/utils"
)

// AdminHandler exposes the operational endpoints: the swaps kill-switch,
// forced code revocation, the consistency auditor, guest credential
// rotation, the maintenance window and the swap history.
type AdminHandler struct {
	Cfg      config.Config
	Engine   *swap.Engine
	Settings *swap.Settings
	Auditor  *audit.Auditor
	Guests   *repository.GuestRepo
	Rooms    *repository.RoomRepo
	Swaps    *repository.SwapLogRepo
	Strategy swap.Strategy

	mu          sync.Mutex
	maintenance *repository.MaintenanceLock
}

func NewAdminHandler(cfg config.Config, engine *swap.Engine, settings *swap.Settings,
	auditor *audit.Auditor, guests *repository.GuestRepo, rooms *repository.RoomRepo,
	swaps *repository.SwapLogRepo, strategy swap.Strategy) *AdminHandler {
	return &AdminHandler{
		Cfg: cfg, Engine: engine, Settings: settings, Auditor: auditor,
		Guests: guests, Rooms: rooms, Swaps: swaps, Strategy: strategy,
	}
}

// ----- kill-switch -----

type setSwapsReq struct {
	Enabled *bool `json:"enabled"`
}

// SetSwaps flips the global swaps kill-switch.  The change applies to
// requests from this moment on; transactions already in flight finish
// under the old setting.
func (h *AdminHandler) SetSwaps(c echo.Context) error {
	var req setSwapsReq
	if err := c.Bind(&req); err != nil || req.Enabled == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "enabled required"})
	}
	h.Settings.SetSwapsEnabled(*req.Enabled)
	log.Printf("admin: swaps enabled set to %v by %s", *req.Enabled, currentEmail(c))
	return c.JSON(http.StatusOK, echo.Map{"swaps_enabled": *req.Enabled})
}

// ----- room lookup -----

// LookupRoom resolves a room by hotel and room number, the identifiers
// operators actually have in front of them, and returns its full state
// including internal IDs for use with the other admin endpoints.
func (h *AdminHandler) LookupRoom(c echo.Context) error {
	hotel := c.Param("hotel")
	number := c.Param("number")
	ctx, cancel := reqCtx(c)
	defer cancel()

	rm, err := h.Rooms.GetByNumber(ctx, hotel, number)
	if err != nil {
		if errors.Is(err, repository.ErrRoomNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "room not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "lookup failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"room": rm})
}

// ----- forced revocation -----

// RevokeRoomCode cancels any active code on a room regardless of owner.
func (h *AdminHandler) RevokeRoomCode(c echo.Context) error {
	roomID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid room id"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Engine.Revoke(ctx, roomID, currentEmail(c), true); err != nil {
		return swapError(c, err)
	}
	log.Printf("admin: code on room %d revoked by %s", roomID, currentEmail(c))
	return c.JSON(http.StatusOK, echo.Map{"revoked": true})
}

// ----- auditor -----

// AuditScan runs a consistency scan and returns the open findings.
func (h *AdminHandler) AuditScan(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	findings, err := h.Auditor.Scan(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "scan failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"findings": findingViews(findings)})
}

// AuditFindings lists the open findings without rescanning.
func (h *AdminHandler) AuditFindings(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	findings, err := h.Auditor.ListOpen(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list findings failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"findings": findingViews(findings)})
}

// AuditRepair applies the safe fix for one repairable finding.
func (h *AdminHandler) AuditRepair(c echo.Context) error {
	id := c.Param("id")
	ctx, cancel := reqCtx(c)
	defer cancel()

	err := h.Auditor.Repair(ctx, id)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, echo.Map{"repaired": true})
	case errors.Is(err, repository.ErrFindingNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "finding not found or already resolved"})
	case errors.Is(err, audit.ErrNotRepairable):
		return c.JSON(http.StatusConflict, echo.Map{"error": "finding requires a manual decision"})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": "conflicting update, please retry", "retryable": true})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "repair failed"})
	}
}

// AuditDismiss closes a finding without touching data.
func (h *AdminHandler) AuditDismiss(c echo.Context) error {
	id := c.Param("id")
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Auditor.Dismiss(ctx, id); err != nil {
		if errors.Is(err, repository.ErrFindingNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "finding not found or already resolved"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "dismiss failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"dismissed": true})
}

type findingView struct {
	ID         string  `json:"id"`
	Kind       string  `json:"kind"`
	RoomID     *uint64 `json:"room_id,omitempty"`
	GuestID    *uint64 `json:"guest_id,omitempty"`
	Detail     string  `json:"detail"`
	Repairable bool    `json:"repairable"`
	DetectedAt string  `json:"detected_at"`
}

func findingViews(in []repository.Finding) []findingView {
	out := make([]findingView, 0, len(in))
	for _, f := range in {
		out = append(out, findingView{
			ID:         f.ID,
			Kind:       f.Kind,
			RoomID:     f.RoomID,
			GuestID:    f.GuestID,
			Detail:     f.Detail,
			Repairable: f.Repairable,
			DetectedAt: f.DetectedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	return out
}

// ----- credential rotation -----

type rotateReq struct {
	Email string `json:"email"`
}

// RotateCredential mints a fresh human-speakable passphrase for every
// guest record behind an email and returns it once.  Only the bcrypt hash
// is stored.
func (h *AdminHandler) RotateCredential(c echo.Context) error {
	var req rotateReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email required"})
	}

	passphrase, err := h.Strategy.NewCode()
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate credential failed"})
	}
	hash, err := utils.HashCredential(passphrase, h.Cfg.BcryptCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "hash credential failed"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	n, err := h.Guests.UpdateCredential(ctx, req.Email, hash)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "store credential failed"})
	}
	if n == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "no guest records for email"})
	}
	log.Printf("admin: credential rotated for %s (%d record(s)) by %s", req.Email, n, currentEmail(c))
	return c.JSON(http.StatusOK, echo.Map{"email": req.Email, "credential": passphrase, "records": n})
}

// ----- maintenance window -----

// OpenMaintenance takes the cluster-wide maintenance lock, fencing off
// swap commits and repairs until it is closed.  The lock lives on a
// pinned connection, so it is released automatically if this process
// dies.
func (h *AdminHandler) OpenMaintenance(c echo.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.maintenance != nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "maintenance window already open"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	lock, err := repository.AcquireMaintenanceLock(ctx, h.Rooms.DB())
	if err != nil {
		if errors.Is(err, repository.ErrMaintenanceHeld) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "maintenance window held elsewhere"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "open maintenance failed"})
	}
	h.maintenance = lock
	log.Printf("admin: maintenance window opened by %s", currentEmail(c))
	return c.JSON(http.StatusOK, echo.Map{"maintenance": "open"})
}

// CloseMaintenance releases the maintenance lock.
func (h *AdminHandler) CloseMaintenance(c echo.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.maintenance == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "no maintenance window open here"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.maintenance.Release(ctx); err != nil {
		log.Printf("admin: maintenance release failed: %v", err)
	}
	h.maintenance = nil
	log.Printf("admin: maintenance window closed by %s", currentEmail(c))
	return c.JSON(http.StatusOK, echo.Map{"maintenance": "closed"})
}

// ----- swap history -----

// RecentSwaps returns the most recent completed swaps.
func (h *AdminHandler) RecentSwaps(c echo.Context) error {
	limit := 50
	if s := c.QueryParam("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	swapsList, err := h.Swaps.ListRecent(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list swaps failed"})
	}
	type swapView struct {
		ID        uint64 `json:"id"`
		RoomOneID uint64 `json:"room_one_id"`
		RoomTwoID uint64 `json:"room_two_id"`
		GuestOne  uint64 `json:"guest_one_id"`
		GuestTwo  uint64 `json:"guest_two_id"`
		Code      string `json:"code"`
		CreatedAt string `json:"created_at"`
	}
	out := make([]swapView, 0, len(swapsList))
	for _, s := range swapsList {
		out = append(out, swapView{
			ID:        s.ID,
			RoomOneID: s.RoomOneID,
			RoomTwoID: s.RoomTwoID,
			GuestOne:  s.GuestOne,
			GuestTwo:  s.GuestTwo,
			Code:      s.Code,
			CreatedAt: s.CreatedAt.UTC().Format("2006-01-02 15:04:05"),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"swaps": out})
}
