package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Take3Presents/RoomBot/internal/config"
	"github.com/Take3Presents/RoomBot/internal/model"
	"github.com/Take3Presents/RoomBot/internal/repository"
	"github.com/Take3Presents/RoomBot/internal/swap"
)

// RoomHandler serves the guest-facing room views.
type RoomHandler struct {
	Cfg      config.Config
	Rooms    *repository.RoomRepo
	Settings *swap.Settings
}

func NewRoomHandler(cfg config.Config, rooms *repository.RoomRepo, settings *swap.Settings) *RoomHandler {
	return &RoomHandler{Cfg: cfg, Rooms: rooms, Settings: settings}
}

// roomView is the guest-facing projection of a room.  Internal IDs and
// other guests' details stay server-side; the swap code appears only on
// the owner's own rooms.
type roomView struct {
	ID           uint64  `json:"id"`
	Number       string  `json:"number"`
	Hotel        string  `json:"hotel"`
	RoomType     string  `json:"room_type"`
	CheckIn      *string `json:"check_in,omitempty"`
	CheckOut     *string `json:"check_out,omitempty"`
	Primary      string  `json:"primary,omitempty"`
	Secondary    string  `json:"secondary,omitempty"`
	Swappable    bool    `json:"swappable"`
	OnCooldown   bool    `json:"on_cooldown"`
	SwapCode     *string `json:"swap_code,omitempty"`
	CodeExpires  *string `json:"code_expires,omitempty"`
	SwapsEnabled bool    `json:"swaps_enabled"`
}

func (h *RoomHandler) view(rm *model.Room, now time.Time, owner bool) roomView {
	v := roomView{
		ID:           rm.ID,
		Number:       rm.Number,
		Hotel:        rm.Hotel,
		RoomType:     rm.RoomType,
		Swappable:    rm.Swappable(),
		OnCooldown:   rm.OnCooldown(now, h.Settings.Cooldown()),
		SwapsEnabled: h.Settings.SwapsEnabled(),
	}
	if rm.CheckIn != nil {
		s := rm.CheckIn.Format("2006-01-02")
		v.CheckIn = &s
	}
	if rm.CheckOut != nil {
		s := rm.CheckOut.Format("2006-01-02")
		v.CheckOut = &s
	}
	if owner {
		v.Primary = rm.Primary
		v.Secondary = rm.Secondary
		if rm.SwapCode != nil && rm.SwapCodeAt != nil {
			exp := rm.SwapCodeAt.Add(h.Settings.CodeTTL())
			if now.Before(exp) {
				v.SwapCode = rm.SwapCode
				s := exp.Format("2006-01-02 15:04:05")
				v.CodeExpires = &s
			}
		}
	}
	return v
}

// MyRooms lists every room held by the authenticated guest across the
// visible hotels, including active code details for each.
func (h *RoomHandler) MyRooms(c echo.Context) error {
	email := currentEmail(c)
	if email == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthenticated"})
	}
	ctx, cancel := reqCtx(c)
	defer cancel()

	rooms, err := h.Rooms.ListByGuestEmail(ctx, email, h.Cfg.VisibleHotels)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list rooms failed"})
	}
	now := time.Now().UTC()
	out := make([]roomView, 0, len(rooms))
	for i := range rooms {
		out = append(out, h.view(&rooms[i], now, true))
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": out})
}

// Browse lists occupied rooms in the visible hotels without occupant
// details.  The route sits behind the response cache; the payload is
// identical for every caller.
func (h *RoomHandler) Browse(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	rooms, err := h.Rooms.ListOccupied(ctx, h.Cfg.VisibleHotels)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list rooms failed"})
	}
	now := time.Now().UTC()
	out := make([]roomView, 0, len(rooms))
	for i := range rooms {
		out = append(out, h.view(&rooms[i], now, false))
	}
	return c.JSON(http.StatusOK, echo.Map{"rooms": out})
}
