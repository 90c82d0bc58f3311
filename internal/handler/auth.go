package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Take3Presents/RoomBot/internal/config"
	"github.com/Take3Presents/RoomBot/internal/repository"
	"github.com/Take3Presents/RoomBot/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.  Staff and guests
// share one login endpoint: staff accounts are checked first, then guest
// records keyed by email.  Guests receive their initial passphrase out of
// band with their room placement.
type AuthHandler struct {
	Cfg    config.Config
	Staff  *repository.StaffRepo
	Guests *repository.GuestRepo
}

func NewAuthHandler(cfg config.Config, s *repository.StaffRepo, g *repository.GuestRepo) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Staff: s, Guests: g}
}

// ----- DTOs -----

type loginReq struct {
	Email      string `json:"email"`
	Credential string `json:"credential"`
}

type loginResp struct {
	Token   string `json:"token"`
	Expires string `json:"expires"`
	Name    string `json:"name"`
	Role    string `json:"role"`
}

// Login verifies a credential against staff first, then guest records,
// and returns a signed access token.  Failures are reported uniformly so
// the endpoint does not reveal which emails exist.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Email == "" || req.Credential == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/credential required"})
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	name, role, ok, err := h.authenticate(ctx, req.Email, req.Credential)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "login failed"})
	}
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	access, err := utils.NewAccessToken(h.Cfg.JWTSecret, req.Email, name, role, h.Cfg.AccessTTLMin)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue token failed"})
	}
	return c.JSON(http.StatusOK, loginResp{
		Token:   access.Token,
		Expires: access.Exp.Format("2006-01-02 15:04:05"),
		Name:    name,
		Role:    role,
	})
}

// authenticate resolves the account behind an email and checks the
// credential.  Staff win over guests when both exist for one email.  A
// guest only authenticates when at least one of their records permits
// login; all of a guest's ticket records share one credential hash.
func (h *AuthHandler) authenticate(ctx context.Context, email, credential string) (name, role string, ok bool, err error) {
	st, err := h.Staff.GetByEmail(ctx, email)
	if err == nil {
		if !utils.VerifyCredential(st.CredentialHash, credential) {
			return "", "", false, nil
		}
		role = utils.RoleGuest
		if st.IsAdmin {
			role = utils.RoleAdmin
		}
		return st.Name, role, true, nil
	}
	if !errors.Is(err, repository.ErrStaffNotFound) {
		return "", "", false, err
	}

	guests, err := h.Guests.ListByEmail(ctx, email)
	if err != nil {
		return "", "", false, err
	}
	for _, g := range guests {
		if !g.CanLogin {
			continue
		}
		if utils.VerifyCredential(g.CredentialHash, credential) {
			return g.Name, utils.RoleGuest, true, nil
		}
	}
	return "", "", false, nil
}

// Me returns the identity claims of the presented token.
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"email": currentEmail(c),
		"name":  c.Get("name"),
		"role":  currentRole(c),
	})
}
