package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/skillgraph/internal/model"
	"github.com/iliyamo/skillgraph/internal/service"
)

// AuthHandler mirrors signup, login and me as JSON endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler returns the REST handlers over auth.
func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

// ----- DTOs -----

type signupReq struct {
	Name        string  `json:"name"`
	Email       string  `json:"email"`
	Password    string  `json:"password"`
	PhoneNumber *string `json:"phone_number"`
	Metadata    any     `json:"metadata"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResp struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	PhoneNumber *string        `json:"phone_number,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

type authResp struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      userResp  `json:"user"`
}

// Signup: create the user and return a token immediately.
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	p, err := h.auth.Signup(c.Request().Context(), service.SignupInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
		Metadata:    req.Metadata,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, toAuthResp(p))
}

// Login: verify credentials and return a fresh token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	p, err := h.auth.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toAuthResp(p))
}

// Me returns the caller's current record.
func (h *AuthHandler) Me(c echo.Context) error {
	u, err := h.auth.Me(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, toUserResp(u))
}

func toAuthResp(p *service.AuthPayload) authResp {
	return authResp{Token: p.Token, ExpiresAt: p.ExpiresAt, User: toUserResp(p.User)}
}

func toUserResp(u *model.User) userResp {
	return userResp{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		PhoneNumber: u.PhoneNumber,
		Metadata:    u.Metadata,
		CreatedAt:   u.CreatedAt,
	}
}

// writeError renders a service error with its status and kind.
func writeError(c echo.Context, err error) error {
	var se *service.Error
	if !errors.As(err, &se) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "operation failed", "code": string(service.KindOperationFailed)})
	}
	return c.JSON(se.HTTPStatus(), echo.Map{"error": se.Error(), "code": string(se.Kind)})
}
