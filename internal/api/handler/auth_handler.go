package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/gridpoint/auth-api/internal/api/middleware"
	"github.com/gridpoint/auth-api/internal/core/domain"
	"github.com/gridpoint/auth-api/internal/core/ports"
)

// CookieOptions controls how the session cookie is issued.
type CookieOptions struct {
	// Secure marks the cookie HTTPS-only; enabled in production.
	Secure bool
	// RememberMaxAge is the cookie lifetime when remember=true. Without
	// remember the cookie is browser-session-scoped (no MaxAge).
	RememberMaxAge time.Duration
}

type AuthHandler struct {
	authService ports.AuthService
	cookies     CookieOptions
}

func NewAuthHandler(authService ports.AuthService, cookies CookieOptions) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember,omitempty"`
}

// userPayload is the only user shape ever sent to clients: no email, no
// hash.
type userPayload struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

func toPayload(user *domain.User) userPayload {
	return userPayload{
		ID:       user.ID,
		Username: user.Username,
		Role:     string(user.Role),
	}
}

type loginResponse struct {
	Message string      `json:"message"`
	User    userPayload `json:"user"`
}

type statusResponse struct {
	IsAuthenticated bool        `json:"isAuthenticated"`
	User            userPayload `json:"user"`
}

// Register creates a new user account. Restricted to admin users.
//
// @Summary      Register a new user
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/auth/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}

	// No pre-validation here: the service checks authentication and role
	// before field presence, so a non-admin with a bad payload still gets
	// 403, not 400.
	_, err := h.authService.Register(c.Request().Context(), currentUser(c), ports.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, map[string]string{"message": "User registered successfully"})
}

// Login authenticates a user and opens a cookie-backed session.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Username, req.Password, req.Remember)
	if err != nil {
		return err
	}

	c.SetCookie(h.sessionCookie(token, req.Remember))

	return c.JSON(http.StatusOK, loginResponse{
		Message: "Login successful",
		User:    toPayload(user),
	})
}

// Logout destroys the current session and clears the cookie.
//
// @Summary      Logout
// @Tags         auth
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authService.Logout(c.Request().Context(), currentUser(c), sessionToken(c)); err != nil {
		return err
	}

	c.SetCookie(h.expiredCookie())

	return c.JSON(http.StatusOK, map[string]string{"message": "Logout successful"})
}

// Status returns the identity of the currently logged-in user.
//
// @Summary      Session status
// @Tags         auth
// @Produce      json
// @Success      200  {object}  statusResponse
// @Failure      401  {object}  map[string]string
// @Router       /api/auth/status [get]
func (h *AuthHandler) Status(c echo.Context) error {
	user := currentUser(c)
	if user == nil {
		return domain.ErrAuthRequired
	}

	return c.JSON(http.StatusOK, statusResponse{
		IsAuthenticated: true,
		User:            toPayload(user),
	})
}

func (h *AuthHandler) sessionCookie(token string, remember bool) *http.Cookie {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cookies.Secure,
	}
	if remember && h.cookies.RememberMaxAge > 0 {
		cookie.MaxAge = int(h.cookies.RememberMaxAge.Seconds())
	}
	return cookie
}

func (h *AuthHandler) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cookies.Secure,
		MaxAge:   -1,
	}
}
