package httpserver

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func (h *AuthHTTP) Register(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.register")

	var req transport.RegisterRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "register_failed", "invalid body", err)
	}

	res, err := h.Svc.Register(ctx, req.Username, req.Email, req.Password)
	if err != nil {
		return fail(l, "register_failed", err)
	}

	l.Info("register_success", "user_id", res.User.ID)
	return c.JSON(http.StatusCreated, transport.NewSessionResponse(res))
}

func (h *AuthHTTP) Login(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.login")

	var req transport.LoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "login_failed", "invalid body", err)
	}

	res, err := h.Svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		return fail(l, "login_failed", err)
	}

	l.Info("login_success", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, transport.NewSessionResponse(res))
}

func (h *AuthHTTP) GoogleLogin(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.google")

	var req transport.GoogleLoginRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "google_login_failed", "invalid body", err)
	}

	res, err := h.Svc.FederatedLogin(ctx, req.IDToken())
	if err != nil {
		return fail(l, "google_login_failed", err)
	}

	l.Info("google_login_success", "user_id", res.User.ID)
	return c.JSON(http.StatusOK, transport.NewSessionResponse(res))
}

func (h *AuthHTTP) Verify(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "auth.verify")

	raw := c.Request().Header.Get(echo.HeaderAuthorization)
	token, ok := strings.CutPrefix(raw, "Bearer ")
	if !ok {
		token = ""
	}

	claims, err := h.Svc.VerifySession(strings.TrimSpace(token))
	if err != nil {
		return fail(l, "verify_failed", err)
	}

	return c.JSON(http.StatusOK, transport.VerifyResponse{
		Valid: true,
		User:  transport.VerifiedUser{ID: claims.UserID, Email: claims.Email, Role: claims.Role},
	})
}

func (h *AuthHTTP) ForgotPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.forgot_password")

	var req transport.ForgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "forgot_password_failed", "invalid body", err)
	}

	msg, err := h.Svc.RequestPasswordReset(ctx, req.Email)
	if err != nil {
		return fail(l, "forgot_password_failed", err)
	}
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: msg})
}

func (h *AuthHTTP) ResetPassword(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.reset_password")

	var req transport.ResetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "reset_password_failed", "invalid body", err)
	}

	if err := h.Svc.ResetPassword(ctx, req.Token, req.Password); err != nil {
		return fail(l, "reset_password_failed", err)
	}

	l.Info("reset_password_success")
	return c.JSON(http.StatusOK, transport.MessageResponse{Message: "password has been reset"})
}
