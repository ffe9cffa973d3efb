package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type ProfileHTTP struct {
	Svc *service.ProfileService
}

func (h *ProfileHTTP) GetOwn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.get_own")

	view, err := h.Svc.GetProfile(ctx, authmw.UserID(c))
	if err != nil {
		return fail(l, "get_profile_failed", err)
	}
	return c.JSON(http.StatusOK, transport.NewProfileResponse(view))
}

func (h *ProfileHTTP) GetByUser(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.get")

	userID, err := parseID(c, "userId")
	if err != nil {
		return badRequest(l, "get_profile_failed", err.Error(), err)
	}

	view, err := h.Svc.GetProfile(ctx, userID)
	if err != nil {
		return fail(l, "get_profile_failed", err)
	}
	return c.JSON(http.StatusOK, transport.NewProfileResponse(view))
}

func (h *ProfileHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.update")

	var req transport.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_profile_failed", "invalid body", err)
	}

	view, err := h.Svc.UpdateProfile(ctx, authmw.UserID(c), req.Patch())
	if err != nil {
		return fail(l, "update_profile_failed", err)
	}
	return c.JSON(http.StatusOK, transport.NewProfileResponse(view))
}

func (h *ProfileHTTP) UploadImage(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "profile.upload_image")

	up, err := openUpload(c)
	if err != nil {
		return badRequest(l, "upload_profile_image_failed", "file is required", err)
	}
	defer up.Close()

	view, err := h.Svc.UploadImage(ctx, authmw.UserID(c), c.Param("kind"), up.Filename, up.ContentType, up, up.Size)
	if err != nil {
		return fail(l, "upload_profile_image_failed", err)
	}

	l.Info("upload_profile_image_success", "kind", c.Param("kind"))
	return c.JSON(http.StatusOK, transport.NewProfileResponse(view))
}
