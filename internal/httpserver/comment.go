package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type CommentHTTP struct {
	Svc *service.CommentService
}

func (h *CommentHTTP) GetComments(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.list")

	productID, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "get_comments_failed", err.Error(), err)
	}

	comments, err := h.Svc.GetComments(ctx, productID)
	if err != nil {
		return fail(l, "get_comments_failed", err)
	}
	return c.JSON(http.StatusOK, comments)
}

func (h *CommentHTTP) GetStats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.stats")

	productID, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "get_comment_stats_failed", err.Error(), err)
	}

	stats, err := h.Svc.GetStats(ctx, productID)
	if err != nil {
		return fail(l, "get_comment_stats_failed", err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *CommentHTTP) AddComment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.add")

	productID, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "add_comment_failed", err.Error(), err)
	}
	var req transport.AddCommentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_comment_failed", "invalid body", err)
	}

	comment, err := h.Svc.AddComment(ctx, productID, authmw.UserID(c), req.Text, req.Rating)
	if err != nil {
		return fail(l, "add_comment_failed", err)
	}

	l.Info("add_comment_success", "comment_id", comment.ID, "product_id", productID)
	return c.JSON(http.StatusCreated, comment)
}

func (h *CommentHTTP) DeleteComment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "comment.delete")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "delete_comment_failed", err.Error(), err)
	}

	deleted, err := h.Svc.DeleteComment(ctx, id, authmw.UserID(c))
	if err != nil {
		return fail(l, "delete_comment_failed", err)
	}
	if !deleted {
		l.Info("delete_comment_skipped", "comment_id", id)
	}
	return c.JSON(http.StatusOK, transport.DeleteCommentResponse{Deleted: deleted})
}
