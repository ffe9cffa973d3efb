package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	authmw "github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place")

	var req transport.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "place_order_failed", "invalid body", err)
	}

	var userID *uint
	if id := authmw.UserID(c); id != 0 {
		userID = &id
	}

	placed, err := h.Svc.PlaceOrder(ctx, req.Input(userID))
	if err != nil {
		return fail(l, "place_order_failed", err)
	}
	return c.JSON(http.StatusCreated, transport.NewPlacedOrderResponse(placed))
}

func (h *OrderHTTP) CheckoutCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout_cart")

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "checkout_failed", "invalid body", err)
	}

	placed, err := h.Svc.CheckoutCart(ctx, authmw.UserID(c), req.Buyer.Info(), req.Payment.Info())
	if err != nil {
		return fail(l, "checkout_failed", err)
	}
	return c.JSON(http.StatusCreated, transport.NewPlacedOrderResponse(placed))
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)

	total, orders, err := h.Svc.ListOrders(ctx, authmw.UserID(c), offset, limit)
	if err != nil {
		return fail(l, "list_orders_failed", err)
	}
	return c.JSON(http.StatusOK, transport.OrderPage{Data: orders, Meta: util.NewMeta(page, offset, limit, total)})
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "get_order_failed", err.Error(), err)
	}

	order, err := h.Svc.GetOrder(ctx, id, authmw.UserID(c), authmw.IsAdmin(c))
	if err != nil {
		return fail(l, "get_order_failed", err)
	}
	return c.JSON(http.StatusOK, order)
}
