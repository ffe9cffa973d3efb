package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/repo"
)

const (
	PaymentCashOnDelivery = "cash_on_delivery"
	paymentCODAlias       = "cod"
)

type BuyerInfo struct {
	Name           string
	Email          string
	Phone          string
	Address        string
	BillingAddress string
}

type PaymentInfo struct {
	Method     string
	CardNumber string
	CardHolder string
}

type OrderLineInput struct {
	ProductID uint
	Name      string
	Price     float64
	Quantity  int
}

type PlaceOrderInput struct {
	UserID  *uint
	Buyer   BuyerInfo
	Payment PaymentInfo
	Items   []OrderLineInput
	Total   float64
}

type PlacedOrder struct {
	ID     uint
	Total  float64
	Status string
}

type OrderService struct {
	Repo    *repo.GormRepo
	Mailer  notify.Sender
	Metrics *metrics.Metrics

	// UseTx writes header and items in one transaction. When false the header
	// and items are separate writes and a failed item write deletes the header.
	UseTx         bool
	NotifyTimeout time.Duration
}

func validateBuyer(b BuyerInfo, p PaymentInfo) error {
	switch {
	case strings.TrimSpace(b.Name) == "":
		return validation("buyer name is required")
	case strings.TrimSpace(b.Address) == "":
		return validation("shipping address is required")
	case strings.TrimSpace(b.Phone) == "":
		return validation("phone is required")
	case strings.TrimSpace(p.Method) == "":
		return validation("payment method is required")
	}
	return nil
}

func isCashOnDelivery(method string) bool {
	m := strings.ToLower(strings.TrimSpace(method))
	return m == PaymentCashOnDelivery || m == paymentCODAlias
}

func PaymentStatusFor(method string) string {
	if isCashOnDelivery(method) {
		return models.PaymentStatusPending
	}
	return models.PaymentStatusPaid
}

func paymentLabel(p PaymentInfo) string {
	switch {
	case p.CardNumber != "":
		return "Card " + notify.MaskCard(p.CardNumber)
	case isCashOnDelivery(p.Method):
		return "Cash on delivery"
	default:
		return strings.TrimSpace(p.Method)
	}
}

func newOrderHeader(userID *uint, b BuyerInfo, p PaymentInfo, total float64) *models.Order {
	billing := strings.TrimSpace(b.BillingAddress)
	if billing == "" {
		billing = strings.TrimSpace(b.Address)
	}
	return &models.Order{
		UserID:          userID,
		CustomerName:    strings.TrimSpace(b.Name),
		CustomerEmail:   normalizeEmail(b.Email),
		Phone:           strings.TrimSpace(b.Phone),
		ShippingAddress: strings.TrimSpace(b.Address),
		BillingAddress:  billing,
		PaymentMethod:   strings.ToLower(strings.TrimSpace(p.Method)),
		PaymentStatus:   PaymentStatusFor(p.Method),
		Total:           total,
		Status:          models.OrderStatusPending,
	}
}

func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*PlacedOrder, error) {
	l := logging.FromContext(ctx).With("svc", "order.place")

	if err := validateBuyer(in.Buyer, in.Payment); err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, validation("cart items are required")
	}
	if in.Total <= 0 {
		return nil, validation("total must be greater than zero")
	}

	items := make([]models.OrderItem, 0, len(in.Items))
	for _, it := range in.Items {
		if it.ProductID == 0 {
			return nil, validation("item product id is required")
		}
		if it.Price < 0 {
			return nil, validation("item price cannot be negative")
		}
		if it.Quantity < 0 {
			return nil, validation("item quantity cannot be negative")
		}
		qty := it.Quantity
		if qty == 0 {
			qty = 1
		}
		items = append(items, models.OrderItem{
			ProductID:   it.ProductID,
			ProductName: it.Name,
			Quantity:    qty,
			Price:       it.Price,
		})
	}

	order := newOrderHeader(in.UserID, in.Buyer, in.Payment, in.Total)
	if err := s.persist(ctx, order, items); err != nil {
		return nil, err
	}
	s.Metrics.OrderPlaced()
	l.Info("order_placed", "order_id", order.ID, "items", len(items), "total", order.Total)

	s.notifyBuyer(ctx, order, items, in.Buyer.Email, in.Payment)

	return &PlacedOrder{ID: order.ID, Total: order.Total, Status: order.Status}, nil
}

func (s *OrderService) persist(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	if s.UseTx {
		if err := s.Repo.CreateOrderWithItems(ctx, order, items); err != nil {
			return dependency("could not save order", err)
		}
		return nil
	}

	l := logging.FromContext(ctx).With("svc", "order.persist")

	if err := s.Repo.CreateOrderHeader(ctx, order); err != nil {
		return dependency("could not save order", err)
	}
	if err := s.Repo.CreateOrderItems(ctx, order.ID, items); err != nil {
		// Best effort: a crash before this delete still leaves an orphan header.
		if delErr := s.Repo.DeleteOrder(ctx, order.ID); delErr != nil {
			l.Error("order_compensation_failed", "order_id", order.ID, "error", delErr, "cause", err)
		} else {
			s.Metrics.OrderCompensated()
			l.Warn("order_compensated", "order_id", order.ID, "cause", err)
		}
		return dependency("could not save order items", err)
	}
	return nil
}

// CheckoutCart converts the caller's stored cart into an order, pricing lines from the catalog.
func (s *OrderService) CheckoutCart(ctx context.Context, userID uint, buyer BuyerInfo, payment PaymentInfo) (*PlacedOrder, error) {
	l := logging.FromContext(ctx).With("svc", "order.checkout_cart")

	if userID == 0 {
		return nil, unauthorized("authentication required")
	}
	if err := validateBuyer(buyer, payment); err != nil {
		return nil, err
	}

	order := newOrderHeader(&userID, buyer, payment, 0)
	items, err := s.Repo.CheckoutCart(ctx, userID, order)
	switch {
	case errors.Is(err, repo.ErrEmptyCart):
		return nil, validation("cart is empty")
	case errors.Is(err, repo.ErrProductUnavailable):
		return nil, validation("a product in the cart is no longer available")
	case err != nil:
		return nil, dependency("could not checkout cart", err)
	}
	s.Metrics.OrderPlaced()
	l.Info("order_placed", "order_id", order.ID, "items", len(items), "total", order.Total)

	s.notifyBuyer(ctx, order, items, buyer.Email, payment)

	return &PlacedOrder{ID: order.ID, Total: order.Total, Status: order.Status}, nil
}

func (s *OrderService) notifyBuyer(ctx context.Context, order *models.Order, items []models.OrderItem, email string, payment PaymentInfo) {
	l := logging.FromContext(ctx).With("svc", "order.notify", "order_id", order.ID)

	to := s.resolveEmail(ctx, email, order.UserID)
	if to == "" {
		l.Info("order_notification_skipped", "reason", "no email address")
		return
	}

	lines := make([]notify.OrderLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, notify.OrderLine{Name: it.ProductName, Quantity: it.Quantity, Price: it.Price})
	}
	msg, err := notify.RenderOrderConfirmation(notify.OrderConfirmation{
		To:        to,
		OrderID:   order.ID,
		BuyerName: order.CustomerName,
		Address:   order.ShippingAddress,
		Phone:     order.Phone,
		Payment:   paymentLabel(payment),
		Lines:     lines,
		Total:     order.Total,
	})
	if err != nil {
		l.Error("order_notification_render_failed", "error", err)
		return
	}
	sendNotification(ctx, s.Mailer, s.Metrics, s.NotifyTimeout, "order_confirmation", msg)
}

func (s *OrderService) resolveEmail(ctx context.Context, email string, userID *uint) string {
	if e := normalizeEmail(email); e != "" {
		return e
	}
	if userID == nil {
		return ""
	}
	user, err := s.Repo.UserByID(ctx, *userID)
	if err != nil {
		logging.FromContext(ctx).Warn("order_email_lookup_failed", "user_id", *userID, "error", err)
		return ""
	}
	return user.Email
}

// GetOrder returns the order with items to its owner or an admin.
func (s *OrderService) GetOrder(ctx context.Context, id, callerID uint, admin bool) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("order not found")
		}
		return nil, dependency("load order", err)
	}
	if !admin && (order.UserID == nil || *order.UserID != callerID) {
		return nil, notFound("order not found")
	}
	return order, nil
}

func (s *OrderService) ListOrders(ctx context.Context, userID uint, offset, limit int) (int64, []models.Order, error) {
	if userID == 0 {
		return 0, nil, unauthorized("authentication required")
	}
	total, orders, err := s.Repo.ListOrders(ctx, userID, offset, limit)
	if err != nil {
		return 0, nil, dependency("list orders", err)
	}
	return total, orders, nil
}
