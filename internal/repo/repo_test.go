package repo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/db/dbtest"
	"github.com/Skotchmaster/storefront/internal/models"
)

func newRepo(t *testing.T) *GormRepo {
	t.Helper()
	return &GormRepo{DB: dbtest.Open(t)}
}

func mkUser(t *testing.T, r *GormRepo, name string) *models.User {
	t.Helper()
	pw := "hash"
	u := &models.User{Username: name, Email: name + "@example.com", PasswordHash: &pw}
	require.NoError(t, r.CreateUser(context.Background(), u))
	return u
}

func mkProduct(t *testing.T, r *GormRepo, name string, price float64, active bool) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Description: name + " description", Price: price, IsActive: active}
	require.NoError(t, r.CreateProduct(context.Background(), p))
	return p
}

func TestPing(t *testing.T) {
	require.NoError(t, newRepo(t).Ping(context.Background()))
}

func TestUsers_DuplicateEmail(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	mkUser(t, r, "jane")

	err := r.CreateUser(ctx, &models.User{Username: "other", Email: "jane@example.com"})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	ok, err := r.EmailExists(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = r.UsernameExists(ctx, "nobody")
	require.NoError(t, err)
	assert.False(t, ok)

	u, err := r.UserByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, u.Role)
}

func TestCreateProduct_Inactive(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	p := mkProduct(t, r, "hidden", 1, false)

	_, err := r.GetProduct(ctx, p.ID, true)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	got, err := r.GetProduct(ctx, p.ID, false)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
}

func TestSearchProducts_ActiveOnly(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	mkProduct(t, r, "Blue Lamp", 5, true)
	mkProduct(t, r, "Blue Chair", 5, false)
	mkProduct(t, r, "Red Lamp", 5, true)

	total, items, err := r.SearchProducts(ctx, "blue", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Blue Lamp", items[0].Name)

	total, items, err = r.SearchProducts(ctx, "LAMP", 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 1)
	assert.Equal(t, "Red Lamp", items[0].Name)
}

func TestDeleteProduct_Missing(t *testing.T) {
	r := newRepo(t)
	assert.ErrorIs(t, r.DeleteProduct(context.Background(), 42), gorm.ErrRecordNotFound)
}

func TestAddToCart_ConcurrentIncrements(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := mkUser(t, r, "jane")
	p := mkProduct(t, r, "widget", 1, true)

	require.NoError(t, r.AddToCart(ctx, &models.CartItem{UserID: u.ID, ProductID: p.ID, Quantity: 1}))

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- r.AddToCart(ctx, &models.CartItem{UserID: u.ID, ProductID: p.ID, Quantity: 1})
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	lines, err := r.GetCart(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 11, lines[0].Quantity)
}

func TestCartItem_OwnerScope(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	owner := mkUser(t, r, "owner")
	other := mkUser(t, r, "other")
	p := mkProduct(t, r, "widget", 1, true)
	item := &models.CartItem{UserID: owner.ID, ProductID: p.ID, Quantity: 1}
	require.NoError(t, r.AddToCart(ctx, item))

	_, err := r.UpdateCartItem(ctx, item.ID, other.ID, 5)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.ErrorIs(t, r.DeleteCartItem(ctx, item.ID, other.ID), gorm.ErrRecordNotFound)

	got, err := r.UpdateCartItem(ctx, item.ID, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)
}

func TestOrders_CreateAndDelete(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()

	order := &models.Order{CustomerName: "Jane", Total: 3, Status: models.OrderStatusPending}
	items := []models.OrderItem{{ProductID: 1, ProductName: "a", Quantity: 1, Price: 1}, {ProductID: 2, ProductName: "b", Quantity: 1, Price: 2}}
	require.NoError(t, r.CreateOrderWithItems(ctx, order, items))

	got, err := r.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 2)
	assert.Equal(t, "a", got.Items[0].ProductName)

	require.NoError(t, r.DeleteOrder(ctx, order.ID))
	_, err = r.GetOrder(ctx, order.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	var n int64
	require.NoError(t, r.DB.Model(&models.OrderItem{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestCheckoutCart_EmptyCart(t *testing.T) {
	r := newRepo(t)
	u := mkUser(t, r, "jane")

	_, err := r.CheckoutCart(context.Background(), u.ID, &models.Order{CustomerName: "Jane", Status: models.OrderStatusPending})
	assert.True(t, errors.Is(err, ErrEmptyCart))
}

func TestResetTokens(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := mkUser(t, r, "jane")
	now := time.Now().UTC()

	tok := &models.PasswordResetToken{UserID: u.ID, TokenHash: "abc", ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, r.CreateResetToken(ctx, tok))

	_, err := r.ActiveResetToken(ctx, "abc", now.Add(2*time.Hour))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	active, err := r.ActiveResetToken(ctx, "abc", now)
	require.NoError(t, err)

	require.NoError(t, r.ConsumeResetToken(ctx, active.ID, u.ID, "newhash"))
	assert.ErrorIs(t, r.ConsumeResetToken(ctx, active.ID, u.ID, "other"), ErrTokenConsumed)

	got, err := r.UserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "newhash", *got.PasswordHash)

	_, err = r.ActiveResetToken(ctx, "abc", now)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestProfiles_EnsureIsIdempotent(t *testing.T) {
	r := newRepo(t)
	ctx := context.Background()
	u := mkUser(t, r, "jane")

	first, err := r.EnsureProfile(ctx, models.Profile{UserID: u.ID, AvatarURL: "a"})
	require.NoError(t, err)
	second, err := r.EnsureProfile(ctx, models.Profile{UserID: u.ID, AvatarURL: "b"})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "a", second.AvatarURL)

	updated, err := r.UpdateProfile(ctx, u.ID, map[string]any{"bio": "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", updated.Bio)
	assert.Equal(t, "a", updated.AvatarURL)
}
