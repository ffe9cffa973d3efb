package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/db/dbtest"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

var testSecret = []byte("http-test-secret")

type memUploader struct{}

func (memUploader) Upload(_ context.Context, prefix, filename, _ string, r io.Reader, _ int64) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	return "https://cdn.test/" + prefix + "/" + filename, nil
}

type testEnv struct {
	e       *echo.Echo
	db      *gorm.DB
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := dbtest.Open(t)
	r := &repo.GormRepo{DB: db}
	m := metrics.New("shop")
	mail := notify.LogSender{}

	e := echo.New()
	e.HTTPErrorHandler = ErrorHandler(false)
	Register(e, &Deps{
		Auth:    &AuthHTTP{Svc: &service.AuthService{Repo: r, Secret: testSecret, Mailer: mail, ResetURL: "http://front/reset-password"}},
		Catalog: &CatalogHTTP{Svc: &service.CatalogService{Repo: r, Storage: memUploader{}}},
		Cart:    &CartHTTP{Svc: &service.CartService{Repo: r, EnforceOwnership: true}},
		Order:   &OrderHTTP{Svc: &service.OrderService{Repo: r, Mailer: mail, Metrics: m, UseTx: true}},
		Comment: &CommentHTTP{Svc: &service.CommentService{Repo: r}},
		Profile: &ProfileHTTP{Svc: &service.ProfileService{Repo: r, Storage: memUploader{}}},

		JWTSecret: testSecret,
		Ready:     r.Ping,
		Metrics:   m,
	})
	return &testEnv{e: e, db: db, metrics: m}
}

func (env *testEnv) do(t *testing.T, method, path string, body any, token string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

func (env *testEnv) user(t *testing.T, username, email, role string) (*models.User, string) {
	t.Helper()
	h, err := hash.HashPassword("secret1")
	require.NoError(t, err)
	u := &models.User{Username: username, Email: email, PasswordHash: &h, Role: role}
	require.NoError(t, env.db.Create(u).Error)
	tok, _, err := tokens.IssueSession(testSecret, u.ID, u.Email, u.Role, time.Now())
	require.NoError(t, err)
	return u, tok
}

func (env *testEnv) product(t *testing.T, name string, price float64) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Stock: 5, IsActive: true}
	require.NoError(t, env.db.Create(p).Error)
	return p
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/live", nil, "").Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/ready", nil, "").Code)

	rec := env.do(t, http.MethodGet, "/metrics", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "shop_orders_placed_total")
}

func TestAuthFlow(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/users/register", map[string]string{"username": "jane", "email": "jane@example.com", "password": "secret1"}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := decode[map[string]any](t, rec)
	token, _ := session["token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, "jane@example.com", session["user"].(map[string]any)["email"])

	rec = env.do(t, http.MethodPost, "/api/users/register", map[string]string{"username": "jane2", "email": "jane@example.com", "password": "secret1"}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/users/register", map[string]string{"username": "bob", "email": "bob@example.com", "password": "123"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decode[map[string]any](t, rec)["error"], "password")

	rec = env.do(t, http.MethodPost, "/api/users/login", map[string]string{"email": "jane@example.com", "password": "secret1"}, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/users/login", map[string]string{"email": "jane@example.com", "password": "wrong1"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid credentials", decode[map[string]any](t, rec)["error"])

	rec = env.do(t, http.MethodGet, "/api/users/verify", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)
	verified := decode[map[string]any](t, rec)
	assert.Equal(t, true, verified["valid"])

	expired, _, err := tokens.IssueSession(testSecret, 1, "jane@example.com", models.RoleUser, time.Now().Add(-48*time.Hour))
	require.NoError(t, err)
	rec = env.do(t, http.MethodGet, "/api/users/verify", nil, expired)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "token expired", decode[map[string]any](t, rec)["error"])

	rec = env.do(t, http.MethodGet, "/api/users/verify", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestForgotPasswordIsGeneric(t *testing.T) {
	env := newTestEnv(t)
	env.user(t, "jane", "jane@example.com", models.RoleUser)

	known := env.do(t, http.MethodPost, "/api/users/forgot-password", map[string]string{"email": "jane@example.com"}, "")
	unknown := env.do(t, http.MethodPost, "/api/users/forgot-password", map[string]string{"email": "ghost@example.com"}, "")
	assert.Equal(t, http.StatusOK, known.Code)
	assert.Equal(t, http.StatusOK, unknown.Code)
	assert.JSONEq(t, known.Body.String(), unknown.Body.String())

	rec := env.do(t, http.MethodPost, "/api/users/reset-password", map[string]string{"token": "deadbeef", "password": "newsecret"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProductRoutes(t *testing.T) {
	env := newTestEnv(t)
	_, userTok := env.user(t, "jane", "jane@example.com", models.RoleUser)
	_, adminTok := env.user(t, "root", "root@example.com", models.RoleAdmin)

	body := map[string]any{"name": "Widget", "price": 10.5, "stock": 3}
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/products", body, "").Code)
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/api/products", body, userTok).Code)

	rec := env.do(t, http.MethodPost, "/api/products", body, adminTok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[models.Product](t, rec)

	rec = env.do(t, http.MethodGet, "/api/products", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, page["meta"].(map[string]any)["total"])

	rec = env.do(t, http.MethodGet, "/api/products/search?q=widg", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string]any](t, rec)["data"], 1)

	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodGet, "/api/products/abc", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/products/999", nil, "").Code)

	rec = env.do(t, http.MethodPatch, "/api/products/"+itoa(created.ID), map[string]any{"price": 12}, adminTok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 12.0, decode[models.Product](t, rec).Price, 1e-9)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, "/api/products/"+itoa(created.ID), nil, adminTok).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/products/"+itoa(created.ID), nil, "").Code)
}

func TestCartRoutes(t *testing.T) {
	env := newTestEnv(t)
	_, tok := env.user(t, "jane", "jane@example.com", models.RoleUser)
	_, otherTok := env.user(t, "other", "other@example.com", models.RoleUser)
	p := env.product(t, "widget", 10)

	rec := env.do(t, http.MethodGet, "/api/carts", nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "missing authorization token", decode[map[string]any](t, rec)["error"])

	add := map[string]any{"product_id": p.ID, "quantity": 1}
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/carts", add, tok).Code)
	rec = env.do(t, http.MethodPost, "/api/carts", add, tok)
	require.Equal(t, http.StatusCreated, rec.Code)
	item := decode[models.CartItem](t, rec)
	assert.Equal(t, 2, item.Quantity)

	rec = env.do(t, http.MethodGet, "/api/carts", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	cart := decode[map[string]any](t, rec)
	assert.Len(t, cart["items"], 1)
	assert.InDelta(t, 20.0, cart["total"], 1e-9)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPut, "/api/carts/"+itoa(item.ID), map[string]any{"quantity": 9}, otherTok).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodPut, "/api/carts/"+itoa(item.ID), map[string]any{"quantity": 3}, tok).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPut, "/api/carts/"+itoa(item.ID), map[string]any{"quantity": 0}, tok).Code)

	rec = env.do(t, http.MethodPost, "/api/carts/checkout", map[string]any{
		"buyer":   map[string]string{"name": "Jane", "phone": "1", "address": "Street 1"},
		"payment": map[string]string{"method": "cod"},
	}, tok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.InDelta(t, 30.0, decode[map[string]any](t, rec)["total"], 1e-9)

	rec = env.do(t, http.MethodGet, "/api/carts", nil, tok)
	assert.Empty(t, decode[map[string]any](t, rec)["items"])
}

func TestOrderRoutes(t *testing.T) {
	env := newTestEnv(t)
	_, tok := env.user(t, "jane", "jane@example.com", models.RoleUser)
	_, otherTok := env.user(t, "other", "other@example.com", models.RoleUser)

	body := map[string]any{
		"buyer":   map[string]string{"name": "Jane", "email": "jane@example.com", "phone": "1", "address": "Street 1"},
		"payment": map[string]string{"method": "card", "card_number": "4111111111111111"},
		"items":   []map[string]any{{"id": 1, "name": "Widget", "price": 10, "quantity": 2}},
		"total":   20,
	}
	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/orders", body, "").Code)

	rec := env.do(t, http.MethodPost, "/api/orders", body, tok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	placed := decode[map[string]any](t, rec)
	assert.Equal(t, models.OrderStatusPending, placed["status"])
	assert.InDelta(t, 20.0, placed["total"], 1e-9)
	assert.NotContains(t, placed, "items")
	id := uint(placed["id"].(float64))

	rec = env.do(t, http.MethodGet, "/api/orders/"+itoa(id), nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	order := decode[models.Order](t, rec)
	require.Len(t, order.Items, 1)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.InDelta(t, 10.0, order.Items[0].Price, 1e-9)

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/orders/"+itoa(id), nil, otherTok).Code)

	rec = env.do(t, http.MethodGet, "/api/orders", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[map[string]any](t, rec)["data"], 1)

	body["total"] = 0
	assert.Equal(t, http.StatusBadRequest, env.do(t, http.MethodPost, "/api/orders", body, tok).Code)
}

func TestCommentRoutes(t *testing.T) {
	env := newTestEnv(t)
	_, tok := env.user(t, "jane", "jane@example.com", models.RoleUser)
	_, otherTok := env.user(t, "other", "other@example.com", models.RoleUser)
	p := env.product(t, "widget", 10)
	base := "/api/comments/product/" + itoa(p.ID)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, base, map[string]any{"text": "hi"}, "").Code)

	var ids []uint
	for _, r := range []any{5, 4, nil, 3} {
		rec := env.do(t, http.MethodPost, base, map[string]any{"text": "review", "rating": r}, tok)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		ids = append(ids, decode[models.Comment](t, rec).ID)
	}

	rec := env.do(t, http.MethodGet, base+"/stats", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalComments":4,"averageRating":4,"ratingCount":3}`, rec.Body.String())

	rec = env.do(t, http.MethodGet, base, nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]models.Comment](t, rec)
	require.Len(t, list, 4)
	assert.Equal(t, ids[3], list[0].ID)

	rec = env.do(t, http.MethodDelete, "/api/comments/"+itoa(ids[0]), nil, otherTok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":false}`, rec.Body.String())

	rec = env.do(t, http.MethodDelete, "/api/comments/"+itoa(ids[0]), nil, tok)
	assert.JSONEq(t, `{"deleted":true}`, rec.Body.String())
}

func TestProfileRoutes(t *testing.T) {
	env := newTestEnv(t)
	u, tok := env.user(t, "jane", "jane@example.com", models.RoleUser)

	rec := env.do(t, http.MethodGet, "/api/profiles", nil, tok)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jane", decode[map[string]any](t, rec)["username"])

	rec = env.do(t, http.MethodPut, "/api/profiles", map[string]any{"full_name": "Jane Doe", "birthdate": "1990-01-02"}, tok)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "1990-01-02", decode[map[string]any](t, rec)["birthdate"])

	rec = env.do(t, http.MethodGet, "/api/profiles/"+itoa(u.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Jane Doe", decode[map[string]any](t, rec)["full_name"])

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodGet, "/api/profiles/999", nil, "").Code)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="me.png"`)
	h.Set("Content-Type", "image/png")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG fake"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/profiles/images/avatar", &buf)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok)
	rec = httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "https://cdn.test/avatars/me.png", decode[map[string]any](t, rec)["avatar_url"])
}

func TestErrorHandler(t *testing.T) {
	render := func(production bool, err error) map[string]any {
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		ErrorHandler(production)(err, c)
		var out map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return out
	}

	l := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cause := errors.New("pq: connection refused")
	herr := fail(l, "place_order_failed", &service.Error{Kind: service.ErrDependency, Msg: "could not save order", Err: cause})

	dev := render(false, herr)
	assert.Equal(t, internalError, dev["error"])
	assert.Equal(t, "could not save order: pq: connection refused", dev["detail"])

	prod := render(true, herr)
	assert.Equal(t, internalError, prod["error"])
	assert.NotContains(t, prod, "detail")

	notFound := render(true, fail(l, "get_order_failed", &service.Error{Kind: service.ErrNotFound, Msg: "order not found"}))
	assert.Equal(t, "order not found", notFound["error"])

	plain := render(true, errors.New("secret internals"))
	assert.Equal(t, internalError, plain["error"])
}

func itoa(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
