package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/db/dbtest"
	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/identity"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/repo"
)

var testSecret = []byte("test-jwt-secret")

func newTestRepo(t *testing.T) (*repo.GormRepo, *gorm.DB) {
	t.Helper()
	db := dbtest.Open(t)
	return &repo.GormRepo{DB: db}, db
}

func seedUser(t *testing.T, db *gorm.DB, username, email, password string) *models.User {
	t.Helper()
	u := &models.User{Username: username, Email: email, Role: models.RoleUser}
	if password != "" {
		h, err := hash.HashPassword(password)
		require.NoError(t, err)
		u.PasswordHash = &h
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Price: price, Stock: 10, IsActive: true, ImageURL: "https://img/" + name + ".png"}
	require.NoError(t, db.Create(p).Error)
	return p
}

type fakeSender struct {
	mu   sync.Mutex
	sent []notify.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, msg)
	return nil
}

func (f *fakeSender) messages() []notify.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]notify.Message(nil), f.sent...)
}

type fakeVerifier struct {
	id  *identity.Identity
	err error
}

func (f fakeVerifier) Verify(_ context.Context, _ string) (*identity.Identity, error) {
	return f.id, f.err
}

type fakeUploader struct {
	prefix   string
	filename string
	err      error
}

func (f *fakeUploader) Upload(_ context.Context, prefix, filename, _ string, r io.Reader, _ int64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	f.prefix, f.filename = prefix, filename
	return "https://cdn.example.com/" + prefix + "/" + filename, nil
}

var errBoom = errors.New("boom")

// failCreatesOn makes every INSERT into table fail until the test ends.
func failCreatesOn(t *testing.T, db *gorm.DB, table string) {
	t.Helper()
	name := "test:fail_" + table
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == table {
			_ = tx.AddError(errBoom)
		}
	}))
	t.Cleanup(func() { _ = db.Callback().Create().Remove(name) })
}
