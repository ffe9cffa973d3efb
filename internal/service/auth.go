package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/url"
	"regexp"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/hash"
	"github.com/Skotchmaster/storefront/internal/identity"
	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/metrics"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

const (
	MinUsernameLen = 3
	MinPasswordLen = 6
	// bcrypt rejects longer inputs.
	MaxPasswordLen = 72

	ResetTokenTTL   = time.Hour
	resetTokenBytes = 32

	ResetRequestedMessage = "If an account with that email exists, a password reset link has been sent."

	msgInvalidCredentials = "invalid credentials"
	msgFederatedOnly      = "this account was registered with Google, please sign in with Google"
	msgInvalidResetToken  = "invalid or expired reset token"
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type AuthService struct {
	Repo     *repo.GormRepo
	Secret   []byte
	Identity identity.Verifier
	Mailer   notify.Sender
	Metrics  *metrics.Metrics

	// ResetURL is the frontend page that receives ?token=...
	ResetURL      string
	NotifyTimeout time.Duration
	Now           func() time.Time
}

type AuthResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

func (s *AuthService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkPassword(password string) error {
	if len(password) < MinPasswordLen {
		return validation("password must be at least %d characters", MinPasswordLen)
	}
	if len(password) > MaxPasswordLen {
		return validation("password must be at most %d bytes", MaxPasswordLen)
	}
	return nil
}

func (s *AuthService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register")

	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	if len([]rune(username)) < MinUsernameLen {
		return nil, validation("username must be at least %d characters", MinUsernameLen)
	}
	if !emailRe.MatchString(email) {
		return nil, validation("email is malformed")
	}
	if err := checkPassword(password); err != nil {
		return nil, err
	}

	taken, err := s.Repo.EmailExists(ctx, email)
	if err != nil {
		return nil, dependency("check email", err)
	}
	if taken {
		return nil, conflict("email already registered")
	}
	taken, err = s.Repo.UsernameExists(ctx, username)
	if err != nil {
		return nil, dependency("check username", err)
	}
	if taken {
		return nil, conflict("username already taken")
	}

	pwHash, err := hash.HashPassword(password)
	if err != nil {
		return nil, dependency("hash password", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: &pwHash,
		Role:         models.RoleUser,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, conflict("email or username already exists")
		}
		return nil, dependency("create user", err)
	}

	if _, err := s.Repo.EnsureProfile(ctx, DefaultProfile(user)); err != nil {
		return nil, dependency("create profile", err)
	}

	l.Info("user_registered", "user_id", user.ID)
	return s.session(user)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, validation("email is required")
	}

	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, unauthorized(msgInvalidCredentials)
		}
		return nil, dependency("load user", err)
	}
	if user.Federated() {
		return nil, unauthorized(msgFederatedOnly)
	}
	if !hash.CheckPassword(*user.PasswordHash, password) {
		return nil, unauthorized(msgInvalidCredentials)
	}

	if _, err := s.Repo.EnsureProfile(ctx, DefaultProfile(user)); err != nil {
		return nil, dependency("ensure profile", err)
	}

	return s.session(user)
}

func (s *AuthService) FederatedLogin(ctx context.Context, providerToken string) (*AuthResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.federated_login")

	if strings.TrimSpace(providerToken) == "" {
		return nil, validation("token is required")
	}
	if s.Identity == nil {
		return nil, unauthorized("federated login is not configured")
	}

	id, err := s.Identity.Verify(ctx, providerToken)
	if err != nil {
		l.Warn("federated_verify_failed", "error", err)
		if errors.Is(err, identity.ErrNoEmail) {
			return nil, unauthorized("Google account has no email")
		}
		return nil, unauthorized("invalid Google token")
	}

	email := normalizeEmail(id.Email)
	user, err := s.Repo.UserByEmail(ctx, email)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		user, err = s.createFederatedUser(ctx, email)
		if err != nil {
			return nil, err
		}
		l.Info("federated_user_created", "user_id", user.ID)
	case err != nil:
		return nil, dependency("load user", err)
	}

	defaults := DefaultProfile(user)
	if id.Name != "" {
		defaults.FullName = id.Name
	}
	if id.Picture != "" {
		defaults.AvatarURL = id.Picture
	}
	if _, err := s.Repo.EnsureProfile(ctx, defaults); err != nil {
		return nil, dependency("ensure profile", err)
	}

	return s.session(user)
}

func (s *AuthService) createFederatedUser(ctx context.Context, email string) (*models.User, error) {
	base := federatedUsername(email)
	name := base
	for i := 0; i < 5; i++ {
		taken, err := s.Repo.UsernameExists(ctx, name)
		if err != nil {
			return nil, dependency("check username", err)
		}
		if !taken {
			break
		}
		name = base + "_" + randomHex(3)
	}

	user := &models.User{
		Username: name,
		Email:    email,
		Role:     models.RoleUser,
	}
	if err := s.Repo.CreateUser(ctx, user); err != nil {
		return nil, dependency("create user", err)
	}
	return user, nil
}

func federatedUsername(email string) string {
	local, _, _ := strings.Cut(email, "@")
	if len(local) < MinUsernameLen {
		local += strings.Repeat("_", MinUsernameLen-len(local))
	}
	return local
}

func (s *AuthService) VerifySession(token string) (*tokens.SessionClaims, error) {
	if token == "" {
		return nil, unauthorized("missing authorization token")
	}
	claims, err := tokens.ParseSession(token, s.Secret)
	if err != nil {
		if errors.Is(err, tokens.ErrExpired) {
			return nil, unauthorized("token expired")
		}
		return nil, unauthorized("invalid token")
	}
	return claims, nil
}

func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	l := logging.FromContext(ctx).With("svc", "auth.request_password_reset")

	email = normalizeEmail(email)
	if email == "" {
		return "", validation("email is required")
	}

	user, err := s.Repo.UserByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			l.Error("reset_lookup_failed", "error", err)
		}
		return ResetRequestedMessage, nil
	}
	if user.Federated() {
		l.Info("reset_skipped", "reason", "federated account", "user_id", user.ID)
		return ResetRequestedMessage, nil
	}

	raw := randomHex(resetTokenBytes)
	rec := &models.PasswordResetToken{
		UserID:    user.ID,
		TokenHash: hash.SHA256Hex(raw),
		ExpiresAt: s.now().Add(ResetTokenTTL),
	}
	if err := s.Repo.CreateResetToken(ctx, rec); err != nil {
		l.Error("reset_token_persist_failed", "user_id", user.ID, "error", err)
		return ResetRequestedMessage, nil
	}

	msg, err := notify.RenderPasswordReset(user.Email, s.resetLink(raw))
	if err != nil {
		l.Error("reset_render_failed", "error", err)
		return ResetRequestedMessage, nil
	}
	s.dispatch(ctx, "password_reset", msg)

	return ResetRequestedMessage, nil
}

func (s *AuthService) resetLink(token string) string {
	return s.ResetURL + "?token=" + url.QueryEscape(token)
}

func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	l := logging.FromContext(ctx).With("svc", "auth.reset_password")

	if err := checkPassword(newPassword); err != nil {
		return err
	}
	if token == "" {
		return unauthorized(msgInvalidResetToken)
	}

	rec, err := s.Repo.ActiveResetToken(ctx, hash.SHA256Hex(token), s.now())
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return unauthorized(msgInvalidResetToken)
		}
		return dependency("load reset token", err)
	}

	pwHash, err := hash.HashPassword(newPassword)
	if err != nil {
		return dependency("hash password", err)
	}

	if err := s.Repo.ConsumeResetToken(ctx, rec.ID, rec.UserID, pwHash); err != nil {
		if errors.Is(err, repo.ErrTokenConsumed) {
			return unauthorized(msgInvalidResetToken)
		}
		return dependency("consume reset token", err)
	}

	l.Info("password_reset", "user_id", rec.UserID)
	return nil
}

func (s *AuthService) session(user *models.User) (*AuthResult, error) {
	token, exp, err := tokens.IssueSession(s.Secret, user.ID, user.Email, user.Role, s.now())
	if err != nil {
		return nil, dependency("issue session", err)
	}
	return &AuthResult{Token: token, ExpiresAt: exp, User: user}, nil
}

func (s *AuthService) dispatch(ctx context.Context, kind string, msg notify.Message) {
	sendNotification(ctx, s.Mailer, s.Metrics, s.NotifyTimeout, kind, msg)
}

// DefaultProfile derives the generated avatar and banner for a new account.
func DefaultProfile(user *models.User) models.Profile {
	name := url.QueryEscape(user.Username)
	return models.Profile{
		UserID:    user.ID,
		FullName:  user.Username,
		AvatarURL: "https://ui-avatars.com/api/?name=" + name + "&background=random",
		BannerURL: "https://picsum.photos/seed/" + url.PathEscape(user.Username) + "/1200/300",
	}
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic("crypto/rand: " + err.Error())
	}
	return hex.EncodeToString(b)
}
