package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumina-interiors/consultations-api/internal/models"
	appErrors "github.com/lumina-interiors/consultations-api/pkg/errors"
)

type mockUserRepo struct {
	users         map[string]*models.User
	byEmail       map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	revoked       []string
	auditLogs     []*models.AuditLog
	lastLoginSet  bool
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginSet = true
	return nil
}

func (m *mockUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if m.refreshTokens == nil {
		m.refreshTokens = make(map[string]*models.RefreshToken)
	}
	cp := *token
	m.refreshTokens[token.Token] = &cp
	return nil
}

func (m *mockUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.refreshTokens[token]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	m.revoked = append(m.revoked, id)
	for _, t := range m.refreshTokens {
		if t.ID == id {
			t.Revoked = true
		}
	}
	return nil
}

func (m *mockUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	for _, t := range m.refreshTokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (m *mockUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, log)
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockUserRepo) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2secret"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &models.User{
		ID:           "u1",
		Email:        "admin@lumina.example",
		PasswordHash: string(hash),
		FullName:     "Studio Admin",
		Role:         models.RoleAdmin,
		Active:       true,
	}
	repo := &mockUserRepo{
		users:   map[string]*models.User{admin.ID: admin},
		byEmail: map[string]*models.User{admin.Email: admin},
	}
	svc := NewAuthService(repo, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "lumina-interiors",
	})
	return svc, repo
}

func TestLoginSuccess(t *testing.T) {
	svc, repo := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@lumina.example",
		Password: "hunter2secret",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "u1", resp.User.ID)
	assert.Equal(t, models.RoleAdmin, resp.User.Role)
	assert.True(t, repo.lastLoginSet)
	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@lumina.example",
		Password: "not-the-password",
	})
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ghost@lumina.example",
		Password: "whatever123",
	})
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, repo := newAuthFixture(t)
	repo.byEmail["admin@lumina.example"].Active = false

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@lumina.example",
		Password: "hunter2secret",
	})
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErr.Code)
}

func TestRefreshTokenRotation(t *testing.T) {
	svc, repo := newAuthFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@lumina.example",
		Password: "hunter2secret",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.Len(t, repo.revoked, 1, "used refresh token must be revoked")

	// The rotated-out token no longer works.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestRefreshTokenExpired(t *testing.T) {
	svc, repo := newAuthFixture(t)
	repo.refreshTokens = map[string]*models.RefreshToken{
		"stale": {
			ID:        "rt1",
			UserID:    "u1",
			Token:     "stale",
			ExpiresAt: time.Now().UTC().Add(-time.Hour),
		},
	}

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}

func TestLogoutRevokesAllSessions(t *testing.T) {
	svc, repo := newAuthFixture(t)

	first, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@lumina.example",
		Password: "hunter2secret",
	})
	require.NoError(t, err)
	second, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@lumina.example",
		Password: "hunter2secret",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), "u1", "127.0.0.1", "test-agent"))

	// Every outstanding refresh token is dead after sign out.
	for _, token := range []string{first.RefreshToken, second.RefreshToken} {
		_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: token})
		appErr := asAppError(t, err)
		assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
	}

	require.Len(t, repo.auditLogs, 3)
	assert.Equal(t, models.AuditActionLogout, repo.auditLogs[2].Action)
}

func TestMe(t *testing.T) {
	svc, _ := newAuthFixture(t)

	info, err := svc.Me(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "admin@lumina.example", info.Email)

	_, err = svc.Me(context.Background(), "unknown")
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	svc, _ := newAuthFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "admin@lumina.example",
		Password: "hunter2secret",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(login.AccessToken + "x")
	appErr := asAppError(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErr.Code)
}
