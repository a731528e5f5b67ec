package middleware

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/lumina-interiors/consultations-api/internal/models"
	"github.com/lumina-interiors/consultations-api/internal/service"
)

type stubUserRepo struct {
	byEmail map[string]*models.User
	byID    map[string]*models.User
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.byID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (s *stubUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	return nil
}

func (s *stubUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	return nil, sql.ErrNoRows
}

func (s *stubUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	return nil
}

func (s *stubUserRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	return nil
}

func (s *stubUserRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	return nil
}

func newProtectedRouter(t *testing.T) (*gin.Engine, string, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2secret"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := &models.User{ID: "u1", Email: "admin@lumina.example", PasswordHash: string(hash), Role: models.RoleAdmin, Active: true}
	staff := &models.User{ID: "u2", Email: "staff@lumina.example", PasswordHash: string(hash), Role: models.RoleStaff, Active: true}
	repo := &stubUserRepo{
		byEmail: map[string]*models.User{admin.Email: admin, staff.Email: staff},
		byID:    map[string]*models.User{admin.ID: admin, staff.ID: staff},
	}
	authSvc := service.NewAuthService(repo, nil, nil, service.AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: time.Hour,
	})

	adminLogin, err := authSvc.Login(context.Background(), models.LoginRequest{Email: admin.Email, Password: "hunter2secret"})
	require.NoError(t, err)
	staffLogin, err := authSvc.Login(context.Background(), models.LoginRequest{Email: staff.Email, Password: "hunter2secret"})
	require.NoError(t, err)

	r := gin.New()
	protected := r.Group("/admin", JWT(authSvc), RequireRoles(models.RoleAdmin))
	protected.GET("/consultations", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r, adminLogin.AccessToken, staffLogin.AccessToken
}

func doAdminRequest(r *gin.Engine, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/admin/consultations", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r, _, _ := newProtectedRouter(t)

	w := doAdminRequest(r, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutesRejectGarbageToken(t *testing.T) {
	r, _, _ := newProtectedRouter(t)

	w := doAdminRequest(r, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutesRejectStaffRole(t *testing.T) {
	r, _, staffToken := newProtectedRouter(t)

	w := doAdminRequest(r, staffToken)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminRoutesAllowAdmin(t *testing.T) {
	r, adminToken, _ := newProtectedRouter(t)

	w := doAdminRequest(r, adminToken)
	assert.Equal(t, http.StatusOK, w.Code)
}
