package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dietoteka/dietoteka-backend/internal/data/repos/testutil"
	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/ctxutil"
	"github.com/dietoteka/dietoteka-backend/internal/services"
)

type fakeAuthService struct {
	token   string
	session *types.Session
	user    *types.User
}

func (f *fakeAuthService) SignupWithInvitation(ctx context.Context, input services.SignupInput) (*services.AuthResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeAuthService) Login(ctx context.Context, input services.LoginInput) (*services.AuthResult, error) {
	return nil, fmt.Errorf("not implemented")
}

func (f *fakeAuthService) Logout(ctx context.Context, sessionToken string) error { return nil }

func (f *fakeAuthService) ValidateSession(ctx context.Context, sessionToken string) (*types.Session, *types.User, error) {
	if sessionToken != f.token {
		return nil, nil, fmt.Errorf("invalid session")
	}
	return f.session, f.user, nil
}

func (f *fakeAuthService) RequestPasswordReset(ctx context.Context, email string) error { return nil }

func (f *fakeAuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	return nil
}

func authFixture(t *testing.T, role string) (*gin.Engine, *fakeAuthService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := &fakeAuthService{
		token:   "valid-token",
		session: &types.Session{ID: uuid.New()},
		user:    &types.User{ID: uuid.New(), Role: role},
	}
	am := NewAuthMiddleware(testutil.Logger(t), svc)

	r := gin.New()
	protected := r.Group("/", am.RequireAuth())
	protected.GET("/whoami", func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"user_id": rd.UserID, "role": rd.Role})
	})
	protected.GET("/admin", am.RequireRole(types.RoleDietitian), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return r, svc
}

func get(r *gin.Engine, path string, decorate func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if decorate != nil {
		decorate(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	r, _ := authFixture(t, types.RolePatient)

	if w := get(r, "/whoami", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuthRejectsUnknownToken(t *testing.T) {
	r, _ := authFixture(t, types.RolePatient)

	w := get(r, "/whoami", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "wrong"})
	})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuthAcceptsCookie(t *testing.T) {
	r, svc := authFixture(t, types.RolePatient)

	w := get(r, "/whoami", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: svc.token})
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestRequireAuthAcceptsBearerFallback(t *testing.T) {
	r, svc := authFixture(t, types.RolePatient)

	w := get(r, "/whoami", func(req *http.Request) {
		req.Header.Set("Authorization", "Bearer "+svc.token)
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestRequireRoleBlocksPatients(t *testing.T) {
	r, svc := authFixture(t, types.RolePatient)

	w := get(r, "/admin", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: svc.token})
	})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
}

func TestRequireRoleAdmitsDietitians(t *testing.T) {
	r, svc := authFixture(t, types.RoleDietitian)

	w := get(r, "/admin", func(req *http.Request) {
		req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: svc.token})
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}
