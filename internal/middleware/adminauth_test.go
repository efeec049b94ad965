package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/capturelog/capturelog/internal/auth"
	"github.com/capturelog/capturelog/internal/services"
)

func adminRouter(svc *services.AdminSessionService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin/whoami", AdminAuth(svc), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"is_admin": c.GetBool(IsAdminKey)})
	})
	return router
}

func TestAdminAuthMissingCookie(t *testing.T) {
	svc := services.NewAdminSessionService("hunter2", []byte("secret"), time.Hour)
	router := adminRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/admin/whoami", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAdminAuthValidCookie(t *testing.T) {
	svc := services.NewAdminSessionService("hunter2", []byte("secret"), time.Hour)
	router := adminRouter(svc)

	token, err := svc.Login("hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/whoami", nil)
	req.AddCookie(&http.Cookie{Name: auth.AdminSessionCookieName, Value: token})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestAdminAuthForgedCookie(t *testing.T) {
	svc := services.NewAdminSessionService("hunter2", []byte("secret"), time.Hour)
	router := adminRouter(svc)

	other := services.NewAdminSessionService("hunter2", []byte("other-secret"), time.Hour)
	forged, err := other.Login("hunter2")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/whoami", nil)
	req.AddCookie(&http.Cookie{Name: auth.AdminSessionCookieName, Value: forged})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestAdminAuthTenantSessionRejected(t *testing.T) {
	svc := services.NewAdminSessionService("hunter2", []byte("secret"), time.Hour)
	router := adminRouter(svc)

	// a tenant session ID in the admin cookie can never verify
	req := httptest.NewRequest(http.MethodGet, "/admin/whoami", nil)
	req.AddCookie(&http.Cookie{Name: auth.AdminSessionCookieName, Value: "tenant-session-id"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}
