package auth

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sobanshoaib/schedular-app-challenge/config"
	"github.com/sobanshoaib/schedular-app-challenge/models"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(config.DefaultConfig().Auth)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestLogin(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name     string
		username string
		password string
		wantErr  bool
		want     models.Actor
	}{
		{"parent", "parent", "password123", false, models.Actor{Username: "parent", Role: models.RoleParent, StudentID: "s1"}},
		{"admin", "admin", "admin123", false, models.Actor{Username: "admin", Role: models.RoleAdmin}},
		{"wrong password", "parent", "admin123", true, models.Actor{}},
		{"unknown user", "nobody", "password123", true, models.Actor{}},
		{"empty", "", "", true, models.Actor{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, actor, expires, err := svc.Login(tt.username, tt.password)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCredentials) {
					t.Fatalf("expected ErrInvalidCredentials, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Login: %v", err)
			}
			if actor != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, actor)
			}
			if !expires.After(time.Now()) {
				t.Errorf("token already expired at %v", expires)
			}
			parsed, err := svc.ParseToken(token)
			if err != nil {
				t.Fatalf("ParseToken: %v", err)
			}
			if parsed != tt.want {
				t.Errorf("token carries %+v, want %+v", parsed, tt.want)
			}
		})
	}
}

func TestParseTokenRejects(t *testing.T) {
	svc := newTestService(t)
	token, _, _, err := svc.Login("admin", "admin123")
	if err != nil {
		t.Fatal(err)
	}

	other := config.DefaultConfig().Auth
	other.Secret = "another-secret"
	foreign, err := NewService(other)
	if err != nil {
		t.Fatal(err)
	}

	expired := newTestService(t)
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	stale, _, _, err := expired.Login("parent", "password123")
	if err != nil {
		t.Fatal(err)
	}

	cases := map[string]func() error{
		"garbage":      func() error { _, err := svc.ParseToken("not-a-token"); return err },
		"tampered":     func() error { _, err := svc.ParseToken(token + "x"); return err },
		"wrong secret": func() error { _, err := foreign.ParseToken(token); return err },
		"expired":      func() error { _, err := svc.ParseToken(stale); return err },
	}
	for name, parse := range cases {
		if err := parse(); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := newTestService(t)
	parentToken, _, _, _ := svc.Login("parent", "password123")
	adminToken, _, _, _ := svc.Login("admin", "admin123")

	router := gin.New()
	api := router.Group("/api", Middleware(svc))
	api.GET("/me", func(c *gin.Context) {
		actor, _ := ActorFrom(c)
		c.JSON(http.StatusOK, actor)
	})
	api.GET("/admin", RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	tests := []struct {
		name   string
		path   string
		header string
		want   int
	}{
		{"no token", "/api/me", "", http.StatusUnauthorized},
		{"bad token", "/api/me", "Bearer nope", http.StatusUnauthorized},
		{"parent me", "/api/me", "Bearer " + parentToken, http.StatusOK},
		{"lowercase scheme", "/api/me", "bearer " + parentToken, http.StatusOK},
		{"query token", "/api/me?token=" + parentToken, "", http.StatusOK},
		{"parent on admin route", "/api/admin", "Bearer " + parentToken, http.StatusForbidden},
		{"admin on admin route", "/api/admin", "Bearer " + adminToken, http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("expected %d, got %d (%s)", tt.want, w.Code, w.Body.String())
			}
		})
	}
}
