package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pulsefeed/pulsefeed/internal/models"
)

func testConfig() Config {
	return Config{JWTSecret: "test-secret", TokenDuration: time.Hour}
}

func TestTokenRoundTrip(t *testing.T) {
	token, err := GenerateToken("user-1", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	userID, err := ValidateToken(token, "test-secret")
	if err != nil {
		t.Fatalf("ValidateToken returned error: %v", err)
	}
	if userID != "user-1" {
		t.Errorf("expected user-1, got %q", userID)
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateToken("user-1", "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	if _, err := ValidateToken(token, "other-secret"); err == nil {
		t.Fatal("expected validation to fail with wrong secret")
	}
}

func TestValidateExpiredToken(t *testing.T) {
	token, err := GenerateToken("user-1", "test-secret", -time.Minute)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	if _, err := ValidateToken(token, "test-secret"); err == nil {
		t.Fatal("expected validation to fail for expired token")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("sup3rsecret")
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}

	if !CheckPassword("sup3rsecret", hash) {
		t.Error("expected correct password to verify")
	}
	if CheckPassword("wrongpass", hash) {
		t.Error("expected wrong password to fail")
	}
}

func TestMiddleware(t *testing.T) {
	cfg := testConfig()
	token, err := GenerateToken("user-1", cfg.JWTSecret, cfg.TokenDuration)
	if err != nil {
		t.Fatalf("GenerateToken returned error: %v", err)
	}

	var gotUserID string
	handler := Middleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{"valid token", "Bearer " + token, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"malformed header", "Token abc", http.StatusUnauthorized},
		{"garbage token", "Bearer not-a-token", http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != tc.wantStatus {
				t.Errorf("expected status %d, got %d", tc.wantStatus, rr.Code)
			}
		})
	}

	if gotUserID != "user-1" {
		t.Errorf("expected user id in context, got %q", gotUserID)
	}
}

// memoryUserRepo is an in-memory UserRepository for service tests.
type memoryUserRepo struct {
	users map[string]models.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]models.User)}
}

func (r *memoryUserRepo) Create(_ context.Context, user models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *memoryUserRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			user := u
			return &user, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func TestServiceRegisterAndLogin(t *testing.T) {
	svc := NewService(newMemoryUserRepo(), testConfig())

	user, token, err := svc.Register(context.Background(), "Alice@Example.com", "sup3rsecret")
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %q", user.Email)
	}
	if token == "" {
		t.Error("expected a token from Register")
	}

	loggedIn, token, err := svc.Login(context.Background(), "alice@example.com", "sup3rsecret")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if loggedIn.ID != user.ID {
		t.Errorf("expected same user, got %q vs %q", loggedIn.ID, user.ID)
	}
	if token == "" {
		t.Error("expected a token from Login")
	}
}

func TestServiceRegisterDuplicateEmail(t *testing.T) {
	svc := NewService(newMemoryUserRepo(), testConfig())

	if _, _, err := svc.Register(context.Background(), "alice@example.com", "sup3rsecret"); err != nil {
		t.Fatalf("first Register returned error: %v", err)
	}

	_, _, err := svc.Register(context.Background(), "alice@example.com", "otherpassword")
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestServiceRegisterValidation(t *testing.T) {
	svc := NewService(newMemoryUserRepo(), testConfig())

	if _, _, err := svc.Register(context.Background(), "not-an-email", "sup3rsecret"); err == nil {
		t.Error("expected error for invalid email")
	}
	if _, _, err := svc.Register(context.Background(), "alice@example.com", "short"); err == nil {
		t.Error("expected error for short password")
	}
}

func TestServiceLoginFailures(t *testing.T) {
	svc := NewService(newMemoryUserRepo(), testConfig())

	if _, _, err := svc.Register(context.Background(), "alice@example.com", "sup3rsecret"); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "alice@example.com", "wrongpass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "nobody@example.com", "sup3rsecret"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown user, got %v", err)
	}
}
