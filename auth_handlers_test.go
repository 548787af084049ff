package main

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

func TestRegisterAndLogin(t *testing.T) {
	r := newTestRouter(newTestDB(t), nil)

	userID, token := registerTestUser(t, r, "alice")
	if userID == "" || token == "" {
		t.Fatal("register returned empty user id or token")
	}

	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"username": "alice",
		"password": "password123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("login: status %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		User  User   `json:"user"`
		Token string `json:"token"`
	}
	decodeBody(t, w, &resp)
	if resp.User.ID != userID {
		t.Errorf("login user id = %q, want %q", resp.User.ID, userID)
	}
	if resp.Token == "" {
		t.Error("login returned no token")
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	r := newTestRouter(newTestDB(t), nil)
	registerTestUser(t, r, "alice")

	// same username, different email and password: still a conflict
	w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"username": "alice",
		"email":    "other@example.com",
		"password": "differentpass",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate register: status %d, want 409", w.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	r := newTestRouter(newTestDB(t), nil)
	tests := []struct {
		name string
		body gin.H
	}{
		{name: "missing username", body: gin.H{"email": "a@example.com", "password": "password123"}},
		{name: "bad email", body: gin.H{"username": "alice", "email": "nope", "password": "password123"}},
		{name: "short password", body: gin.H{"username": "alice", "email": "a@example.com", "password": "abc"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/v1/auth/register", "", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status %d, want 400", w.Code)
			}
		})
	}
}

func TestLoginBadCredentials(t *testing.T) {
	r := newTestRouter(newTestDB(t), nil)
	registerTestUser(t, r, "alice")

	tests := []struct {
		name string
		body gin.H
	}{
		{name: "wrong password", body: gin.H{"username": "alice", "password": "wrongpass"}},
		{name: "unknown user", body: gin.H{"username": "nobody", "password": "password123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doJSON(t, r, http.MethodPost, "/api/v1/auth/login", "", tt.body)
			if w.Code != http.StatusUnauthorized {
				t.Errorf("status %d, want 401", w.Code)
			}
		})
	}
}

func TestMe(t *testing.T) {
	r := newTestRouter(newTestDB(t), nil)
	userID, token := registerTestUser(t, r, "alice")

	w := doJSON(t, r, http.MethodGet, "/api/v1/auth/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("me: status %d, body %s", w.Code, w.Body.String())
	}
	var user User
	decodeBody(t, w, &user)
	if user.ID != userID || user.Username != "alice" {
		t.Errorf("me returned %+v", user)
	}
	if user.PasswordHash != "" {
		t.Error("password hash leaked in response")
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r := newTestRouter(newTestDB(t), nil)

	for _, path := range []string{"/api/v1/courses", "/api/v1/auth/me", "/api/v1/stats"} {
		w := doJSON(t, r, http.MethodGet, path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s without token: status %d, want 401", path, w.Code)
		}
	}

	w := doJSON(t, r, http.MethodGet, "/api/v1/courses", "not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status %d, want 401", w.Code)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := mintToken("secret-a", "user-1")
	if err != nil {
		t.Fatalf("mintToken: %v", err)
	}
	if _, err := verifyToken("secret-b", token); err == nil {
		t.Error("token signed with secret-a verified against secret-b")
	}
	id, err := verifyToken("secret-a", token)
	if err != nil || id != "user-1" {
		t.Errorf("verifyToken(correct secret) = (%q, %v)", id, err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	claims := sessionClaims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now().Add(-25 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testJWTSecret))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	if _, err := verifyToken(testJWTSecret, token); err == nil {
		t.Error("expired token verified")
	}

	r := newTestRouter(newTestDB(t), nil)
	w := doJSON(t, r, http.MethodGet, "/api/v1/courses", token, nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("expired token: status %d, want 401", w.Code)
	}
}
