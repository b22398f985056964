package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/habitstack/service-habit-go/internal/habit"
	habitrepo "github.com/habitstack/service-habit-go/internal/habit/repo"
	"github.com/habitstack/service-habit-go/internal/token"
	"github.com/habitstack/service-habit-go/internal/user"
	userrepo "github.com/habitstack/service-habit-go/internal/user/repo"
)

const testSecret = "test-secret"

// newTestHandler wires the full route table over in-memory repos.
func newTestHandler(t *testing.T) http.Handler {
	t.Helper()
	logger := zap.NewNop().Sugar()
	issuer := token.NewIssuer([]byte(testSecret))

	authSvc := user.NewAuthService(userrepo.NewMemoryRepo(), user.BcryptHasher{Cost: 4}, issuer)
	habitSvc := habit.NewService(habitrepo.NewMemoryRepo())

	return RegisterRoutes(logger,
		issuer,
		user.NewHandler(authSvc, logger),
		habit.NewHandler(habitSvc, logger),
	)
}

func doJSON(t *testing.T, h http.Handler, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func loginToken(t *testing.T, h http.Handler, email, password string) string {
	t.Helper()
	rec := doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": email, "password": password,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp["token"] == "" {
		t.Fatalf("login response missing token")
	}
	return resp["token"]
}

func TestHealth(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodGet, "/api/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode health response: %v", err)
	}
	if resp["status"] != "OK" {
		t.Errorf("expected status OK, got %q", resp["status"])
	}
	if resp["timestamp"] == "" {
		t.Errorf("expected a timestamp")
	}
}

func TestEndToEndScenario(t *testing.T) {
	h := newTestHandler(t)

	// register
	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "a@x.com", "password": "pw1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var registered struct {
		ID        int64  `json:"id"`
		Email     string `json:"email"`
		CreatedAt string `json:"createdAt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&registered); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	if registered.ID == 0 || registered.Email != "a@x.com" || registered.CreatedAt == "" {
		t.Fatalf("unexpected register response: %+v", registered)
	}
	if bytes.Contains(rec.Body.Bytes(), []byte("password")) {
		t.Fatalf("register response leaks password material: %s", rec.Body.String())
	}

	// login
	bearer := "Bearer " + loginToken(t, h, "a@x.com", "pw1")

	// create
	rec = doJSON(t, h, http.MethodPost, "/api/habits", bearer, map[string]string{"title": "Run"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		ID      int64  `json:"id"`
		Title   string `json:"title"`
		OwnerID int64  `json:"ownerId"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Title != "Run" {
		t.Errorf("expected title Run, got %q", created.Title)
	}
	if created.OwnerID != registered.ID {
		t.Errorf("expected ownerId %d, got %d", registered.ID, created.OwnerID)
	}

	// list contains exactly that habit
	rec = doJSON(t, h, http.MethodGet, "/api/habits", bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	var listed []struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listed) != 1 || listed[0].ID != created.ID {
		t.Fatalf("expected exactly the created habit, got %+v", listed)
	}

	// delete
	rec = doJSON(t, h, http.MethodDelete, fmt.Sprintf("/api/habits/%d", created.ID), bearer, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d: %s", rec.Code, rec.Body.String())
	}

	// list again is empty
	rec = doJSON(t, h, http.MethodGet, "/api/habits", bearer, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty array, got %s", body)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "a@x.com", "password": "pw1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "a@x.com", "password": "pw2",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for duplicate email, got %d", rec.Code)
	}
}

func TestLogin_BadCredentialsAreIndistinguishable(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "a@x.com", "password": "pw1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}

	wrongPw := doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "a@x.com", "password": "wrong",
	})
	noUser := doJSON(t, h, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@x.com", "password": "pw1",
	})

	if wrongPw.Code != http.StatusBadRequest || noUser.Code != http.StatusBadRequest {
		t.Fatalf("expected 400/400, got %d/%d", wrongPw.Code, noUser.Code)
	}
	if wrongPw.Body.String() != noUser.Body.String() {
		t.Fatalf("responses must be identical to prevent enumeration: %q vs %q",
			wrongPw.Body.String(), noUser.Body.String())
	}
}

func TestProtectedRoutes_TokenRejection(t *testing.T) {
	h := newTestHandler(t)

	expired := func() string {
		claims := token.Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				IssuedAt:  jwt.NewNumericDate(time.Now().Add(-2 * time.Hour)),
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
			},
			UserID: 1,
			Email:  "a@x.com",
		}
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		if err != nil {
			t.Fatalf("sign expired token: %v", err)
		}
		return s
	}()
	wrongKey := func() string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"user_id": 1,
			"exp":     time.Now().Add(time.Hour).Unix(),
		}).SignedString([]byte("other-secret"))
		if err != nil {
			t.Fatalf("sign forged token: %v", err)
		}
		return s
	}()

	cases := []struct {
		name   string
		bearer string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"wrong scheme", "Token abc", http.StatusUnauthorized},
		{"bare scheme", "Bearer", http.StatusUnauthorized},
		{"garbled token", "Bearer not.a.jwt", http.StatusForbidden},
		{"wrong key", "Bearer " + wrongKey, http.StatusForbidden},
		{"expired", "Bearer " + expired, http.StatusForbidden},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodGet, "/api/habits", tc.bearer, nil)
			if rec.Code != tc.want {
				t.Errorf("expected %d, got %d: %s", tc.want, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCrossUserMutation_ReportedAsNotFound(t *testing.T) {
	h := newTestHandler(t)

	for _, email := range []string{"a@x.com", "b@x.com"} {
		rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
			"email": email, "password": "pw1",
		})
		if rec.Code != http.StatusCreated {
			t.Fatalf("register %s: expected 201, got %d", email, rec.Code)
		}
	}
	bearerA := "Bearer " + loginToken(t, h, "a@x.com", "pw1")
	bearerB := "Bearer " + loginToken(t, h, "b@x.com", "pw1")

	rec := doJSON(t, h, http.MethodPost, "/api/habits", bearerA, map[string]string{"title": "Run"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d", rec.Code)
	}
	var created struct {
		ID int64 `json:"id"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}

	path := fmt.Sprintf("/api/habits/%d", created.ID)
	rec = doJSON(t, h, http.MethodPut, path, bearerB, map[string]string{"title": "Hijacked"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("update by non-owner: expected 404, got %d", rec.Code)
	}
	rec = doJSON(t, h, http.MethodDelete, path, bearerB, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete by non-owner: expected 404, got %d", rec.Code)
	}

	// habit remains unmodified for its owner
	rec = doJSON(t, h, http.MethodGet, "/api/habits", bearerA, nil)
	var listed []struct {
		Title string `json:"title"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&listed); err != nil {
		t.Fatalf("decode list response: %v", err)
	}
	if len(listed) != 1 || listed[0].Title != "Run" {
		t.Fatalf("expected habit untouched, got %+v", listed)
	}
}

func TestCreateHabit_MissingTitle(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "a@x.com", "password": "pw1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	bearer := "Bearer " + loginToken(t, h, "a@x.com", "pw1")

	rec = doJSON(t, h, http.MethodPost, "/api/habits", bearer, map[string]string{"description": "no title"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateHabit_NonNumericID(t *testing.T) {
	h := newTestHandler(t)

	rec := doJSON(t, h, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "a@x.com", "password": "pw1",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	bearer := "Bearer " + loginToken(t, h, "a@x.com", "pw1")

	rec = doJSON(t, h, http.MethodPut, "/api/habits/abc", bearer, map[string]string{"title": "x"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for non-numeric id, got %d", rec.Code)
	}
}
