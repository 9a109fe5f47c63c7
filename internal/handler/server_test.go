package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/jpbreysse/svelteblog/internal/config"
	"github.com/jpbreysse/svelteblog/internal/database"
	"github.com/jpbreysse/svelteblog/internal/handler"
	"github.com/jpbreysse/svelteblog/internal/middleware"
	"github.com/jpbreysse/svelteblog/internal/repository"
	"github.com/jpbreysse/svelteblog/internal/router"
)

const adminPassword = "admin123"

type testApp struct {
	e     *echo.Echo
	users *repository.UserRepo
	posts *repository.PostRepo
}

// newTestApp assembles the full service over a throwaway sqlite database,
// exactly as main does, minus the listener and the queue consumer.
func newTestApp(t *testing.T) *testApp {
	t.Helper()
	cfg := config.Config{
		Env:        "test",
		DBDriver:   "sqlite3",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
		JWTSecret:  "0123456789abcdef0123456789abcdef",
		BcryptCost: bcrypt.MinCost,
		SessionTTL: 7 * 24 * time.Hour,
	}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	log := zap.NewNop()
	users := repository.NewUserRepo(db, cfg.BcryptCost)
	posts := repository.NewPostRepo(db)

	e := echo.New()
	e.HideBanner = true
	router.Register(e, cfg.JWTSecret, users,
		handler.NewAuthHandler(cfg, users, log),
		handler.NewPostHandler(posts, log),
		handler.NewPublicHandler(posts, log),
		handler.NewAdminHandler(users, posts, log))

	return &testApp{e: e, users: users, posts: posts}
}

// do issues one JSON request against the app and decodes the response body.
func (a *testApp) do(t *testing.T, method, path, body string, cookie *http.Cookie) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded),
			"response is not JSON: %s", rec.Body.String())
	}
	return rec, decoded
}

// login authenticates and returns the session cookie the server set.
func (a *testApp) login(t *testing.T, email, password string) *http.Cookie {
	t.Helper()
	rec, _ := a.do(t, http.MethodPost, "/v1/auth/login",
		`{"email":"`+email+`","password":"`+password+`"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code, "login failed: %s", rec.Body.String())

	for _, c := range rec.Result().Cookies() {
		if c.Name == middleware.CookieName && c.Value != "" {
			return c
		}
	}
	t.Fatal("no session cookie in login response")
	return nil
}

// register creates an account and returns its id.
func (a *testApp) register(t *testing.T, email, first, last, password string) uint64 {
	t.Helper()
	rec, body := a.do(t, http.MethodPost, "/v1/auth/register",
		`{"email":"`+email+`","first_name":"`+first+`","last_name":"`+last+
			`","password":"`+password+`","confirm_password":"`+password+`"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code, "register failed: %s", rec.Body.String())
	user := body["user"].(map[string]any)
	return uint64(user["id"].(float64))
}

// approvedAccount registers an account and has the bootstrap admin approve
// it, returning its id and a logged-in session cookie.
func (a *testApp) approvedAccount(t *testing.T, email, password string) (uint64, *http.Cookie) {
	t.Helper()
	id := a.register(t, email, "Test", "User", password)
	adminCookie := a.login(t, database.AdminEmail, adminPassword)
	rec, _ := a.do(t, http.MethodPost, "/v1/admin/users/"+itoa(id)+"/approve", "", adminCookie)
	require.Equal(t, http.StatusOK, rec.Code, "approve failed: %s", rec.Body.String())
	return id, a.login(t, email, password)
}

func itoa(id uint64) string {
	return strconv.FormatUint(id, 10)
}
