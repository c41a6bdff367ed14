package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/inviteforge/inviteforge/internal/app"
	iauth "github.com/inviteforge/inviteforge/internal/auth"
	"github.com/inviteforge/inviteforge/internal/database/testutil"
	"github.com/inviteforge/inviteforge/internal/middleware"
	"github.com/inviteforge/inviteforge/internal/models"
	"github.com/inviteforge/inviteforge/internal/render"
	"github.com/inviteforge/inviteforge/internal/services"
	"github.com/inviteforge/inviteforge/internal/storage"
)

type testStack struct {
	router *gin.Engine
	users  *services.UserService
	jwt    *iauth.JWTService
}

func newTestStack(t *testing.T) *testStack {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	jwt, err := iauth.NewJWTService(iauth.JWTConfig{Secret: "test-secret", Issuer: "inviteforge"})
	require.NoError(t, err)

	users, err := services.NewUserService(db, bcrypt.MinCost)
	require.NoError(t, err)
	templates, err := services.NewTemplateService(db)
	require.NoError(t, err)

	fetcher := render.NewFetcher(render.FetcherConfig{Timeout: time.Second})
	invites, err := services.NewInviteService(db, services.InviteServiceConfig{
		Templates:  templates,
		Resolver:   render.NewResolver(fetcher),
		Compositor: render.NewCompositor(),
		Store:      store,
		PublicURL:  "http://localhost:8080",
	})
	require.NoError(t, err)

	stats, err := services.NewStatsService(db)
	require.NoError(t, err)

	cfg := &app.Config{}
	cfg.Auth.Local.AllowRegistration = true
	cfg.Security.RequestScanning = true
	cfg.Security.MaxBodyBytes = 10 << 20

	router, err := NewRouter(cfg, Dependencies{
		JWT:       jwt,
		Users:     users,
		Templates: templates,
		Invites:   invites,
		Stats:     stats,
		Files:     store,
		RateStore: middleware.NewMemoryRateStore(),
	})
	require.NoError(t, err)

	return &testStack{router: router, users: users, jwt: jwt}
}

func (s *testStack) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope struct {
		Success bool           `json:"success"`
		Data    map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, "body: %s", w.Body.String())
	return envelope.Data
}

func (s *testStack) registerAndLogin(t *testing.T, email string) string {
	t.Helper()

	w := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    email,
		"password": "supersecret",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := decodeData(t, w)
	tokens := data["tokens"].(map[string]any)
	return tokens["access_token"].(string)
}

func templateBody() gin.H {
	return gin.H{
		"name":       "Party",
		"background": "#ffcc00",
		"width":      200,
		"height":     100,
		"elements": []gin.H{
			{"type": "text", "content": "Hi {nome}", "x": 10, "y": 20, "fontSize": 16, "color": "#000000"},
		},
	}
}

func TestHealthEndpoint(t *testing.T) {
	s := newTestStack(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ok")
}

func TestAuthFlow(t *testing.T) {
	s := newTestStack(t)

	token := s.registerAndLogin(t, "ana@example.com")

	// Duplicate registration conflicts.
	w := s.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    "ana@example.com",
		"password": "supersecret",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	// Login with wrong password is a 401.
	w = s.do(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"email":    "ana@example.com",
		"password": "wrongpassword",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	// Profile round trip.
	w = s.do(t, http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "ana@example.com", decodeData(t, w)["email"])
}

func TestProtectedRoutesRequireAuth(t *testing.T) {
	s := newTestStack(t)

	for _, path := range []string{"/api/templates", "/api/auth/me", "/api/stats"} {
		w := s.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusUnauthorized, w.Code, "path %s", path)
	}
}

func TestTemplateCRUDAndAccessControl(t *testing.T) {
	s := newTestStack(t)

	alice := s.registerAndLogin(t, "alice@example.com")
	bob := s.registerAndLogin(t, "bob@example.com")

	// Alice creates a private template.
	w := s.do(t, http.MethodPost, "/api/templates", alice, templateBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	templateID := decodeData(t, w)["id"].(string)

	// Alice can read it; Bob cannot see it at all.
	w = s.do(t, http.MethodGet, "/api/templates/"+templateID, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/templates/"+templateID, bob, nil)
	require.Equal(t, http.StatusNotFound, w.Code)

	// Bob cannot modify or delete it either.
	w = s.do(t, http.MethodPut, "/api/templates/"+templateID, bob, templateBody())
	require.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodDelete, "/api/templates/"+templateID, bob, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	// Making it public exposes it to Bob.
	public := templateBody()
	public["is_public"] = true
	w = s.do(t, http.MethodPut, "/api/templates/"+templateID, alice, public)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/templates/"+templateID, bob, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Owner delete works; a second delete 404s.
	w = s.do(t, http.MethodDelete, "/api/templates/"+templateID, alice, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodDelete, "/api/templates/"+templateID, alice, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateFlow(t *testing.T) {
	s := newTestStack(t)
	token := s.registerAndLogin(t, "gen@example.com")

	w := s.do(t, http.MethodPost, "/api/templates", token, templateBody())
	require.Equal(t, http.StatusCreated, w.Code)
	templateID := decodeData(t, w)["id"].(string)

	w = s.do(t, http.MethodPost, "/api/generate/"+templateID, token, gin.H{"nome": "Ana"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := decodeData(t, w)

	inviteID := data["invite_id"].(string)
	imageURL := data["image_url"].(string)
	require.NotEmpty(t, inviteID)
	require.Contains(t, imageURL, "/api/images/invite_")

	// The stored image is publicly served.
	imagePath := imageURL[len("http://localhost:8080"):]
	w = s.do(t, http.MethodGet, imagePath, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))

	// Generated record and QR code are retrievable.
	w = s.do(t, http.MethodGet, "/api/generated/"+inviteID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/api/generated/"+inviteID+"/qr", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "image/png", w.Header().Get("Content-Type"))

	// Listing omits the element payloads.
	w = s.do(t, http.MethodGet, "/api/templates/"+templateID+"/generated", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotContains(t, w.Body.String(), "elements")

	// Malformed template ids are rejected before lookup.
	w = s.do(t, http.MethodPost, "/api/generate/short", token, gin.H{"nome": "Ana"})
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestGenerateSurvivesDeadImageURL(t *testing.T) {
	s := newTestStack(t)
	token := s.registerAndLogin(t, "dead@example.com")

	body := templateBody()
	body["elements"] = []gin.H{
		{"type": "text", "content": "Hi {nome}", "x": 10, "y": 20, "fontSize": 16},
		{"type": "image", "x": 50, "y": 10, "width": 40, "height": 40},
	}

	w := s.do(t, http.MethodPost, "/api/templates", token, body)
	require.Equal(t, http.StatusCreated, w.Code)
	templateID := decodeData(t, w)["id"].(string)

	w = s.do(t, http.MethodPost, "/api/generate/"+templateID, token, gin.H{
		"nome":  "Ana",
		"image": "http://127.0.0.1:1/unreachable.png",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestBulkGenerate(t *testing.T) {
	s := newTestStack(t)
	token := s.registerAndLogin(t, "bulk@example.com")

	w := s.do(t, http.MethodPost, "/api/templates", token, templateBody())
	require.Equal(t, http.StatusCreated, w.Code)
	templateID := decodeData(t, w)["id"].(string)

	w = s.do(t, http.MethodPost, "/api/templates/"+templateID+"/bulk-generate", token, gin.H{
		"invites": []gin.H{{"nome": "Ana"}, {"nome": "Bob"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := decodeData(t, w)
	require.Equal(t, float64(2), data["count"])
	require.Len(t, data["invites"].([]any), 2)
}

func TestUploadValidation(t *testing.T) {
	s := newTestStack(t)
	token := s.registerAndLogin(t, "up@example.com")

	upload := func(filename, contentType string, content []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)

		partHeader := textproto.MIMEHeader{}
		partHeader.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
		partHeader.Set("Content-Type", contentType)
		part, err := mw.CreatePart(partHeader)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)

		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}

	w := upload("evil.exe", "application/octet-stream", []byte("nope"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = upload("photo.txt", "image/png", []byte("not really"))
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = upload("photo.png", "image/png", []byte{0x89, 0x50, 0x4e, 0x47})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.Contains(t, decodeData(t, w)["data_uri"], "data:image/png;base64,")
}

func TestStatsRequiresAdmin(t *testing.T) {
	s := newTestStack(t)
	token := s.registerAndLogin(t, "user@example.com")

	w := s.do(t, http.MethodGet, "/api/stats", token, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	adminToken, err := s.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID: "admin-id",
		Role:   models.RoleAdmin,
	})
	require.NoError(t, err)

	w = s.do(t, http.MethodGet, "/api/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data := decodeData(t, w)
	require.Equal(t, float64(1), data["users"])
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	s := newTestStack(t)

	w := s.do(t, http.MethodGet, "/api/nope", "", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), fmt.Sprintf("route %s not found", "/api/nope"))
}
