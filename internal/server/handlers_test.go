package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"tally/internal/config"
	"tally/internal/models"
	"tally/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Tenant{},
		&models.User{},
		&models.Post{},
		&models.Upvote{},
	); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	return db
}

func newTestServer(t *testing.T) (*Server, *fiber.App, *gorm.DB) {
	t.Helper()
	db := setupHandlerTestDB(t)

	s := &Server{
		config:     &config.Config{Port: "8080", JWTSecret: "test_secret", Env: "test"},
		db:         db,
		userRepo:   repository.NewUserRepository(db),
		tenantRepo: repository.NewTenantRepository(db),
		postRepo:   repository.NewPostRepository(db),
		upvoteRepo: repository.NewUpvoteRepository(db),
	}

	app := fiber.New(fiber.Config{ErrorHandler: s.ErrorHandler})
	s.SetupRoutes(app)
	return s, app, db
}

// doJSON issues a request with an optional JSON body and headers, decoding
// the JSON response into out when it is non-nil.
func doJSON(t *testing.T, app *fiber.App, method, path string, body any, headers map[string]string, out any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := app.Test(req)
	require.NoError(t, err)

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	_ = resp.Body.Close()
	return resp
}

func createTenant(t *testing.T, app *fiber.App, name, slug string) models.Tenant {
	t.Helper()
	var tenant models.Tenant
	resp := doJSON(t, app, http.MethodPost, "/tenants/", map[string]string{
		"company_name": name,
		"slug":         slug,
	}, nil, &tenant)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return tenant
}

func registerUser(t *testing.T, app *fiber.App, email, password, role string, tenantID uint) models.User {
	t.Helper()
	var user models.User
	resp := doJSON(t, app, http.MethodPost, "/auth/register", map[string]any{
		"email":     email,
		"password":  password,
		"role":      role,
		"tenant_id": tenantID,
	}, nil, &user)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return user
}

func loginUser(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()
	var payload map[string]string
	resp := doJSON(t, app, http.MethodPost, "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, nil, &payload)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "bearer", payload["token_type"])
	require.NotEmpty(t, payload["access_token"])
	return payload["access_token"]
}

func authHeaders(token string, tenantID uint) map[string]string {
	h := map[string]string{"Authorization": "Bearer " + token}
	if tenantID != 0 {
		h["X-Tenant-ID"] = fmt.Sprintf("%d", tenantID)
	}
	return h
}

func TestFeedbackBoardFlow(t *testing.T) {
	_, app, _ := newTestServer(t)

	tenant := createTenant(t, app, "Acme", "acme")

	registerUser(t, app, "admin@acme.io", "Password123", "admin", tenant.ID)
	alice := registerUser(t, app, "alice@acme.io", "Password123", "", tenant.ID)
	assert.Equal(t, models.RoleUser, alice.Role)

	aliceToken := loginUser(t, app, "alice@acme.io", "Password123")
	adminToken := loginUser(t, app, "admin@acme.io", "Password123")

	// Alice submits a feature request
	var post models.Post
	resp := doJSON(t, app, http.MethodPost, "/posts/", map[string]any{
		"title":       "Add dark mode",
		"description": "Light mode hurts at night",
	}, authHeaders(aliceToken, 0), &post)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, models.StatusPlanned, post.Status)
	assert.Equal(t, tenant.ID, post.TenantID)
	assert.Equal(t, alice.ID, post.UserID)

	// Anyone in the tenant can browse
	var posts []models.Post
	resp = doJSON(t, app, http.MethodGet, "/posts", nil,
		map[string]string{"X-Tenant-ID": fmt.Sprintf("%d", tenant.ID)}, &posts)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, posts, 1)
	assert.Equal(t, 0, posts[0].UpvotesCount)
	assert.False(t, posts[0].Upvoted)

	// Upvoting is idempotent: the second call returns the same upvote record
	upvotePath := fmt.Sprintf("/posts/%d/upvote", post.ID)
	var firstUpvote, secondUpvote models.Upvote
	resp = doJSON(t, app, http.MethodPost, upvotePath, nil, authHeaders(aliceToken, 0), &firstUpvote)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotZero(t, firstUpvote.ID)
	assert.Equal(t, alice.ID, firstUpvote.UserID)
	assert.Equal(t, post.ID, firstUpvote.PostID)

	resp = doJSON(t, app, http.MethodPost, upvotePath, nil, authHeaders(aliceToken, 0), &secondUpvote)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, firstUpvote.ID, secondUpvote.ID)

	// The count reflects a single row, and the voter sees their flag
	resp = doJSON(t, app, http.MethodGet, "/posts", nil,
		authHeaders(aliceToken, tenant.ID), &posts)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, posts, 1)
	assert.Equal(t, 1, posts[0].UpvotesCount)
	assert.True(t, posts[0].Upvoted)

	// Regular users cannot change status
	statusPath := fmt.Sprintf("/posts/%d/status", post.ID)
	resp = doJSON(t, app, http.MethodPut, statusPath, map[string]string{
		"status": "in_progress",
	}, authHeaders(aliceToken, 0), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Admins can
	var updated models.Post
	resp = doJSON(t, app, http.MethodPut, statusPath, map[string]string{
		"status": "in_progress",
	}, authHeaders(adminToken, 0), &updated)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, models.StatusInProgress, updated.Status)

	resp = doJSON(t, app, http.MethodGet, "/posts", nil,
		map[string]string{"X-Tenant-ID": fmt.Sprintf("%d", tenant.ID)}, &posts)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, posts, 1)
	assert.Equal(t, models.StatusInProgress, posts[0].Status)
	assert.Equal(t, 1, posts[0].UpvotesCount)
}

func TestRegisterValidation(t *testing.T) {
	_, app, _ := newTestServer(t)
	tenant := createTenant(t, app, "Acme", "acme")

	tests := []struct {
		name string
		body map[string]any
	}{
		{
			name: "unknown tenant",
			body: map[string]any{"email": "a@b.io", "password": "Password123", "tenant_id": tenant.ID + 99},
		},
		{
			name: "missing tenant",
			body: map[string]any{"email": "a@b.io", "password": "Password123"},
		},
		{
			name: "invalid email",
			body: map[string]any{"email": "not-an-email", "password": "Password123", "tenant_id": tenant.ID},
		},
		{
			name: "short password",
			body: map[string]any{"email": "a@b.io", "password": "short", "tenant_id": tenant.ID},
		},
		{
			name: "invalid role",
			body: map[string]any{"email": "a@b.io", "password": "Password123", "role": "owner", "tenant_id": tenant.ID},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := doJSON(t, app, http.MethodPost, "/auth/register", tt.body, nil, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, app, _ := newTestServer(t)
	tenant := createTenant(t, app, "Acme", "acme")

	registerUser(t, app, "alice@acme.io", "Password123", "", tenant.ID)

	var errResp models.ErrorResponse
	resp := doJSON(t, app, http.MethodPost, "/auth/register", map[string]any{
		"email":     "alice@acme.io",
		"password":  "Password123",
		"tenant_id": tenant.ID,
	}, nil, &errResp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", errResp.Code)
}

func TestCreateTenantValidation(t *testing.T) {
	_, app, _ := newTestServer(t)
	createTenant(t, app, "Acme", "acme")

	// Duplicate slug
	resp := doJSON(t, app, http.MethodPost, "/tenants/", map[string]string{
		"company_name": "Acme Two",
		"slug":         "acme",
	}, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Reserved slug
	resp = doJSON(t, app, http.MethodPost, "/tenants/", map[string]string{
		"company_name": "Admin Inc",
		"slug":         "admin",
	}, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Missing fields
	resp = doJSON(t, app, http.MethodPost, "/tenants/", map[string]string{
		"company_name": "No Slug Inc",
	}, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetTenants(t *testing.T) {
	_, app, _ := newTestServer(t)
	createTenant(t, app, "Acme", "acme")
	createTenant(t, app, "Globex", "globex")

	var tenants []models.Tenant
	resp := doJSON(t, app, http.MethodGet, "/tenants/", nil, nil, &tenants)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, tenants, 2)
}

func TestGetPostsTenantHeader(t *testing.T) {
	_, app, _ := newTestServer(t)

	resp := doJSON(t, app, http.MethodGet, "/posts", nil, nil, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, app, http.MethodGet, "/posts", nil,
		map[string]string{"X-Tenant-ID": "banana"}, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestTenantIsolation(t *testing.T) {
	_, app, _ := newTestServer(t)

	acme := createTenant(t, app, "Acme", "acme")
	globex := createTenant(t, app, "Globex", "globex")

	registerUser(t, app, "alice@acme.io", "Password123", "", acme.ID)
	registerUser(t, app, "bob@globex.io", "Password123", "", globex.ID)

	aliceToken := loginUser(t, app, "alice@acme.io", "Password123")
	bobToken := loginUser(t, app, "bob@globex.io", "Password123")

	var acmePost models.Post
	resp := doJSON(t, app, http.MethodPost, "/posts/", map[string]string{
		"title":       "Acme only",
		"description": "internal",
	}, authHeaders(aliceToken, 0), &acmePost)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Globex sees nothing of Acme's board
	var posts []models.Post
	resp = doJSON(t, app, http.MethodGet, "/posts", nil,
		map[string]string{"X-Tenant-ID": fmt.Sprintf("%d", globex.ID)}, &posts)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, posts)

	// Bob cannot create posts in Acme's tenant, via body tenant_id
	resp = doJSON(t, app, http.MethodPost, "/posts/", map[string]any{
		"title":       "Sneaky",
		"description": "cross-tenant",
		"tenant_id":   acme.ID,
	}, authHeaders(bobToken, 0), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// nor via the X-Tenant-ID header
	resp = doJSON(t, app, http.MethodPost, "/posts/", map[string]string{
		"title":       "Sneaky",
		"description": "cross-tenant",
	}, authHeaders(bobToken, acme.ID), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// while a header naming his own tenant is accepted
	resp = doJSON(t, app, http.MethodPost, "/posts/", map[string]string{
		"title":       "Globex roadmap",
		"description": "fine",
	}, authHeaders(bobToken, globex.ID), nil)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// Bob cannot upvote an Acme post; within his scope it does not exist
	resp = doJSON(t, app, http.MethodPost, fmt.Sprintf("/posts/%d/upvote", acmePost.ID), nil,
		authHeaders(bobToken, 0), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreatePostRequiresAuth(t *testing.T) {
	_, app, _ := newTestServer(t)

	resp := doJSON(t, app, http.MethodPost, "/posts/", map[string]string{
		"title":       "No auth",
		"description": "nope",
	}, nil, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestUpdatePostStatusValidation(t *testing.T) {
	_, app, _ := newTestServer(t)

	tenant := createTenant(t, app, "Acme", "acme")
	registerUser(t, app, "admin@acme.io", "Password123", "admin", tenant.ID)
	adminToken := loginUser(t, app, "admin@acme.io", "Password123")

	var post models.Post
	resp := doJSON(t, app, http.MethodPost, "/posts/", map[string]string{
		"title":       "Add dark mode",
		"description": "please",
	}, authHeaders(adminToken, 0), &post)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	// Unknown status value
	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/posts/%d/status", post.ID),
		map[string]string{"status": "shipped"}, authHeaders(adminToken, 0), nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// Nonexistent post
	resp = doJSON(t, app, http.MethodPut, fmt.Sprintf("/posts/%d/status", post.ID+99),
		map[string]string{"status": "completed"}, authHeaders(adminToken, 0), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
