package booking

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"studiobooking/internal/domain"
	"studiobooking/internal/middleware"
	"studiobooking/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRouter(t *testing.T) (*gin.Engine, *testEnv, *jwt.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	env := setupTestService(t)
	tokens := jwt.New("test-secret", time.Hour)

	r := gin.New()
	api := r.Group("/api/v1")
	protected := api.Group("", middleware.JWTAuth(tokens))
	staffGroup := protected.Group("", middleware.StaffOnly())
	NewHandler(env.svc).RegisterRoutes(api, protected, staffGroup)
	return r, env, tokens
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_CreateAndConflict(t *testing.T) {
	r, env, tokens := setupRouter(t)
	s := env.studio(t, 50)
	token, _ := tokens.GenerateToken(client.UserID, string(domain.RoleClient))

	body := gin.H{"studio_id": s.ID, "start_time": hr(10), "end_time": hr(12)}
	w := do(t, r, http.MethodPost, "/api/v1/bookings", token, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			Booking domain.Booking `json:"booking"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 100.0, resp.Data.Booking.TotalPrice)

	w = do(t, r, http.MethodPost, "/api/v1/bookings", token, gin.H{"studio_id": s.ID, "start_time": hr(11), "end_time": hr(13)})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "BOOKING_CONFLICT")

	w = do(t, r, http.MethodPost, "/api/v1/bookings", token, gin.H{"studio_id": s.ID, "start_time": hr(13), "end_time": hr(12)})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_INTERVAL")
}

func TestHandler_ConfirmRequiresStaff(t *testing.T) {
	r, env, tokens := setupRouter(t)
	s := env.studio(t, 50)
	b, err := env.svc.CreateBooking(context.Background(), client, book(s.ID, 1, 2))
	require.NoError(t, err)

	clientToken, _ := tokens.GenerateToken(client.UserID, string(domain.RoleClient))
	staffToken, _ := tokens.GenerateToken(staff.UserID, string(domain.RoleStaff))
	path := "/api/v1/bookings/" + jsonID(b.ID) + "/confirm"

	assert.Equal(t, http.StatusForbidden, do(t, r, http.MethodPatch, path, clientToken, nil).Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodPatch, path, staffToken, nil).Code)
	assert.Equal(t, http.StatusConflict, do(t, r, http.MethodPatch, path, staffToken, nil).Code)
}

func TestHandler_CancelAndAvailability(t *testing.T) {
	r, env, tokens := setupRouter(t)
	s := env.studio(t, 50)
	b, err := env.svc.CreateBooking(context.Background(), client, book(s.ID, 1, 2))
	require.NoError(t, err)

	otherToken, _ := tokens.GenerateToken(client2.UserID, string(domain.RoleClient))
	ownerToken, _ := tokens.GenerateToken(client.UserID, string(domain.RoleClient))
	path := "/api/v1/bookings/" + jsonID(b.ID) + "/cancel"

	assert.Equal(t, http.StatusForbidden, do(t, r, http.MethodPatch, path, otherToken, gin.H{"reason": "x"}).Code)
	assert.Equal(t, http.StatusOK, do(t, r, http.MethodPatch, path, ownerToken, gin.H{"reason": "x"}).Code)
	assert.Equal(t, http.StatusConflict, do(t, r, http.MethodPatch, path, ownerToken, nil).Code)
	assert.Equal(t, http.StatusNotFound, do(t, r, http.MethodPatch, "/api/v1/bookings/999/cancel", ownerToken, nil).Code)

	avail := "/api/v1/studios/" + jsonID(s.ID) + "/availability?from=" + hr(0).Format(time.RFC3339) + "&to=" + hr(24).Format(time.RFC3339)
	w := do(t, r, http.MethodGet, avail, "", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"busy":[]`)
}

func jsonID(id int64) string {
	b, _ := json.Marshal(id)
	return string(b)
}
