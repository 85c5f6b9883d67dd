package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	app "plantserv/src/app"
	"plantserv/src/repository"
)

type stubObjectStore struct{}

func (stubObjectStore) Upload(context.Context, string, []byte, string) error {
	return nil
}

func (stubObjectStore) PresignedURL(_ context.Context, path string, _ time.Duration) (string, error) {
	return "https://blobs.example.com/" + path, nil
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := repository.NewMemoryKV()
	logger := zap.NewNop()
	catalog := app.NewCatalog(store, logger)
	require.NoError(t, catalog.Seed(context.Background()))

	identity := app.NewLocalIdentityProvider(store, "test-secret", time.Hour, logger)
	classifier := app.NewRandomClassifier(rand.NewSource(42))
	service := app.NewService(store, stubObjectStore{}, identity, classifier, catalog, 168*time.Hour, logger)

	return NewRouter(NewHandler(service, logger), []string{"http://localhost:3000"}, logger)
}

func doJSON(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	return body
}

func validJpegDataURL() string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("not-really-a-jpeg"))
}

func signupAndLogin(t *testing.T, router *gin.Engine, email string) string {
	t.Helper()
	recorder := doJSON(router, http.MethodPost, "/auth/signup", "",
		gin.H{"email": email, "password": "pw123456", "name": "Ava"})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	recorder = doJSON(router, http.MethodPost, "/auth/login", "",
		gin.H{"email": email, "password": "pw123456"})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	return decodeBody(t, recorder)["accessToken"].(string)
}

func TestGetHealth(t *testing.T) {
	router := newTestRouter(t)
	recorder := doJSON(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["timestamp"])
}

func TestSignupValidation(t *testing.T) {
	router := newTestRouter(t)
	recorder := doJSON(router, http.MethodPost, "/auth/signup", "",
		gin.H{"email": "a@x.com", "name": "Ava"})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, decodeBody(t, recorder)["error"], "required")
}

func TestSignupDuplicate(t *testing.T) {
	router := newTestRouter(t)
	payload := gin.H{"email": "a@x.com", "password": "pw123456", "name": "Ava"}

	recorder := doJSON(router, http.MethodPost, "/auth/signup", "", payload)
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSON(router, http.MethodPost, "/auth/signup", "", payload)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, decodeBody(t, recorder)["error"], "already exists")
}

func TestLoginBadPassword(t *testing.T) {
	router := newTestRouter(t)
	recorder := doJSON(router, http.MethodPost, "/auth/signup", "",
		gin.H{"email": "a@x.com", "password": "pw123456", "name": "Ava"})
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSON(router, http.MethodPost, "/auth/login", "",
		gin.H{"email": "a@x.com", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestPredictUnauthorized(t *testing.T) {
	router := newTestRouter(t)
	recorder := doJSON(router, http.MethodPost, "/predict", "",
		gin.H{"imageData": validJpegDataURL()})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	assert.Contains(t, decodeBody(t, recorder)["error"], "Unauthorized")
}

func TestPredictMissingImage(t *testing.T) {
	router := newTestRouter(t)
	token := signupAndLogin(t, router, "a@x.com")

	recorder := doJSON(router, http.MethodPost, "/predict", token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestPredictAndHistoryEndToEnd(t *testing.T) {
	router := newTestRouter(t)
	token := signupAndLogin(t, router, "a@x.com")

	recorder := doJSON(router, http.MethodPost, "/predict", token,
		gin.H{"imageData": validJpegDataURL()})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	body := decodeBody(t, recorder)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["predictionId"])

	result := body["result"].(map[string]any)
	confidence := result["confidence"].(float64)
	assert.GreaterOrEqual(t, confidence, float64(85))
	assert.LessOrEqual(t, confidence, float64(99))

	recorder = doJSON(router, http.MethodGet, "/history", token, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	history := decodeBody(t, recorder)
	predictions := history["predictions"].([]any)
	require.Len(t, predictions, 1)

	record := predictions[0].(map[string]any)
	assert.Equal(t, result["disease"], record["disease"])
	assert.Equal(t, result["confidence"], record["confidence"])
	assert.Equal(t, result["severity"], record["severity"])
}

func TestHistoryEmptyForNewUser(t *testing.T) {
	router := newTestRouter(t)
	token := signupAndLogin(t, router, "new@x.com")

	recorder := doJSON(router, http.MethodGet, "/history", token, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	predictions, ok := body["predictions"].([]any)
	require.True(t, ok, "predictions must be a JSON array, got %v", body["predictions"])
	assert.Empty(t, predictions)
}

func TestHistoryUnauthorized(t *testing.T) {
	router := newTestRouter(t)
	recorder := doJSON(router, http.MethodGet, "/history", "expired-or-garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestGetDiseases(t *testing.T) {
	router := newTestRouter(t)
	recorder := doJSON(router, http.MethodGet, "/diseases", "", nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	body := decodeBody(t, recorder)
	diseases := body["diseases"].([]any)
	assert.Len(t, diseases, 6)
}

func TestGetDiseaseByName(t *testing.T) {
	router := newTestRouter(t)

	recorder := doJSON(router, http.MethodGet, "/diseases/Late%20Blight", "", nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	disease := decodeBody(t, recorder)["disease"].(map[string]any)
	assert.Equal(t, "Late Blight", disease["name"])

	recorder = doJSON(router, http.MethodGet, "/diseases/Root%20Rot", "", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestDataURLDecoding(t *testing.T) {
	decoded := decodeDataURL("data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("abc")))
	assert.Equal(t, []byte("abc"), decoded)

	// Bare base64 without the data-URL header still decodes.
	decoded = decodeDataURL(base64.StdEncoding.EncodeToString([]byte("abc")))
	assert.Equal(t, []byte("abc"), decoded)

	assert.Nil(t, decodeDataURL("data:image/jpeg;base64,!!!not-base64!!!"))
	assert.Empty(t, decodeDataURL(""))
}
