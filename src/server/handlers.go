package server

import (
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	app "plantserv/src/app"
)

type (
	AppHandler struct {
		service *app.Service
		logger  *zap.Logger
	}

	SignupBody struct {
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}

	LoginBody struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	PredictBody struct {
		ImageData string `json:"imageData"`
	}
)

func NewHandler(service *app.Service, logger *zap.Logger) *AppHandler {
	return &AppHandler{service: service, logger: logger}
}

// bearerToken extracts the credential from the Authorization header.
// An empty string is handed to the service as-is and fails
// verification there.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return parts[1]
}

// decodeDataURL decodes the payload segment of a data-URL string:
// everything after the first comma is standard base64.
func decodeDataURL(imageData string) []byte {
	_, payload, found := strings.Cut(imageData, ",")
	if !found {
		payload = imageData
	}
	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil
	}
	return decoded
}

func (h *AppHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, app.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized - Please log in"})
	case errors.Is(err, app.ErrValidation), errors.Is(err, app.ErrConflict):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, app.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.logger.Error("request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *AppHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *AppHandler) Signup(c *gin.Context) {
	var body SignupBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email, password, and name are required"})
		return
	}

	user, err := h.service.SignUp(c.Request.Context(), body.Email, body.Password, body.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "User registered successfully",
		"user":    gin.H{"id": user.ID, "email": user.Email, "name": user.Name},
	})
}

func (h *AppHandler) Login(c *gin.Context) {
	var body LoginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	token, user, err := h.service.SignIn(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"accessToken": token,
		"user":        gin.H{"id": user.ID, "email": user.Email, "name": user.Name},
	})
}

func (h *AppHandler) Predict(c *gin.Context) {
	var body PredictBody
	// The service checks the credential before anything else, so a
	// bad body on a bad token still answers 401.
	if err := c.ShouldBindJSON(&body); err != nil {
		body = PredictBody{}
	}

	result, predictionID, err := h.service.Predict(c.Request.Context(), bearerToken(c), decodeDataURL(body.ImageData))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"result":       result,
		"predictionId": predictionID,
	})
}

func (h *AppHandler) GetHistory(c *gin.Context) {
	predictions, err := h.service.History(c.Request.Context(), bearerToken(c))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "predictions": predictions})
}

func (h *AppHandler) GetDiseases(c *gin.Context) {
	diseases, err := h.service.Diseases(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "diseases": diseases})
}

func (h *AppHandler) GetDisease(c *gin.Context) {
	disease, err := h.service.Disease(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "disease": disease})
}
