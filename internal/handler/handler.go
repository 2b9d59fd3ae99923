// internal/handler/handler.go
package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/leaflens/species-service/internal/classify"
	"github.com/leaflens/species-service/internal/metrics"
	"github.com/leaflens/species-service/internal/middleware"
)

// Handler exposes the classification pipeline over HTTP.
type Handler struct {
	classifier *classify.Classifier
	logger     *zap.Logger
	maxUpload  int64
	readyNote  string
}

// New creates a Handler. maxUpload caps the accepted multipart body size in
// bytes; readyNote is the human-readable message reported by /health.
func New(classifier *classify.Classifier, logger *zap.Logger, maxUpload int64, readyNote string) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		classifier: classifier,
		logger:     logger,
		maxUpload:  maxUpload,
		readyNote:  readyNote,
	}
}

// Register attaches the API routes to a gin router.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", h.Health)
	r.POST("/predict", h.Predict)
}

// Health reports liveness. The server only binds its port after the
// pipeline has initialized, so reaching this handler implies readiness.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": h.readyNote,
	})
}

// Predict classifies the uploaded image and returns the ranked distribution.
func (h *Handler) Predict(c *gin.Context) {
	start := time.Now()
	requestID := middleware.GetRequestID(c)

	if h.classifier == nil {
		h.fail(c, requestID, fmt.Errorf("classifier not initialized"))
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUpload)

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(c, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("image payload exceeds the %d byte limit", h.maxUpload))
			return
		}
		writeError(c, http.StatusBadRequest, "no image file provided; use 'image' as the form field name")
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		writeError(c, http.StatusBadRequest, "failed to read image payload")
		return
	}

	pred, err := h.classifier.Classify(c.Request.Context(), raw)
	if err != nil {
		if status, msg, ok := clientError(err); ok {
			h.logger.Info("rejected prediction request",
				zap.String("request_id", requestID),
				zap.String("reason", err.Error()))
			writeError(c, status, msg)
			return
		}
		h.fail(c, requestID, err)
		return
	}

	metrics.RecordPrediction(pred.ClassName)
	h.logger.Info("prediction served",
		zap.String("request_id", requestID),
		zap.String("filename", header.Filename),
		zap.Int64("bytes", header.Size),
		zap.String("class", pred.ClassName),
		zap.Float32("confidence", pred.Confidence),
		zap.Duration("elapsed", time.Since(start)))

	c.JSON(http.StatusOK, pred)
}

// fail logs the full error server-side and returns a generic message, so
// internal detail never reaches the client.
func (h *Handler) fail(c *gin.Context, requestID string, err error) {
	h.logger.Error("prediction failed",
		zap.String("request_id", requestID),
		zap.Error(err))
	writeError(c, http.StatusInternalServerError, "prediction failed")
}
