package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/geocoder89/sleephub/internal/validation"
	"github.com/gin-gonic/gin"
)

type APIError struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	Errors validation.Violations `json:"errors"`
}

func requestIDFrom(ctx *gin.Context) string {
	v, ok := ctx.Get("request_id")

	if ok {
		s, ok := v.(string)
		if ok && s != "" {
			return s
		}
	}

	// fallback header
	return ctx.GetHeader("X-Request-Id")
}

func RespondError(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, APIError{Error: message})
}

func RespondValidation(ctx *gin.Context, violations validation.Violations) {
	ctx.JSON(http.StatusBadRequest, ValidationErrorResponse{Errors: violations})
}

func RespondBadRequest(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusBadRequest, message)
}

func RespondNotFound(ctx *gin.Context, message string) {
	RespondError(ctx, http.StatusNotFound, message)
}

// RespondInternal logs the cause and sends a generic message; store errors
// never reach the client.
func RespondInternal(ctx *gin.Context, message string, err error) {
	slog.Default().ErrorContext(ctx.Request.Context(), message,
		"err", err,
		"request_id", requestIDFrom(ctx),
	)
	RespondError(ctx, http.StatusInternalServerError, message)
}

// RespondJSONWithETag serves read endpoints. The tag is a strong hash of the
// exact body, so a repeat listing or chart request whose data has not changed
// gets 304 with no body. Marshal failures fall through to a 500.
func RespondJSONWithETag(ctx *gin.Context, status int, payload interface{}) {
	body, err := json.Marshal(payload)
	if err != nil {
		RespondInternal(ctx, "Failed to encode response", err)
		return
	}

	sum := sha256.Sum256(body)
	etag := `"` + hex.EncodeToString(sum[:]) + `"`

	ctx.Header("ETag", etag)
	ctx.Header("Cache-Control", "no-cache")

	if ifNoneMatchMatches(ctx.GetHeader("If-None-Match"), etag) {
		ctx.Status(http.StatusNotModified)
		return
	}

	ctx.Data(status, "application/json; charset=utf-8", body)
}

// ifNoneMatchMatches applies the weak comparison If-None-Match calls for.
func ifNoneMatchMatches(headerValue, etag string) bool {
	headerValue = strings.TrimSpace(headerValue)
	if headerValue == "" {
		return false
	}
	if headerValue == "*" {
		return true
	}

	for _, part := range strings.Split(headerValue, ",") {
		if strings.TrimPrefix(strings.TrimSpace(part), "W/") == etag {
			return true
		}
	}
	return false
}
