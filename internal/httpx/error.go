package httpx

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MikeMC777/phonestore/internal/apperr"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindValidation, apperr.KindEmptyCart:
		return http.StatusBadRequest
	case apperr.KindPermissionDenied:
		return http.StatusForbidden
	case apperr.KindInvalidOperation, apperr.KindConflict,
		apperr.KindInsufficientStock, apperr.KindProductUnavailable:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// WriteError renders err as the JSON error envelope and aborts the chain.
// Errors that are not *apperr.Error become an opaque 500.
func WriteError(c *gin.Context, err error) {
	_ = c.Error(err)

	e, ok := apperr.As(err)
	if !ok {
		Abort(c, http.StatusInternalServerError, string(apperr.KindInternal), "internal server error")
		return
	}
	status := StatusFor(e.Kind)
	if e.Code == "unauthenticated" {
		status = http.StatusUnauthorized
	}
	body := envelope(c, e.Code, e.Message)
	if e.ProductID != "" {
		body["product_id"] = e.ProductID
	}
	if e.Kind == apperr.KindInsufficientStock {
		body["requested"] = e.Requested
		body["available"] = e.Available
	}
	c.AbortWithStatusJSON(status, body)
}

// Abort writes a plain envelope with the given status and code.
func Abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, envelope(c, code, message))
}

func envelope(c *gin.Context, code, message string) gin.H {
	body := gin.H{"error": code, "message": message}
	if rid := c.GetString("rid"); rid != "" {
		body["request_id"] = rid
	}
	return body
}
