package errors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestParseError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		context    string
		wantStatus int
		wantCode   string
	}{
		{"nil", nil, "cart", http.StatusInternalServerError, InternalServerError},
		{"product missing", catalog.ErrProductNotFound, "product", http.StatusNotFound, CatalogProductMissing},
		{"wrapped unavailable", fmt.Errorf("%w: status 502", catalog.ErrUnavailable), "product list", http.StatusServiceUnavailable, CatalogUnavailable},
		{"record not found", gorm.ErrRecordNotFound, "cart", http.StatusNotFound, ResourceNotFound},
		{"deadline", fmt.Errorf("fetch: %w", context.DeadlineExceeded), "product", http.StatusGatewayTimeout, InternalExternalAPI},
		{"connection refused", errors.New("dial tcp: connection refused"), "cart", http.StatusBadGateway, InternalExternalAPI},
		{"unknown", errors.New("boom"), "cart export", http.StatusInternalServerError, InternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseError(tt.err, tt.context)
			assert.Equal(t, tt.wantStatus, info.Status)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.NotEmpty(t, info.Message)
		})
	}
}

func TestParseError_ContextMessages(t *testing.T) {
	assert.Equal(t, "Product not found", ParseError(catalog.ErrProductNotFound, "product").Message)
	assert.Equal(t, "Could not export the cart. Please try again later", ParseError(errors.New("x"), "cart export").Message)
}

func TestRespondWithParsedError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	RespondWithParsedError(c, catalog.ErrUnavailable, "product list")

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	var body ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, CatalogUnavailable, body.Error)
}
