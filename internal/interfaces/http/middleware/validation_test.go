package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rentflow/backend/internal/interfaces/http/dto"
	"github.com/stretchr/testify/assert"
)

func bindRouter() *gin.Engine {
	SetupValidator()
	router := gin.New()
	router.POST("/split-plans", func(c *gin.Context) {
		var req dto.CreateSplitPlanRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusCreated)
	})
	router.POST("/pay", func(c *gin.Context) {
		var req dto.InitiatePaymentRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleValidationError(c, err)
			return
		}
		c.Status(http.StatusCreated)
	})
	return router
}

func post(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestDecimalPositive(t *testing.T) {
	router := bindRouter()
	contract := `"contract_id":"5d0e4c7e-3f4b-4c55-9d55-2b1f1b3c9a10","deposit_percentage":30`

	tests := []struct {
		amount string
		want   int
	}{
		{"1000", http.StatusCreated},
		{"1000.50", http.StatusCreated},
		{"0", http.StatusBadRequest},
		{"-10", http.StatusBadRequest},
		{"10.001", http.StatusBadRequest},
		{"ten", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			w := post(router, "/split-plans", `{`+contract+`,"total_amount":"`+tt.amount+`"}`)
			assert.Equal(t, tt.want, w.Code)
			if tt.want == http.StatusBadRequest {
				assert.Contains(t, w.Body.String(), `"field":"total_amount"`)
				assert.Contains(t, w.Body.String(), `"tag":"decimal_positive"`)
			}
		})
	}
}

func TestRailValidator(t *testing.T) {
	router := bindRouter()

	assert.Equal(t, http.StatusCreated, post(router, "/pay", `{"rail":"CARD"}`).Code)
	assert.Equal(t, http.StatusCreated, post(router, "/pay", `{"rail":"mobile-money"}`).Code)

	w := post(router, "/pay", `{"rail":"CHEQUE"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Must be one of: CARD, MOBILE_MONEY, BANK_TRANSFER")
}

func TestHandleValidationError_MalformedJSON(t *testing.T) {
	w := post(bindRouter(), "/pay", `{"rail":`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeInvalidJSON)
}
