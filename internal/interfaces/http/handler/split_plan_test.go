package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	splitplanapp "github.com/rentflow/backend/internal/application/splitplan"
	"github.com/rentflow/backend/internal/domain/shared"
	"github.com/rentflow/backend/internal/domain/splitplan"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newSplitPlanRouter(svc *MockSplitPlanService) *gin.Engine {
	h := NewSplitPlanHandler(svc)
	router := gin.New()
	router.POST("/split-plans", h.Create)
	router.GET("/split-plans/:id", h.Get)
	router.POST("/split-plans/:id/cancel", h.Cancel)
	router.GET("/contracts/:id/split-plans", h.ListByContract)
	return router
}

func samplePlan(t *testing.T, contractID uuid.UUID) *splitplan.SplitPlan {
	t.Helper()
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	plan, err := splitplan.NewSplitPlan(splitplan.Terms{
		ContractID:        contractID,
		TotalAmount:       decimal.RequireFromString("1000.01"),
		DepositPercentage: 30,
		Currency:          "USD",
		DepositDueDate:    now.AddDate(0, 0, 7),
		BalanceDueDate:    now.AddDate(0, 1, 0),
	}, now)
	require.NoError(t, err)
	return plan
}

func TestSplitPlanHandler_Create(t *testing.T) {
	svc := new(MockSplitPlanService)
	contractID := uuid.New()
	plan := samplePlan(t, contractID)
	svc.On("Create", mock.Anything, mock.MatchedBy(func(cmd splitplanapp.CreateCommand) bool {
		return cmd.ContractID == contractID &&
			cmd.TotalAmount.Equal(decimal.RequireFromString("1000.01")) &&
			cmd.DepositPercentage == 30
	})).Return(plan, nil)

	w := perform(newSplitPlanRouter(svc), http.MethodPost, "/split-plans", map[string]any{
		"contract_id":        contractID.String(),
		"total_amount":       "1000.01",
		"deposit_percentage": 30,
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	data := dataMap(t, w)
	assert.Equal(t, "300", data["deposit_amount"])
	assert.Equal(t, "700.01", data["balance_amount"])
	deposit := data["deposit"].(map[string]any)
	assert.Equal(t, "SPLIT_DEPOSIT", deposit["kind"])
}

func TestSplitPlanHandler_CreateTrimsTotal(t *testing.T) {
	svc := new(MockSplitPlanService)
	contractID := uuid.New()
	svc.On("Create", mock.Anything, mock.MatchedBy(func(cmd splitplanapp.CreateCommand) bool {
		return cmd.TotalAmount.Equal(decimal.RequireFromString("1000.01"))
	})).Return(samplePlan(t, contractID), nil)

	w := perform(newSplitPlanRouter(svc), http.MethodPost, "/split-plans", map[string]any{
		"contract_id":        contractID.String(),
		"total_amount":       " 1000.01 ",
		"deposit_percentage": 30,
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	svc.AssertExpectations(t)
}

func TestSplitPlanHandler_CreateValidation(t *testing.T) {
	contract := uuid.NewString()
	tests := []struct {
		name string
		body map[string]any
	}{
		{"zero percent", map[string]any{"contract_id": contract, "total_amount": "100", "deposit_percentage": 0}},
		{"hundred percent", map[string]any{"contract_id": contract, "total_amount": "100", "deposit_percentage": 100}},
		{"negative total", map[string]any{"contract_id": contract, "total_amount": "-100", "deposit_percentage": 30}},
		{"sub-cent total", map[string]any{"contract_id": contract, "total_amount": "100.005", "deposit_percentage": 30}},
		{"bad contract", map[string]any{"contract_id": "x", "total_amount": "100", "deposit_percentage": 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockSplitPlanService)
			w := perform(newSplitPlanRouter(svc), http.MethodPost, "/split-plans", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestSplitPlanHandler_CreateForInactiveContract(t *testing.T) {
	svc := new(MockSplitPlanService)
	svc.On("Create", mock.Anything, mock.Anything).
		Return(nil, shared.NewValidationError("contract is not active"))

	w := perform(newSplitPlanRouter(svc), http.MethodPost, "/split-plans", map[string]any{
		"contract_id": uuid.NewString(), "total_amount": "100", "deposit_percentage": 50,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSplitPlanHandler_GetAndList(t *testing.T) {
	svc := new(MockSplitPlanService)
	contractID := uuid.New()
	plan := samplePlan(t, contractID)
	svc.On("Get", mock.Anything, plan.ID).Return(plan, nil)
	svc.On("ListByContract", mock.Anything, contractID).Return([]*splitplan.SplitPlan{plan}, nil)
	router := newSplitPlanRouter(svc)

	w := perform(router, http.MethodGet, "/split-plans/"+plan.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, plan.ID.String(), dataMap(t, w)["id"])

	w = perform(router, http.MethodGet, "/contracts/"+contractID.String()+"/split-plans", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w).Data, 1)
}

func TestSplitPlanHandler_Cancel(t *testing.T) {
	svc := new(MockSplitPlanService)
	plan := samplePlan(t, uuid.New())
	svc.On("Cancel", mock.Anything, plan.ID, "deal fell through").Return(plan, nil)

	w := perform(newSplitPlanRouter(svc), http.MethodPost, "/split-plans/"+plan.ID.String()+"/cancel",
		map[string]string{"reason": "deal fell through"})

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
