package main

import (
	"github.com/rentflow/backend/internal/domain/obligation"
	"github.com/rentflow/backend/internal/infrastructure/config"
)

// feePolicyFrom turns the reconciliation section into the policy the
// reconciler and sweeper apply
func feePolicyFrom(rc config.ReconciliationConfig) (obligation.FeePolicy, error) {
	return obligation.NewFeePolicy(rc.FeePolicy, rc.FlatFee, rc.FeePercentage, rc.Tolerance)
}
