package config

import (
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// WatchReconciliation re-reads the reconciliation section whenever the config
// file is written and hands valid results to apply. Invalid edits are logged
// and ignored so the running policy stays in force.
func WatchReconciliation(v *viper.Viper, logger *zap.Logger, apply func(ReconciliationConfig)) {
	if v == nil || v.ConfigFileUsed() == "" {
		logger.Debug("No config file in use, fee policy hot reload disabled")
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		recon, err := reconciliationFrom(v)
		if err == nil {
			applyReconciliationDefaults(&recon)
			err = recon.Validate()
		}
		if err != nil {
			logger.Warn("Ignoring invalid reconciliation config change",
				zap.String("file", e.Name),
				zap.Error(err))
			return
		}
		logger.Info("Reconciliation config reloaded",
			zap.String("file", e.Name),
			zap.String("fee_policy", recon.FeePolicy),
			zap.String("flat_fee", recon.FlatFee.String()),
			zap.String("fee_percentage", recon.FeePercentage.String()))
		apply(recon)
	})
	v.WatchConfig()
}
