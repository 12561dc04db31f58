package instrumentation

import (
	"go.uber.org/zap"

	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/hook"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/infrastructure/config"
	"github.com/mladenrtl/opentelemetry-auto-drupal/internal/infrastructure/monitoring"
)

type availability interface {
	Available() bool
}

// Register attaches every binding of inst to capability. Nothing is
// registered when the instrumentation is disabled or the capability is
// unavailable. Registration stops at the first failure, which is logged and
// returned; bindings attached before it stay in place.
func Register(capability hook.Capability, inst *Instrumentation, cfg config.TracingConfig) error {
	if cfg.IsInstrumentationDisabled(Name) {
		return nil
	}

	logger := inst.logger
	if capability == nil || !capable(capability) {
		logger.Warn("interception capability unavailable, instrumentation inactive",
			zap.String("instrumentation", Name),
		)
		return nil
	}

	bindings := inst.Bindings()
	for _, b := range bindings {
		if err := capability.Hook(b.Class, b.Method, b.Pre, b.Post); err != nil {
			logger.Error(err.Error(),
				zap.String("instrumentation", Name),
				zap.String("target", b.Key.String()),
			)
			inst.metrics.RecordRegistration(false)
			return err
		}
		inst.metrics.RecordRegistration(true)
	}

	logger.Info("instrumentation registered",
		zap.String("instrumentation", Name),
		zap.Int("bindings", len(bindings)),
	)
	return nil
}

func capable(c hook.Capability) bool {
	if a, ok := c.(availability); ok {
		return a.Available()
	}
	return true
}

// ErrorHandler returns a registry error handler that logs hook failures and
// counts them.
func ErrorHandler(logger *zap.Logger, metrics *monitoring.Metrics) hook.ErrorHandler {
	return func(key hook.Key, stage hook.Stage, err error) {
		logger.Warn("hook failed, call ran uninstrumented",
			zap.String("target", key.String()),
			zap.String("stage", string(stage)),
			zap.Error(err),
		)
		metrics.RecordHookError(key.String(), string(stage))
	}
}
