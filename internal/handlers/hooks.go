package handlers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"scandium/pkg/lambda"
)

// HookFile is the file name the deploy tool addresses the example hooks by
const HookFile = "app"

// RegisterHooks registers the example application's invoke hooks
func RegisterHooks(registry *lambda.HookRegistry, state *AppState, logger logrus.FieldLogger) error {
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	return registry.Register(HookFile, "warm", func(ctx context.Context) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		now := time.Now()
		state.MarkWarm(now)
		logger.WithField("hook", HookFile+"#warm").Info("Execution context warmed")
		return nil
	})
}
