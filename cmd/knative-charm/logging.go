package main

import (
	"context"
	"time"

	"github.com/kompox/knative-charms/internal/logging"
)

// withCmdRunLogger implements the span pattern for CLI command logging.
//
//	ctx, cleanup := withCmdRunLogger(ctx, "hook", "controller/0")
//	defer func() { cleanup(err) }()
//
// Log message format:
// - Start:   CMD:<operation>/S (with resourceId in logger attributes)
// - Success: CMD:<operation>/EOK (with err, elapsed)
// - Failure: CMD:<operation>/EFAIL (with err, elapsed)
//
// All lines use INFO level. The runId is inherited from the context logger.
func withCmdRunLogger(ctx context.Context, operation, resourceID string) (context.Context, func(err error)) {
	startAt := time.Now()

	logger := logging.FromContext(ctx).With("resourceId", resourceID)
	ctx = logging.WithLogger(ctx, logger)

	logger.Info(ctx, "CMD:"+operation+"/S")

	cleanup := func(err error) {
		elapsed := time.Since(startAt).Seconds()
		msg := "CMD:" + operation + "/EOK"
		errStr := ""
		if err != nil {
			msg = "CMD:" + operation + "/EFAIL"
			errStr = err.Error()
			if len(errStr) > 32 {
				errStr = errStr[:32] + "..."
			}
		}
		logger.Info(ctx, msg, "err", errStr, "elapsed", elapsed)
	}
	return ctx, cleanup
}
