package executor

import (
	"context"
	"fmt"
	"time"

	"github.com/sentinelops/autopilot/expr"
	"github.com/sentinelops/autopilot/logger"
	"go.uber.org/zap"
)

// NewDefaultRegistry wires the built-in action handlers. Deployments
// replace or extend these with handlers that touch real infrastructure.
func NewDefaultRegistry() *ActionRegistry {
	r := NewActionRegistry()
	r.Register("noop", noopAction)
	r.Register("restart_service", restartServiceAction)
	r.Register("clear_cache", clearCacheAction)
	r.Register("scale_resource", scaleResourceAction)
	r.Register("send_notification", sendNotificationAction)
	r.Register("delay", delayAction)
	r.Register("javascript", javascriptAction)
	return r
}

func noopAction(ctx context.Context, req ActionRequest) (map[string]any, error) {
	return map[string]any{"target": req.Target}, nil
}

func restartServiceAction(ctx context.Context, req ActionRequest) (map[string]any, error) {
	if len(req.Target) == 0 {
		return nil, fmt.Errorf("restart_service requires a target service")
	}
	logger.Info("restarting service", zap.String("service", req.Target))
	return map[string]any{"service": req.Target, "restarted": true}, nil
}

func clearCacheAction(ctx context.Context, req ActionRequest) (map[string]any, error) {
	logger.Info("clearing cache", zap.String("cache", req.Target))
	return map[string]any{"cache": req.Target, "cleared": true}, nil
}

func scaleResourceAction(ctx context.Context, req ActionRequest) (map[string]any, error) {
	if len(req.Target) == 0 {
		return nil, fmt.Errorf("scale_resource requires a target resource")
	}
	direction, _ := req.Parameters["direction"].(string)
	logger.Info("scaling resource", zap.String("resource", req.Target), zap.String("direction", direction))
	return map[string]any{"resource": req.Target, "direction": direction, "scaled": true}, nil
}

func sendNotificationAction(ctx context.Context, req ActionRequest) (map[string]any, error) {
	channel, _ := req.Parameters["channel"].(string)
	message, _ := req.Parameters["message"].(string)
	logger.Info("sending notification", zap.String("channel", channel), zap.String("message", message))
	return map[string]any{"channel": channel, "sent": true}, nil
}

func delayAction(ctx context.Context, req ActionRequest) (map[string]any, error) {
	millis, ok := toInt64(req.Parameters["delayMillis"])
	if !ok {
		return nil, fmt.Errorf("delay requires a numeric delayMillis parameter")
	}
	select {
	case <-time.After(time.Duration(millis) * time.Millisecond):
		return map[string]any{"delayedMillis": millis}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func javascriptAction(ctx context.Context, req ActionRequest) (map[string]any, error) {
	expression, _ := req.Parameters["expression"].(string)
	data, _ := req.Parameters["data"].(map[string]any)
	if data == nil {
		data = map[string]any{}
	}
	return expr.EvalObject(expression, data)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		return int64(n), true
	}
	return 0, false
}
