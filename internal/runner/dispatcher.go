package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/petasbytes/go-assistant/internal/metrics"
	"github.com/petasbytes/go-assistant/internal/telemetry"
	"github.com/petasbytes/go-assistant/tools"
)

// Dispatcher executes single tool calls against a registry. Capability
// failures, including panics and bad arguments, come back as error results.
type Dispatcher struct {
	registry *tools.Registry
	logger   zerolog.Logger
}

func NewDispatcher(registry *tools.Registry, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{registry: registry, logger: logger}
}

// Registered reports whether name can be dispatched.
func (d *Dispatcher) Registered(name string) bool {
	_, ok := d.registry.Lookup(name)
	return ok
}

// Execute runs the capability registered under name. The only error it
// returns is ErrUnregisteredFunction.
func (d *Dispatcher) Execute(ctx context.Context, name, rawArgs string) (tools.FunctionResult, error) {
	def, ok := d.registry.Lookup(name)
	if !ok {
		return tools.FunctionResult{}, fmt.Errorf("%w: %s", ErrUnregisteredFunction, name)
	}

	start := time.Now()
	res := d.invoke(ctx, def, rawArgs)
	elapsed := time.Since(start)

	fields := map[string]any{
		"tool_name":   name,
		"duration_ms": elapsed.Milliseconds(),
		"input_size":  len(rawArgs),
		"output_size": len(res.Value),
		"error":       nil,
	}
	if res.IsError {
		// The detailed text goes to the assistant, not to telemetry.
		fields["error"] = "tool error"
	}
	telemetry.Emit(ctx, "tool_exec", fields)
	metrics.RecordToolCall(name, res.IsError, elapsed)

	ev := d.logger.Debug()
	if res.IsError {
		ev = d.logger.Warn().Str("output", res.Value)
	}
	ev.Str("tool", name).Dur("elapsed", elapsed).Bool("is_error", res.IsError).Msg("tool executed")
	return res, nil
}

func (d *Dispatcher) invoke(ctx context.Context, def tools.ToolDefinition, rawArgs string) (res tools.FunctionResult) {
	defer func() {
		if r := recover(); r != nil {
			res = tools.Failure(caught(def.Name, "panic", fmt.Sprint(r)))
		}
	}()

	args, err := parseArguments(rawArgs)
	if err != nil {
		return tools.Failure(caught(def.Name, errorKind(err), err.Error()))
	}
	out, err := def.Function(ctx, args)
	if err != nil {
		return tools.Failure(caught(def.Name, errorKind(err), err.Error()))
	}
	return out
}

// parseArguments treats an empty or null payload as an empty object.
func parseArguments(raw string) (tools.Arguments, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || trimmed == "null" {
		return tools.Arguments{}, nil
	}
	var args tools.Arguments
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		return nil, err
	}
	if args == nil {
		return tools.Arguments{}, nil
	}
	return args, nil
}

func caught(name, kind, msg string) string {
	return fmt.Sprintf("Caught exception when executing function %s: '%s: %s'", name, kind, msg)
}

// errorKind names the outermost concrete error type, e.g. "tools.ArgumentError".
func errorKind(err error) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", err), "*")
}
