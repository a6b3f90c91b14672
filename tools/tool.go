package tools

import (
	"context"
	"encoding/json"
	"fmt"
)

// FunctionResult is what a capability hands back. Errors are reported as text
// because the run protocol only accepts a string tool output.
type FunctionResult struct {
	Value   string
	IsError bool
}

// Success wraps a successful tool output.
func Success(value string) FunctionResult { return FunctionResult{Value: value} }

// Failure wraps an error tool output.
func Failure(value string) FunctionResult { return FunctionResult{Value: value, IsError: true} }

// Arguments is the parsed JSON object of a tool call.
type Arguments map[string]any

// Function executes one capability against parsed arguments.
type Function func(ctx context.Context, args Arguments) (FunctionResult, error)

type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
	Function    Function
}

// NewFunction builds a typed capability. Arguments are validated against the
// schema generated from T and decoded into T before fn runs; a validation or
// decode failure is returned as an error. It panics if the generated schema
// does not compile.
func NewFunction[T any](name, description string, fn func(ctx context.Context, in T) (FunctionResult, error)) ToolDefinition {
	schema := GenerateSchema[T]()
	compiled, err := compileSchema(name, schema)
	if err != nil {
		panic(fmt.Sprintf("tools: compile schema for %s: %v", name, err))
	}
	return ToolDefinition{
		Name:        name,
		Description: description,
		InputSchema: schema,
		Function: func(ctx context.Context, args Arguments) (FunctionResult, error) {
			if args == nil {
				args = Arguments{}
			}
			if err := compiled.Validate(map[string]any(args)); err != nil {
				return FunctionResult{}, &ArgumentError{Tool: name, Err: err}
			}
			b, err := json.Marshal(args)
			if err != nil {
				return FunctionResult{}, &ArgumentError{Tool: name, Err: err}
			}
			var in T
			if err := json.Unmarshal(b, &in); err != nil {
				return FunctionResult{}, &ArgumentError{Tool: name, Err: err}
			}
			return fn(ctx, in)
		},
	}
}

// ArgumentError reports arguments that do not match a capability's schema.
type ArgumentError struct {
	Tool string
	Err  error
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %v", e.Tool, e.Err)
}

func (e *ArgumentError) Unwrap() error { return e.Err }
