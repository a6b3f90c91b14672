// Package tools defines the capability contract and the registry of functions
// the assistant may ask the client to run.
//
// Includes:
//   - FunctionResult: the string value reported back as tool output, plus an error flag.
//   - ToolDefinition: name, description, JSON parameter schema, handler.
//   - NewFunction[T](): typed capability whose arguments are schema-validated and decoded into T.
//   - Registry: immutable name -> definition lookup.
//   - Ordering capabilities: transfer_to_agent, hangup_the_phone, place_order.
package tools
