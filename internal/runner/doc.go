// Package runner drives one user turn against the assistant run API.
//
// Flow:
//
//	user(text) -> create run -> poll -> requires_action(tool calls)
//	           -> dispatch -> submit outputs -> poll -> ... -> completed(text)
//
// Invariants:
//   - every tool call in a batch gets exactly one output, keyed by its id and
//     submitted in the order received.
//   - at most one run is in flight per thread; continuation targets the run
//     that most recently entered requires_action.
package runner
