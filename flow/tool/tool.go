// Package tool provides Tool capabilities: example scope capabilities for
// invoking external systems (HTTP endpoints, and in tests, a configurable
// mock) from a Node. Like flow/model, this package is entirely outside
// FlowCore's core evaluation path — AsCapability is what turns a Tool into a
// flow.InlineFunc a host can register in a Scope.
package tool

import "context"

// Tool is an invokable external action: a name (matching the CallableId a
// host registers it under) plus a Call that maps structured input to
// structured output.
type Tool interface {
	Name() string
	Call(ctx context.Context, input map[string]interface{}) (map[string]interface{}, error)
}
