package tool

import (
	"fmt"

	"github.com/flowkit/flowcore/flow"
)

// AsCapability wraps t as a flow.InlineFunc, ready to register in a Scope
// (flow.Scope.Register, or RegisterCapability to also attach a
// description). Input parameters come from ctx.Params when the node is a
// ParamCall (the natural way to pass a tool its arguments), falling back to
// ctx.Input when it is a plain mapping — this lets the same tool be invoked
// either as {toolName: {args...}} or after a prior step already produced
// the argument mapping as its result. Anything else yields an empty input
// map. The tool's output mapping becomes the capability's raw result,
// which the Output Normalizer treats as a pass-through.
func AsCapability(t Tool) flow.InlineFunc {
	return func(ctx *flow.Context) (flow.Value, error) {
		input := toInput(ctx.Params)
		if input == nil {
			input = toInput(ctx.Input)
		}

		out, err := t.Call(ctx.GoContext(), input)
		if err != nil {
			return nil, fmt.Errorf("flow/tool: %s: %w", t.Name(), err)
		}

		result := make(map[string]flow.Value, len(out))
		for k, v := range out {
			result[k] = v
		}
		return result, nil
	}
}

func toInput(v flow.Value) map[string]interface{} {
	m, ok := flow.AsMap(v)
	if !ok {
		return nil
	}
	return m
}
