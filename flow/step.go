package flow

// Step records the result of evaluating a single NodeDefinition (spec.md
// §3). It is the unit the audit trail is built from and is what a
// flowManagerStep event carries as stepData.
type Step struct {
	// Node is the original NodeDefinition, deep-copied at recording time.
	Node Value

	// Output is the canonical {edges, results} produced by the Node
	// Evaluator (via the Output Normalizer).
	Output Output

	// SubSteps holds the child Steps produced by a composite node (loop,
	// subflow, branch). Nil for a non-composite node.
	SubSteps []Step
}

// deepCopyStep returns a Step whose Node, Output.Results, and SubSteps are
// independent deep copies, per the deep-copy policy of Design Note §9.
func deepCopyStep(s Step) Step {
	out := Step{
		Node: DeepCopy(s.Node),
		Output: Output{
			Edges:        append([]string(nil), s.Output.Edges...),
			ErrorDetails: s.Output.ErrorDetails,
		},
	}
	if s.Output.Results != nil {
		out.Output.Results = make([]Value, len(s.Output.Results))
		for i, r := range s.Output.Results {
			out.Output.Results[i] = DeepCopy(r)
		}
	}
	if s.SubSteps != nil {
		out.SubSteps = make([]Step, len(s.SubSteps))
		for i, sub := range s.SubSteps {
			out.SubSteps[i] = deepCopyStep(sub)
		}
	}
	return out
}

func deepCopySteps(steps []Step) []Step {
	out := make([]Step, len(steps))
	for i, s := range steps {
		out[i] = deepCopyStep(s)
	}
	return out
}
