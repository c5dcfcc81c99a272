package flow

import "context"

// maxLoopIterations is the hard iteration cap of spec.md §4.5 and §5: a
// loop that has not produced exit/exit_forced by this many iterations is
// forced to exit.
const maxLoopIterations = 100

// evalLoop implements the Loop Orchestrator (spec.md §4.5) for a Node whose
// Children is exactly [controller, action0, ..., actionN].
func (inst *Instance) evalLoop(goCtx context.Context, n Node, idx int) ([]Step, Output, error) {
	controller := n.Children[0]
	actions := n.Children[1:]

	var subSteps []Step
	var lastOutput Output
	forced := false

	for i := 0; i < maxLoopIterations; i++ {
		inst.metrics.recordLoopIteration(inst.instanceID)
		ctrlSteps, ctrlOut, err := inst.runChild(goCtx, []Node{controller}, idx)
		if err != nil {
			return nil, Output{}, err
		}
		if len(ctrlSteps) == 0 {
			// Loop Orchestrator synthesizes this when the child produced no
			// steps (spec.md §4.5 step 1, §7's loop-controller-empty row).
			ctrlOut = Output{Edges: []string{"exit"}}
		}
		subSteps = append(subSteps, Step{
			Node:     DeepCopy(controller.Raw),
			Output:   ctrlOut,
			SubSteps: ctrlSteps,
		})
		lastOutput = ctrlOut

		if containsString(ctrlOut.Edges, "exit") || containsString(ctrlOut.Edges, "exit_forced") {
			break
		}

		if len(actions) > 0 {
			actSteps, actOut, err := inst.runChild(goCtx, actions, idx)
			if err != nil {
				return nil, Output{}, err
			}
			subSteps = append(subSteps, Step{
				Node:     rawOf(actions),
				Output:   actOut,
				SubSteps: actSteps,
			})
			lastOutput = actOut
		}

		if i == maxLoopIterations-1 {
			forced = true
		}
	}

	if forced {
		lastOutput = Output{Edges: []string{"exit_forced"}}
	}

	return subSteps, lastOutput, nil
}

// rawOf renders a slice of Node back into a Value sequence of their raw
// definitions, for recording a composite sub-step whose "node" is a node
// list rather than a single NodeDefinition (e.g. a loop's actions).
func rawOf(nodes []Node) Value {
	out := make([]Value, len(nodes))
	for i, n := range nodes {
		out[i] = DeepCopy(n.Raw)
	}
	return out
}
