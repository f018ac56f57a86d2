package agent

import (
	"fmt"

	"github.com/Memomer/brainstormer/core"
)

// Outputs accumulates each persona's trimmed completion text keyed by role.
// Prompt builders receive the accumulator holding every prior persona's
// output for the current run.
type Outputs map[core.Role]string

// Persona couples a role with its fixed instruction (system prompt) and a
// pure function building the user prompt from the original input text and
// the accumulated prior outputs.
type Persona struct {
	Role        core.Role
	Instruction string
	BuildPrompt func(idea string, outputs Outputs) string
}

// DefaultPersonas returns the six debate personas in execution order:
// optimist, pessimist, planner, critic, developer, mentor.
//
// The information flow is deliberate: the optimist sees only the idea, the
// pessimist the idea plus the optimist's output, the planner the idea plus
// both viewpoints, and each remaining persona only its predecessor's output.
func DefaultPersonas() []Persona {
	return []Persona{
		{
			Role:        core.RoleOptimist,
			Instruction: "You are Optimist: highlight realistic upside and opportunities.",
			BuildPrompt: func(idea string, _ Outputs) string {
				return fmt.Sprintf("Idea: %s\nList optimistic yet grounded strengths.", idea)
			},
		},
		{
			Role:        core.RolePessimist,
			Instruction: "You are Pessimist: surface risks, blockers, and failure modes.",
			BuildPrompt: func(idea string, o Outputs) string {
				return fmt.Sprintf("Idea: %s\nOptimist says:\n%s\nList risks.", idea, o[core.RoleOptimist])
			},
		},
		{
			Role:        core.RolePlanner,
			Instruction: "Planner: produce an execution plan informed by both viewpoints.",
			BuildPrompt: func(idea string, o Outputs) string {
				return fmt.Sprintf(
					"Idea: %s\nOptimist:\n%s\nPessimist:\n%s\nProvide a phased plan with mitigations.",
					idea, o[core.RoleOptimist], o[core.RolePessimist],
				)
			},
		},
		{
			Role:        core.RoleCritic,
			Instruction: "Critic: stress-test the planner's proposal.",
			BuildPrompt: func(_ string, o Outputs) string {
				return fmt.Sprintf("Planner output:\n%s\nProvide critical analysis.", o[core.RolePlanner])
			},
		},
		{
			Role:        core.RoleDeveloper,
			Instruction: "Developer: respond with concrete technical adjustments.",
			BuildPrompt: func(_ string, o Outputs) string {
				return fmt.Sprintf("Critic notes:\n%s\nOutline engineering responses.", o[core.RoleCritic])
			},
		},
		{
			Role:        core.RoleMentor,
			Instruction: "Mentor: summarize and offer coaching for next steps.",
			BuildPrompt: func(_ string, o Outputs) string {
				return fmt.Sprintf("Developer output:\n%s\nProvide mentorship guidance.", o[core.RoleDeveloper])
			},
		},
	}
}
