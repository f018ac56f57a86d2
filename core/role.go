package core

import "fmt"

// Role identifies the author category of a message: the human user or one of
// the six fixed debate personas.
type Role string

const (
	// RoleUser marks a human-authored message.
	RoleUser Role = "user"
	// RoleOptimist highlights realistic upside and opportunities.
	RoleOptimist Role = "optimist"
	// RolePessimist surfaces risks, blockers and failure modes.
	RolePessimist Role = "pessimist"
	// RolePlanner produces a phased execution plan.
	RolePlanner Role = "planner"
	// RoleCritic stress-tests the planner's proposal.
	RoleCritic Role = "critic"
	// RoleDeveloper proposes concrete engineering responses.
	RoleDeveloper Role = "developer"
	// RoleMentor summarizes and coaches next steps.
	RoleMentor Role = "mentor"
)

// AgentOrder is the fixed execution order of the debate personas. One
// pipeline run emits exactly one message per role, in this order.
var AgentOrder = []Role{
	RoleOptimist,
	RolePessimist,
	RolePlanner,
	RoleCritic,
	RoleDeveloper,
	RoleMentor,
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleOptimist, RolePessimist, RolePlanner, RoleCritic, RoleDeveloper, RoleMentor:
		return true
	}
	return false
}

// IsAgent reports whether r is a persona role (anything but the human user).
func (r Role) IsAgent() bool { return r != RoleUser && r.Valid() }

// String returns the wire representation of the role.
func (r Role) String() string { return string(r) }

// ParseRole converts a stored role tag back into a Role, rejecting unknown values.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("core: unknown role %q", s)
	}
	return r, nil
}
