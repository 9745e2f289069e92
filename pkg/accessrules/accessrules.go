// Package accessrules implements the role-based access control described
// in spec §6: a table of named roles, each pairing an access rule (who may
// call methods guarded by this role) with a mutability rule (who may
// change the access rule later), combinators for building rules out of
// badge/resource requirements, and a cycle check over the role dependency
// graph formed when one role's rule requires another role by name.
package accessrules

import (
	"sort"

	"github.com/ledgerkernel/txkernel/pkg/kernelerrors"
)

// RuleKind tags a Rule's combinator.
type RuleKind uint8

const (
	RuleAllowAll RuleKind = iota
	RuleDenyAll
	RuleRequireBadge   // requires a specific resource/badge address
	RuleRequireRole    // requires another role's access rule to be satisfied
	RuleAnyOf
	RuleAllOf
)

// Rule is a requirement expression. Composite kinds (AnyOf/AllOf) combine
// Children; RuleRequireBadge/RuleRequireRole carry their target in Target.
type Rule struct {
	Kind     RuleKind
	Target   string
	Children []Rule
}

func AllowAll() Rule                    { return Rule{Kind: RuleAllowAll} }
func DenyAll() Rule                     { return Rule{Kind: RuleDenyAll} }
func RequireBadge(resource string) Rule { return Rule{Kind: RuleRequireBadge, Target: resource} }
func RequireRole(role string) Rule      { return Rule{Kind: RuleRequireRole, Target: role} }
func AnyOf(rules ...Rule) Rule          { return Rule{Kind: RuleAnyOf, Children: rules} }
func AllOf(rules ...Rule) Rule          { return Rule{Kind: RuleAllOf, Children: rules} }

// Role pairs an access rule with the rule governing who may change it.
type Role struct {
	AccessRule     Rule
	MutabilityRule Rule
}

// Table is the role table attached to an object: role name to (access,
// mutability) rule pair.
type Table struct {
	roles map[string]Role
	order []string // insertion order, for deterministic iteration/cycle messages
}

func NewTable() *Table {
	return &Table{roles: make(map[string]Role)}
}

// DefineRole adds role to the table, rejecting it if doing so would
// introduce a cycle in the role dependency graph (a RuleRequireRole chain
// that eventually requires role itself).
func (t *Table) DefineRole(name string, access, mutability Rule) error {
	candidate := Role{AccessRule: access, MutabilityRule: mutability}

	trial := t.cloneRoles()
	trial[name] = candidate
	if cycle := findCycle(trial); cycle != nil {
		return &kernelerrors.CycleCheckError{Cycle: cycle}
	}

	if _, exists := t.roles[name]; !exists {
		t.order = append(t.order, name)
	}
	t.roles[name] = candidate
	return nil
}

// Role returns the named role and whether it is defined.
func (t *Table) Role(name string) (Role, bool) {
	r, ok := t.roles[name]
	return r, ok
}

// SetAccessRule replaces role's access rule, enforcing its mutability rule
// against presentedBadges and refusing to touch a role whose mutability
// rule is DenyAll (a "locked" role, per spec §6).
func (t *Table) SetAccessRule(name string, newRule Rule, presentedBadges []string) error {
	role, ok := t.roles[name]
	if !ok {
		return kernelerrors.NewKernelError("set_access_rule: unknown role " + name)
	}
	if role.MutabilityRule.Kind == RuleDenyAll {
		return &kernelerrors.LockedRuleError{Role: name}
	}
	if !t.Evaluate(role.MutabilityRule, presentedBadges) {
		return &kernelerrors.AssertAccessRuleFailedError{Rule: "mutability rule for role " + name}
	}

	trial := t.cloneRoles()
	trial[name] = Role{AccessRule: newRule, MutabilityRule: role.MutabilityRule}
	if cycle := findCycle(trial); cycle != nil {
		return &kernelerrors.CycleCheckError{Cycle: cycle}
	}

	role.AccessRule = newRule
	t.roles[name] = role
	return nil
}

// Evaluate reports whether rule is satisfied given the badges/resources
// presented by the calling auth zone. A RuleRequireRole target is resolved
// by recursively evaluating that role's own access rule.
func (t *Table) Evaluate(rule Rule, presentedBadges []string) bool {
	return t.evaluate(rule, presentedBadges, make(map[string]bool))
}

func (t *Table) evaluate(rule Rule, presented []string, visiting map[string]bool) bool {
	switch rule.Kind {
	case RuleAllowAll:
		return true
	case RuleDenyAll:
		return false
	case RuleRequireBadge:
		for _, b := range presented {
			if b == rule.Target {
				return true
			}
		}
		return false
	case RuleRequireRole:
		if visiting[rule.Target] {
			return false // cycle guard; DefineRole should already have refused this
		}
		other, ok := t.roles[rule.Target]
		if !ok {
			return false
		}
		visiting[rule.Target] = true
		return t.evaluate(other.AccessRule, presented, visiting)
	case RuleAnyOf:
		for _, c := range rule.Children {
			if t.evaluate(c, presented, visiting) {
				return true
			}
		}
		return false
	case RuleAllOf:
		for _, c := range rule.Children {
			if !t.evaluate(c, presented, visiting) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (t *Table) cloneRoles() map[string]Role {
	clone := make(map[string]Role, len(t.roles)+1)
	for k, v := range t.roles {
		clone[k] = v
	}
	return clone
}

// findCycle runs a DFS over the RuleRequireRole edges of roles, returning
// the cycle (as an ordered list of role names) if one exists, or nil.
func findCycle(roles map[string]Role) []string {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(roles))

	names := make([]string, 0, len(roles))
	for name := range roles {
		names = append(names, name)
	}
	sort.Strings(names) // deterministic traversal order

	var path []string
	var dfs func(name string) []string
	dfs = func(name string) []string {
		color[name] = gray
		path = append(path, name)

		role, ok := roles[name]
		if ok {
			for _, target := range roleTargets(role) {
				if _, defined := roles[target]; !defined {
					continue
				}
				switch color[target] {
				case white:
					if cycle := dfs(target); cycle != nil {
						return cycle
					}
				case gray:
					return append(append([]string{}, path...), target)
				}
			}
		}

		path = path[:len(path)-1]
		color[name] = black
		return nil
	}

	for _, name := range names {
		if color[name] == white {
			if cycle := dfs(name); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// roleTargets collects every RuleRequireRole target reachable from a
// role's access and mutability rules.
func roleTargets(role Role) []string {
	var targets []string
	var walk func(r Rule)
	walk = func(r Rule) {
		if r.Kind == RuleRequireRole {
			targets = append(targets, r.Target)
		}
		for _, c := range r.Children {
			walk(c)
		}
	}
	walk(role.AccessRule)
	walk(role.MutabilityRule)
	return targets
}
