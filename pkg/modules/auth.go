package modules

import (
	"github.com/ledgerkernel/txkernel/pkg/accessrules"
	"github.com/ledgerkernel/txkernel/pkg/kernelerrors"
)

// AuthModule is the Auth system module (spec §5): it carries the auth
// zone, a stack of badge sets pushed once per call frame, and checks a
// role's access rule against the badges visible across the whole stack
// (an inner frame's badges do not disappear just because a deeper frame
// was pushed on top of it, matching the original's auth zone chain).
type AuthModule struct {
	table     *accessrules.Table
	authZones [][]string

	// methodRoles maps "blueprintName::ident" to the role name guarding
	// that method, the method auth template spec §6 describes. A method
	// with no entry here requires no role (AllowAll by default).
	methodRoles map[string]string
}

func NewAuthModule(table *accessrules.Table) *AuthModule {
	return &AuthModule{table: table, methodRoles: make(map[string]string)}
}

// RequireRoleForMethod registers that blueprintName's ident method may
// only be invoked while the named role's access rule is satisfied by the
// visible auth zone. Call this once per access-controlled method when a
// component is set up, mirroring spec §6's per-blueprint method auth
// template.
func (m *AuthModule) RequireRoleForMethod(blueprintName, ident, roleName string) {
	m.methodRoles[methodAuthKey(blueprintName, ident)] = roleName
}

// CheckMethodAuth rejects a method invocation before its frame is pushed
// if the method was registered against a role whose access rule the
// currently visible auth zone does not satisfy (spec §4.5.3: Auth
// computes the callee's auth requirement and checks it in
// before_push_frame, ahead of the push itself).
func (m *AuthModule) CheckMethodAuth(blueprintName, ident string) error {
	roleName, ok := m.methodRoles[methodAuthKey(blueprintName, ident)]
	if !ok {
		return nil
	}
	return m.CheckRole(roleName)
}

func methodAuthKey(blueprintName, ident string) string {
	return blueprintName + "::" + ident
}

// PushAuthZone is called when a new call frame starts; badges is the set
// of proofs presented by the caller for this invocation.
func (m *AuthModule) PushAuthZone(badges []string) {
	m.authZones = append(m.authZones, append([]string(nil), badges...))
}

// PopAuthZone is called when the frame that pushed its zone returns.
func (m *AuthModule) PopAuthZone() {
	if len(m.authZones) == 0 {
		return
	}
	m.authZones = m.authZones[:len(m.authZones)-1]
}

func (m *AuthModule) visibleBadges() []string {
	var all []string
	for _, zone := range m.authZones {
		all = append(all, zone...)
	}
	return all
}

// CheckRole asserts that the named role's access rule is satisfied by the
// badges visible across the entire auth zone stack, returning AuthError
// if not.
func (m *AuthModule) CheckRole(roleName string) error {
	role, ok := m.table.Role(roleName)
	if !ok {
		return &kernelerrors.AuthError{Reason: "unknown role " + roleName}
	}
	if !m.table.Evaluate(role.AccessRule, m.visibleBadges()) {
		return &kernelerrors.AuthError{Reason: "access rule of role " + roleName + " not satisfied"}
	}
	return nil
}

// CheckRule asserts an ad-hoc rule directly, without going through a
// named role (spec §6's method-level "this method additionally requires
// badge X" case).
func (m *AuthModule) CheckRule(rule accessrules.Rule) error {
	if !m.table.Evaluate(rule, m.visibleBadges()) {
		return &kernelerrors.AssertAccessRuleFailedError{Rule: "ad-hoc rule"}
	}
	return nil
}
