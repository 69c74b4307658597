package auth

import "strings"

// Wildcard means "any authenticated identity"; no grant lookup happens.
const Wildcard = "*"

// DefaultAction applies when a permission string has no ":action" suffix.
const DefaultAction = "can_access"

// Permission is a parsed "<module-slug>:<action>" check.
type Permission struct {
	Module string
	Action string
}

// ParsePermission splits a permission string into module and action,
// defaulting the action to can_access.
func ParsePermission(s string) Permission {
	module, action, found := strings.Cut(s, ":")
	if !found || action == "" {
		action = DefaultAction
	}
	return Permission{Module: module, Action: action}
}

func (p Permission) String() string {
	return p.Module + ":" + p.Action
}
