package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParsePermission(t *testing.T) {
	tests := []struct {
		in     string
		module string
		action string
	}{
		{"work-orders:edit", "work-orders", "edit"},
		{"customers", "customers", "can_access"},
		{"invoices:", "invoices", "can_access"},
		{"platform-companies:view", "platform-companies", "view"},
	}

	for _, tt := range tests {
		p := ParsePermission(tt.in)
		assert.Equal(t, tt.module, p.Module, "module of %q", tt.in)
		assert.Equal(t, tt.action, p.Action, "action of %q", tt.in)
	}
}

func TestPermissionString(t *testing.T) {
	assert.Equal(t, "work-orders:edit", ParsePermission("work-orders:edit").String())
	assert.Equal(t, "customers:can_access", ParsePermission("customers").String())
}
