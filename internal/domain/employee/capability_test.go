package employee

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveCapabilities(t *testing.T) {
	tests := []struct {
		position string
		role     Role
		want     []Capability
	}{
		{"Head of Department", RoleEmployee, []Capability{CapabilityDepartmentHead}},
		{"  HOD ", RoleEmployee, []Capability{CapabilityDepartmentHead}},
		{"HR Manager", RoleEmployee, []Capability{CapabilityHRManager}},
		{"head of  HR", RoleEmployee, []Capability{CapabilityHRManager}},
		{"HR HOD", RoleEmployee, []Capability{CapabilityHRManager}},
		{"Head Of Finance", RoleEmployee, []Capability{CapabilityFinanceDirector}},
		{"CFO", RoleAdmin, []Capability{CapabilityFinanceDirector}},
		{"Software Engineer", RoleSuperAdmin, []Capability{CapabilitySuperAdmin}},
		{"Software Engineer", RoleEmployee, nil},
		// Substrings are not enough.
		{"Assistant to the Head of Finance", RoleEmployee, nil},
	}
	for _, tt := range tests {
		t.Run(tt.position, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveCapabilities(tt.position, tt.role))
		})
	}
}

func TestHasCapability(t *testing.T) {
	e := Employee{Role: RoleEmployee, Capabilities: []Capability{CapabilityHRManager}}
	assert.True(t, e.HasCapability(CapabilityHRManager))
	assert.False(t, e.HasCapability(CapabilityFinanceDirector))
	assert.False(t, e.HasCapability(CapabilitySuperAdmin))

	root := Employee{Role: RoleSuperAdmin}
	assert.True(t, root.HasCapability(CapabilitySuperAdmin))
}

func TestCapabilityIsValid(t *testing.T) {
	for _, c := range AllCapabilities() {
		assert.True(t, c.IsValid())
	}
	assert.False(t, Capability("HR_HEAD").IsValid())
}

func TestHasBankDetails(t *testing.T) {
	e := Employee{BankName: "First Bank", BankAccountName: "Ada Obi", BankAccountNumber: "0123456789"}
	assert.True(t, e.HasBankDetails())
	e.BankAccountNumber = " "
	assert.False(t, e.HasBankDetails())
}
