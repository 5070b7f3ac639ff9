package employee

import (
	"strings"
	"time"
)

type Employee struct {
	ID                string
	UserID            *string
	DepartmentID      *string
	EmployeeCode      string
	FullName          string
	Email             string
	Position          string
	Role              Role
	GradeLevel        *string
	Capabilities      []Capability
	BankName          string
	BankAccountName   string
	BankAccountNumber string
	EmploymentStatus  EmploymentStatus
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Role string

const (
	RoleSuperAdmin Role = "SUPER_ADMIN"
	RoleAdmin      Role = "ADMIN"
	RoleEmployee   Role = "EMPLOYEE"
)

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

// InDepartment reports whether the employee belongs to departmentID.
func (e Employee) InDepartment(departmentID string) bool {
	return e.DepartmentID != nil && *e.DepartmentID == departmentID
}

// IsSuperAdmin reports whether the employee acts with company-wide scope.
func (e Employee) IsSuperAdmin() bool {
	return e.Role == RoleSuperAdmin
}

// HasCapability is a pure lookup over the capabilities assigned to the employee.
// Role SUPER_ADMIN always carries CapabilitySuperAdmin.
func (e Employee) HasCapability(c Capability) bool {
	if c == CapabilitySuperAdmin && e.IsSuperAdmin() {
		return true
	}
	for _, held := range e.Capabilities {
		if held == c {
			return true
		}
	}
	return false
}

// HasBankDetails reports whether all fields needed for a transfer are present.
func (e Employee) HasBankDetails() bool {
	return strings.TrimSpace(e.BankName) != "" &&
		strings.TrimSpace(e.BankAccountName) != "" &&
		strings.TrimSpace(e.BankAccountNumber) != ""
}
