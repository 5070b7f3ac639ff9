package employee

import (
	"strings"

	"golang.org/x/text/cases"
)

// Capability is an approval right held by a user as data.
type Capability string

const (
	CapabilityDepartmentHead  Capability = "DEPARTMENT_HEAD"
	CapabilityHRManager       Capability = "HR_MANAGER"
	CapabilityFinanceDirector Capability = "FINANCE_DIRECTOR"
	CapabilitySuperAdmin      Capability = "SUPER_ADMIN"
)

// AllCapabilities returns every capability in approval order.
func AllCapabilities() []Capability {
	return []Capability{
		CapabilityDepartmentHead,
		CapabilityHRManager,
		CapabilityFinanceDirector,
		CapabilitySuperAdmin,
	}
}

func (c Capability) IsValid() bool {
	for _, known := range AllCapabilities() {
		if c == known {
			return true
		}
	}
	return false
}

// positionTitles is the finite list of job titles recognised for each capability.
// It is only consulted for rows that have no capabilities stored yet.
var positionTitles = map[Capability][]string{
	CapabilityDepartmentHead: {
		"head of department",
		"department head",
		"hod",
		"head of unit",
	},
	CapabilityHRManager: {
		"hr manager",
		"head of hr",
		"hr hod",
		"head of human resources",
		"human resources manager",
	},
	CapabilityFinanceDirector: {
		"head of finance",
		"finance director",
		"director of finance",
		"chief financial officer",
		"cfo",
	},
}

var titleFolder = cases.Fold()

// NormalizeTitle case-folds a position title and collapses inner whitespace.
func NormalizeTitle(position string) string {
	return strings.Join(strings.Fields(titleFolder.String(position)), " ")
}

// DeriveCapabilities maps a legacy position title and role to capabilities.
// Matching is exact against the enumerated titles, never a substring search.
func DeriveCapabilities(position string, role Role) []Capability {
	title := NormalizeTitle(position)

	var derived []Capability
	for _, c := range AllCapabilities() {
		for _, known := range positionTitles[c] {
			if title == known {
				derived = append(derived, c)
				break
			}
		}
	}
	if role == RoleSuperAdmin {
		derived = append(derived, CapabilitySuperAdmin)
	}
	return derived
}
