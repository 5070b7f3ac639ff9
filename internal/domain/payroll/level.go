package payroll

import "strings"

// ApprovalLevel is a stage in the sign-off chain.
type ApprovalLevel string

const (
	LevelDraft           ApprovalLevel = "DRAFT"
	LevelDepartmentHead  ApprovalLevel = "DEPARTMENT_HEAD"
	LevelHRManager       ApprovalLevel = "HR_MANAGER"
	LevelFinanceDirector ApprovalLevel = "FINANCE_DIRECTOR"
	LevelSuperAdmin      ApprovalLevel = "SUPER_ADMIN"
	LevelCompleted       ApprovalLevel = "COMPLETED"
)

// legacyHRHead is a stored spelling of LevelHRManager.
const legacyHRHead = "HR_HEAD"

var levelOrder = []ApprovalLevel{
	LevelDraft,
	LevelDepartmentHead,
	LevelHRManager,
	LevelFinanceDirector,
	LevelSuperAdmin,
	LevelCompleted,
}

// ApprovalOrder returns the levels at which an approver must act, in order.
func ApprovalOrder() []ApprovalLevel {
	return []ApprovalLevel{LevelDepartmentHead, LevelHRManager, LevelFinanceDirector, LevelSuperAdmin}
}

// NextLevel is the one transition table of the chain. COMPLETED and unknown
// levels map to themselves.
func NextLevel(current ApprovalLevel) ApprovalLevel {
	for i, l := range levelOrder[:len(levelOrder)-1] {
		if l == current {
			return levelOrder[i+1]
		}
	}
	return current
}

func (l ApprovalLevel) IsValid() bool {
	for _, known := range levelOrder {
		if l == known {
			return true
		}
	}
	return false
}

// IsActionable reports whether an approver acts at l.
func (l ApprovalLevel) IsActionable() bool {
	for _, a := range ApprovalOrder() {
		if l == a {
			return true
		}
	}
	return false
}

// Rank orders levels; unknown levels rank -1.
func (l ApprovalLevel) Rank() int {
	for i, known := range levelOrder {
		if l == known {
			return i
		}
	}
	return -1
}

// ParseApprovalLevel accepts stored and client spellings, including HR_HEAD.
func ParseApprovalLevel(s string) (ApprovalLevel, error) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	if normalized == legacyHRHead {
		return LevelHRManager, nil
	}
	l := ApprovalLevel(normalized)
	if !l.IsValid() {
		return "", ErrInvalidLevel
	}
	return l, nil
}

// StoredSpellings lists every current_level value a row at l may carry.
func (l ApprovalLevel) StoredSpellings() []string {
	if l == LevelHRManager {
		return []string{string(l), legacyHRHead}
	}
	return []string{string(l)}
}
