package payroll

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextLevel(t *testing.T) {
	assert.Equal(t, LevelDepartmentHead, NextLevel(LevelDraft))
	assert.Equal(t, LevelHRManager, NextLevel(LevelDepartmentHead))
	assert.Equal(t, LevelFinanceDirector, NextLevel(LevelHRManager))
	assert.Equal(t, LevelSuperAdmin, NextLevel(LevelFinanceDirector))
	assert.Equal(t, LevelCompleted, NextLevel(LevelSuperAdmin))
	assert.Equal(t, LevelCompleted, NextLevel(LevelCompleted))
}

func TestNextLevel_WalksApprovalOrder(t *testing.T) {
	var walked []ApprovalLevel
	for l := NextLevel(LevelDraft); l != LevelCompleted; l = NextLevel(l) {
		walked = append(walked, l)
	}
	assert.Equal(t, ApprovalOrder(), walked)
}

func TestParseApprovalLevel(t *testing.T) {
	l, err := ParseApprovalLevel("HR_HEAD")
	require.NoError(t, err)
	assert.Equal(t, LevelHRManager, l)

	l, err = ParseApprovalLevel(" finance_director ")
	require.NoError(t, err)
	assert.Equal(t, LevelFinanceDirector, l)

	_, err = ParseApprovalLevel("CEO")
	assert.ErrorIs(t, err, ErrInvalidLevel)
}

func TestParseFrequency(t *testing.T) {
	for _, f := range []string{"monthly", "bi-weekly", "weekly"} {
		got, err := ParseFrequency(f)
		require.NoError(t, err)
		assert.Equal(t, Frequency(f), got)
	}
	_, err := ParseFrequency("daily")
	assert.ErrorIs(t, err, ErrInvalidFrequency)
}

func TestLastEventAt(t *testing.T) {
	flow := ApprovalFlow{History: []ApprovalEvent{
		{Level: LevelDepartmentHead, Status: EventSubmit},
		{Level: LevelDepartmentHead, Status: EventApproved},
		{Level: LevelHRManager, Status: EventApproved},
	}}

	ev, ok := flow.LastEventAt(LevelDepartmentHead)
	require.True(t, ok)
	assert.Equal(t, EventApproved, ev.Status)

	_, ok = flow.LastEventAt(LevelSuperAdmin)
	assert.False(t, ok)
}

func TestStoredSpellings(t *testing.T) {
	assert.ElementsMatch(t, []string{"HR_MANAGER", "HR_HEAD"}, LevelHRManager.StoredSpellings())
	assert.Equal(t, []string{"DEPARTMENT_HEAD"}, LevelDepartmentHead.StoredSpellings())

	for _, s := range LevelHRManager.StoredSpellings() {
		l, err := ParseApprovalLevel(s)
		require.NoError(t, err)
		assert.Equal(t, LevelHRManager, l)
	}
}
