package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapline/visitplanner/internal/model"
)

func setImportFlags(t *testing.T, listType, mode, deadline string, followUp, priority int) {
	t.Helper()
	oldLT, oldM, oldD := importListType, importMode, importDeadline
	oldF, oldP := importFollowUpDays, importPriority
	t.Cleanup(func() {
		importListType, importMode, importDeadline = oldLT, oldM, oldD
		importFollowUpDays, importPriority = oldF, oldP
	})
	importListType, importMode, importDeadline = listType, mode, deadline
	importFollowUpDays, importPriority = followUp, priority
}

func TestBuildListConfig_Deadline(t *testing.T) {
	setImportFlags(t, "wins", "deadline", "2026-09-30", 0, 0)

	lc, err := buildListConfig()
	require.NoError(t, err)
	assert.Equal(t, model.ModeDeadline, lc.Mode)
	assert.Equal(t, "2026-09-30", lc.Deadline)
	assert.Equal(t, model.ListTypeWins, lc.ListType)
}

func TestBuildListConfig_DeadlineMissingDate(t *testing.T) {
	setImportFlags(t, "wins", "deadline", "", 0, 0)

	_, err := buildListConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--deadline is required")
}

func TestBuildListConfig_FollowUpRequiresDays(t *testing.T) {
	setImportFlags(t, "hitlist", "followup", "", 0, 0)

	_, err := buildListConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--follow-up-days must be positive")

	setImportFlags(t, "hitlist", "followup", "", 14, 0)
	lc, err := buildListConfig()
	require.NoError(t, err)
	assert.Equal(t, 14, lc.FollowUpDays)
}

func TestBuildListConfig_PriorityRequiresLevel(t *testing.T) {
	setImportFlags(t, "hitlist", "priority", "", 0, 0)

	_, err := buildListConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--priority must be positive")
}

func TestBuildListConfig_EmptyModeDefaultsToMaster(t *testing.T) {
	setImportFlags(t, "masterhouse", "", "", 0, 0)

	lc, err := buildListConfig()
	require.NoError(t, err)
	assert.Equal(t, model.ModeMaster, lc.Mode)
}

func TestBuildListConfig_UnknownMode(t *testing.T) {
	setImportFlags(t, "wins", "yesterday", "", 0, 0)

	_, err := buildListConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestBuildListConfig_UnknownListType(t *testing.T) {
	setImportFlags(t, "bestlist", "master", "", 0, 0)

	_, err := buildListConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown list type")
}
