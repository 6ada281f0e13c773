package editor

import (
	"testing"

	"github.com/jonathan/resume-editor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoVersionHistory() types.VersionHistory {
	return types.VersionHistory{
		0: {Key: types.SectionProfessionalSummary, Variant: types.VariantText, Text: "v0"},
		1: {Key: types.SectionProfessionalSummary, Variant: types.VariantText, Text: "v1"},
	}
}

func TestNavigator_Select(t *testing.T) {
	n := NewNavigator(types.SectionProfessionalSummary)
	history := twoVersionHistory()
	n.Observe(history.CurrentVersion())

	require.NoError(t, n.Select(1, history))
	v, viewing := n.Viewing()
	assert.True(t, viewing)
	assert.Equal(t, 1, v)

	require.NoError(t, n.Select(2, history), "the current version number selects Current")
	assert.True(t, n.IsCurrent())

	err := n.Select(7, history)
	var stateErr *InvalidStateError
	require.ErrorAs(t, err, &stateErr)
	assert.True(t, n.IsCurrent())
}

func TestNavigator_SnapBackOnAdvance(t *testing.T) {
	n := NewNavigator(types.SectionProfessionalSummary)
	history := twoVersionHistory()
	n.Observe(2)
	require.NoError(t, n.Select(0, history))

	assert.False(t, n.Observe(2), "same version does not snap")
	assert.False(t, n.IsCurrent())

	assert.False(t, n.Observe(1), "older version is ignored")
	assert.False(t, n.IsCurrent())

	assert.True(t, n.Observe(3))
	assert.True(t, n.IsCurrent())
	assert.Equal(t, 3, n.CurrentVersion())
}

func TestNavigator_ObserveAtCurrentReportsNoSnap(t *testing.T) {
	n := NewNavigator(types.SectionSkills)
	assert.False(t, n.Observe(4))
	assert.Equal(t, 4, n.CurrentVersion())
}
