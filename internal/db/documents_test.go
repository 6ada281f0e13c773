package db

import (
	"testing"

	"github.com/jonathan/resume-editor/internal/store"
	"github.com/jonathan/resume-editor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSection(t *testing.T) {
	raw := []byte(`{"key":"skills","variant":"simple_list","strings":["Go","SQL"]}`)

	s, err := decodeSection(raw)
	require.NoError(t, err)
	assert.Equal(t, types.SectionSkills, s.Key)
	assert.Equal(t, types.VariantSimpleList, s.Variant)
	assert.Equal(t, []string{"Go", "SQL"}, s.Strings)

	_, err = decodeSection([]byte(`{"key":`))
	assert.Error(t, err)
}

func TestDecodeOrder(t *testing.T) {
	order, err := decodeOrder([]byte(`["experience","skills"]`))
	require.NoError(t, err)
	assert.Equal(t, []types.SectionKey{types.SectionExperience, types.SectionSkills}, order)

	_, err = decodeOrder([]byte(`{}`))
	assert.Error(t, err)
}

func TestEnsureOrdered(t *testing.T) {
	order := []types.SectionKey{types.SectionExperience, types.SectionSkills}

	assert.Equal(t, order, ensureOrdered(order, types.SectionSkills))
	assert.Equal(t,
		[]types.SectionKey{types.SectionExperience, types.SectionSkills, "custom_abc"},
		ensureOrdered(order, "custom_abc"),
	)
}

func TestNotFoundErrors(t *testing.T) {
	assert.ErrorIs(t, sectionNotFound(types.SectionSkills), store.ErrNotFound)
	assert.Contains(t, sectionNotFound(types.SectionSkills).Error(), "skills")
}
