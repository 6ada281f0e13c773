package main

import (
	"testing"

	"github.com/jonathan/resume-editor/internal/editor"
	"github.com/jonathan/resume-editor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditCommand_SimpleList(t *testing.T) {
	doc := writeDocument(t)

	output, err := execute(t, "edit", "skills", "--set", "1=Postgres", "--add", "--set", "3=Redis", "--document", doc)
	require.NoError(t, err)
	assert.Contains(t, output, "Postgres")

	assert.Equal(t, []string{"Go", "Postgres", "Kubernetes", "Redis"}, section(t, doc, types.SectionSkills).Strings)
	assert.Empty(t, history(t, doc, types.SectionSkills), "commits replace the current version in place")
}

func TestEditCommand_ListEntriesAndBullets(t *testing.T) {
	doc := writeDocument(t)

	_, err := execute(t, "edit", "experience",
		"--add",
		"--set", "2.title=Intern",
		"--set", "2.company=Globex",
		"--add-bullet", "0=Mentored two engineers",
		"--remove-bullet", "1.0",
		"--set", "0.bullets.0=Led the storage and search teams",
		"--document", doc,
	)
	require.NoError(t, err)

	items := section(t, doc, types.SectionExperience).Items
	require.Len(t, items, 3)
	assert.Equal(t, []string{"Led the storage and search teams", "Mentored two engineers"}, items[0].Bullets)
	assert.Equal(t, []string{""}, items[1].Bullets, "removing the last bullet leaves a placeholder")
	assert.Equal(t, "Intern", items[2].Get("title"))
	assert.Equal(t, "Globex", items[2].Get("company"))
}

func TestEditCommand_WholeBulletList(t *testing.T) {
	doc := writeDocument(t)

	_, err := execute(t, "edit", "experience", "--set", `1.bullets=["Cut costs","Shipped v2"]`, "--document", doc)
	require.NoError(t, err)
	assert.Equal(t, []string{"Cut costs", "Shipped v2"}, section(t, doc, types.SectionExperience).Items[1].Bullets)
}

func TestEditCommand_Text(t *testing.T) {
	doc := writeDocument(t)

	_, err := execute(t, "edit", "professional_summary", "--set", "content=Platform engineer", "--document", doc)
	require.NoError(t, err)
	assert.Equal(t, "Platform engineer", section(t, doc, types.SectionProfessionalSummary).Text)
	assert.Len(t, history(t, doc, types.SectionProfessionalSummary), 1)
}

func TestEditCommand_RejectedChangeSavesNothing(t *testing.T) {
	doc := writeDocument(t)

	_, err := execute(t, "edit", "experience", "--set", "0.title=Principal", "--set", "9.title=Ghost", "--document", doc)
	var fieldErr *editor.FieldError
	require.ErrorAs(t, err, &fieldErr)

	assert.Equal(t, "Staff Engineer", section(t, doc, types.SectionExperience).Items[0].Get("title"))
}

func TestEditCommand_Errors(t *testing.T) {
	doc := writeDocument(t)

	_, err := execute(t, "edit", "skills", "--document", doc)
	assert.ErrorContains(t, err, "nothing to edit")

	_, err = execute(t, "edit", "skills", "--set", "no-equals-sign", "--document", doc)
	assert.ErrorContains(t, err, "expected ADDR=VALUE")

	_, err = execute(t, "edit", "professional_summary", "--add", "--document", doc)
	assert.ErrorContains(t, err, "has no entries")

	_, err = execute(t, "edit", "skills", "--add-bullet", "0=x", "--document", doc)
	assert.ErrorContains(t, err, "has no bullets")
}
