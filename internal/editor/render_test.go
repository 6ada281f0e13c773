package editor

import (
	"testing"
	"unicode/utf8"

	"github.com/jonathan/resume-editor/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func summarySection(text string) types.Section {
	return types.Section{Key: types.SectionProfessionalSummary, Variant: types.VariantText, Text: text}
}

func TestRender_DisplayValuePrecedence(t *testing.T) {
	canonical := summarySection("canonical")
	buffer := summarySection("buffer")
	history := types.VersionHistory{0: summarySection("historical")}

	tests := []struct {
		name    string
		in      RenderInput
		want    string
		mode    Mode
		version string
	}{
		{
			name:    "canonical",
			in:      RenderInput{Canonical: &canonical, History: history},
			want:    "canonical",
			mode:    ModeView,
			version: "Current",
		},
		{
			name:    "editing shows buffer",
			in:      RenderInput{Canonical: &canonical, History: history, Buffer: &buffer, Editing: true},
			want:    "buffer",
			mode:    ModeEdit,
			version: "Current",
		},
		{
			name:    "history wins",
			in:      RenderInput{Canonical: &canonical, History: history, Viewing: intPtr(0), Buffer: &buffer, Editing: true},
			want:    "historical",
			mode:    ModeView,
			version: "Version 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Key = types.SectionProfessionalSummary
			model, err := Render(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, model.Text)
			assert.Equal(t, tt.mode, model.Mode)
			assert.Equal(t, tt.version, model.VersionLabel)
			assert.Equal(t, "Professional Summary", model.Title)
		})
	}
}

func TestRender_BufferNotReady(t *testing.T) {
	canonical := summarySection("canonical")
	_, err := Render(RenderInput{Key: types.SectionProfessionalSummary, Canonical: &canonical, Editing: true})
	var notReady *BufferNotReadyError
	require.ErrorAs(t, err, &notReady)
	assert.Equal(t, types.SectionProfessionalSummary, notReady.Section)
}

func TestRender_EmptyOrAbsentIsHidden(t *testing.T) {
	model, err := Render(RenderInput{Key: types.SectionCertifications})
	require.NoError(t, err)
	assert.True(t, model.Hidden)
	assert.Equal(t, types.VariantList, model.Variant)

	blank := types.Section{Key: types.SectionSkills, Variant: types.VariantSimpleList, Strings: []string{"", " "}}
	model, err = Render(RenderInput{Key: types.SectionSkills, Canonical: &blank})
	require.NoError(t, err)
	assert.True(t, model.Hidden)

	model, err = Render(RenderInput{Key: types.SectionSkills, Canonical: &blank, Buffer: &blank, Editing: true})
	require.NoError(t, err)
	assert.False(t, model.Hidden, "edit mode keeps its input rows")
	assert.Equal(t, []string{"", " "}, model.Strings)
}

func TestRender_UnknownHistoricalVersion(t *testing.T) {
	canonical := summarySection("x")
	_, err := Render(RenderInput{Key: types.SectionProfessionalSummary, Canonical: &canonical, Viewing: intPtr(3)})
	var stateErr *InvalidStateError
	assert.ErrorAs(t, err, &stateErr)
}

func TestRender_ExperienceLayout(t *testing.T) {
	it := types.NewItem("title", "Engineer", "company", "Acme", "location", "Berlin",
		"start_date", "2020", "end_date", "2023", "team", "Platform")
	it.Bullets = []string{"Did X", ""}
	section := experienceSection(it)

	model, err := Render(RenderInput{Key: types.SectionExperience, Canonical: &section})
	require.NoError(t, err)
	require.Len(t, model.Items, 1)

	item := model.Items[0]
	assert.Equal(t, "Engineer", item.Heading)
	assert.Equal(t, "Acme, Berlin", item.Subheading)
	assert.Equal(t, "2020 - 2023", item.Meta)
	assert.Equal(t, []string{"Did X"}, item.Bullets, "blank bullets are not shown")
	require.Len(t, item.Fields, 1)
	assert.Equal(t, DisplayField{Name: "team", Label: "Team", Value: "Platform"}, item.Fields[0])
	assert.True(t, model.Draggable)
}

func TestRender_EditModeExposesEveryField(t *testing.T) {
	section := experienceSection(experienceItem("Engineer", "Acme", ""))
	model, err := Render(RenderInput{Key: types.SectionExperience, Canonical: &section, Buffer: &section, Editing: true})
	require.NoError(t, err)

	item := model.Items[0]
	require.Len(t, item.Fields, 2)
	assert.Equal(t, "title", item.Fields[0].Name)
	assert.Equal(t, []string{""}, item.Bullets)
}

func TestRender_HistoricalViewIsNotDraggable(t *testing.T) {
	section := experienceSection(experienceItem("A", "Acme"))
	history := types.VersionHistory{0: experienceSection(experienceItem("Old", "Acme"))}
	model, err := Render(RenderInput{Key: types.SectionExperience, Canonical: &section, History: history, Viewing: intPtr(0)})
	require.NoError(t, err)
	assert.False(t, model.Draggable)
	assert.Equal(t, "Old", model.Items[0].Heading)
}

func TestRender_VersionTabs(t *testing.T) {
	canonical := summarySection("now")
	history := types.VersionHistory{0: summarySection("a"), 1: summarySection("b")}

	model, err := Render(RenderInput{Key: types.SectionProfessionalSummary, Canonical: &canonical, History: history, Viewing: intPtr(1)})
	require.NoError(t, err)
	require.Len(t, model.Versions, 3)
	assert.Equal(t, "v0", model.Versions[0].Label)
	assert.True(t, model.Versions[1].Selected)
	assert.Equal(t, VersionTab{Label: "Current (v2)", Version: 2, Current: true}, model.Versions[2])

	model, err = Render(RenderInput{Key: types.SectionProfessionalSummary, Canonical: &canonical})
	require.NoError(t, err)
	assert.Empty(t, model.Versions, "no tabs without history")
}

func TestRender_PersonalInfoOrder(t *testing.T) {
	section := types.Section{
		Key:     types.SectionPersonalInfo,
		Variant: types.VariantStructured,
		Fields:  map[string]string{"website": "ada.dev", "name": "Ada", "email": "ada@example.com", "pronouns": "she/her", "phone": ""},
	}
	model, err := Render(RenderInput{Key: types.SectionPersonalInfo, Canonical: &section})
	require.NoError(t, err)

	var names []string
	for _, f := range model.Fields {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{"name", "email", "website", "pronouns"}, names)
	assert.False(t, model.Draggable)
}

func TestRender_CustomSectionsDispatchOnContentType(t *testing.T) {
	key := types.NewCustomSectionKey()

	tmpl, err := types.NewCustomTemplate(types.VariantList)
	require.NoError(t, err)
	section := tmpl.Section(key, "Volunteering")
	section.Items[0].Set("title", "Mentor")
	section.Items[0].Set("subtitle", "Code Club")

	model, err := Render(RenderInput{Key: key, Canonical: &section})
	require.NoError(t, err)
	assert.Equal(t, "Volunteering", model.Title)
	assert.Equal(t, types.VariantList, model.Variant)
	require.Len(t, model.Items, 1)
	assert.Equal(t, "Mentor", model.Items[0].Heading)
	assert.Equal(t, "Code Club", model.Items[0].Subheading)

	text := types.Section{Key: key, Variant: types.VariantText, ContentType: types.VariantText, Title: "Note", Text: "Hello"}
	model, err = Render(RenderInput{Key: key, Canonical: &text})
	require.NoError(t, err)
	assert.Equal(t, "Hello", model.Text)
	assert.False(t, model.Draggable)
}

func TestHumanize(t *testing.T) {
	assert.Equal(t, "Start Date", humanize("start_date"))
	assert.Equal(t, "Gpa", humanize("gpa"))
	assert.Equal(t, "", humanize(""))
	assert.Equal(t, "Über Name", humanize("über_name"))
	assert.Equal(t, "Ébauche Élève", humanize("ébauche_élève"))
	assert.True(t, utf8.ValidString(humanize("ñame")))
}
