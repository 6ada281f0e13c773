package main

import (
	"testing"

	"github.com/jonathan/resume-editor/internal/editor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFieldAddr(t *testing.T) {
	tests := []struct {
		input   string
		want    editor.FieldAddr
		wantErr bool
	}{
		{input: "content", want: editor.Field("content")},
		{input: "email", want: editor.Field("email")},
		{input: "2", want: editor.ItemAt(2)},
		{input: "2.company", want: editor.ItemField(2, "company")},
		{input: "", wantErr: true},
		{input: "2.", wantErr: true},
		{input: "-1", wantErr: true},
		{input: "a.b", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := parseFieldAddr(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want.String(), got.String())
		})
	}
}

func TestParseBulletAddr(t *testing.T) {
	i, b, ok := parseBulletAddr("3.bullets.1")
	assert.True(t, ok)
	assert.Equal(t, 3, i)
	assert.Equal(t, 1, b)

	for _, s := range []string{"3.bullets", "3.title.1", "x.bullets.1", "3.bullets.-1"} {
		_, _, ok := parseBulletAddr(s)
		assert.False(t, ok, s)
	}
	assert.Equal(t, "1.bullets.0", bulletSpec("1.0"))
}

func TestParseAssignment(t *testing.T) {
	addr, value, err := parseAssignment("2.company=Acme = Co")
	require.NoError(t, err)
	assert.Equal(t, "2.company", addr)
	assert.Equal(t, "Acme = Co", value)

	addr, value, err = parseAssignment(`0.bullets=["a","b"]`)
	require.NoError(t, err)
	assert.Equal(t, "0.bullets", addr)
	assert.Equal(t, []string{"a", "b"}, value)

	_, _, err = parseAssignment(`0.bullets=[oops`)
	assert.Error(t, err)
	_, _, err = parseAssignment("=x")
	assert.Error(t, err)
}

func TestParseAssignment_BracketedTextStaysText(t *testing.T) {
	addr, value, err := parseAssignment("content=[Draft] Backend engineer")
	require.NoError(t, err)
	assert.Equal(t, "content", addr)
	assert.Equal(t, "[Draft] Backend engineer", value)

	_, value, err = parseAssignment("1.title=[Contract] Engineer")
	require.NoError(t, err)
	assert.Equal(t, "[Contract] Engineer", value)

	_, value, err = parseAssignment(`0.company=["not","a","list"]`)
	require.NoError(t, err)
	assert.Equal(t, `["not","a","list"]`, value)
}

func TestParseIndex(t *testing.T) {
	n, err := parseIndex("version", "4")
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = parseIndex("version", "-1")
	assert.ErrorContains(t, err, "invalid version")
}
