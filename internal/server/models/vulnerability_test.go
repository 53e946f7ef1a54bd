package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVulnerability_SetAndRow(t *testing.T) {
	var v Vulnerability
	for i, c := range Columns {
		v.Set(c, string(rune('a'+i)))
	}
	v.Set("password", "ignored")

	assert.Equal(t, []string{"a", "b", "c", "d", "e", "f"}, v.Row())
	assert.Equal(t, "a", v.ID)
	assert.Equal(t, "f", v.FirstCriteria)
}

func TestIsColumn(t *testing.T) {
	assert.True(t, IsColumn("cvss_v3"))
	assert.True(t, IsColumn("id"))
	assert.False(t, IsColumn("ID"))
	assert.False(t, IsColumn("id; DROP TABLE users"))
	assert.False(t, IsColumn(""))
}
