package schema

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAliases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	content := `
2018:
  Incident Number: INCIDENT_NUMBER
  Shooting?: SHOOTING
2020:
  occurred_on: OCCURRED_ON_DATE
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	f, err := LoadAliases(path)
	require.NoError(t, err)

	assert.Equal(t, ColIncidentNumber, f.ForYear(2018).Canonical("Incident Number"))
	assert.Equal(t, ColShooting, f.ForYear(2018).Canonical("Shooting?"))
	assert.Equal(t, ColOccurredOn, f.ForYear(2020).Canonical("occurred_on"))

	// Unlisted headers and years pass through unchanged.
	assert.Equal(t, "DISTRICT", f.ForYear(2018).Canonical("DISTRICT"))
	assert.Equal(t, "whatever", f.ForYear(2019).Canonical("whatever"))
}

func TestLoadAliases_EmptyPath(t *testing.T) {
	f, err := LoadAliases("")
	require.NoError(t, err)
	assert.Nil(t, f.ForYear(2018))
}

func TestLoadAliases_BadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aliases.yaml")
	require.NoError(t, os.WriteFile(path, []byte("not: [valid: yaml"), 0o644))
	_, err := LoadAliases(path)
	assert.Error(t, err)

	_, err = LoadAliases(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
