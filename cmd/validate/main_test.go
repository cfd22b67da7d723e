package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/shark-hsi-service/internal/species"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunBuiltInProfiles(t *testing.T) {
	assert.Equal(t, 0, run(""))
}

func TestRunSpeciesFile(t *testing.T) {
	params := species.DefaultParams()
	data, err := species.Marshal(map[string]species.Params{"great_white": params["great_white"]})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "species.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	assert.Equal(t, 0, run(path))
}

func TestRunRejectsInvalidWeights(t *testing.T) {
	gw := species.DefaultParams()["great_white"]
	gw.Weights.Phys = 0.9
	data, err := species.Marshal(map[string]species.Params{"great_white": gw})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "species.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o600))
	assert.Equal(t, 1, run(path))
}

func TestRunMissingFile(t *testing.T) {
	assert.Equal(t, 1, run(filepath.Join(t.TempDir(), "absent.yaml")))
}

func TestValidateCurvePeaksFlagsNothingForDefaults(t *testing.T) {
	reg := species.Defaults()
	var profiles []*species.Profile
	for _, key := range reg.Keys() {
		p, err := reg.Get(key)
		require.NoError(t, err)
		profiles = append(profiles, p)
	}
	assert.Empty(t, validateCurvePeaks(profiles).errors)
	assert.Empty(t, validateLagWindow(profiles).errors)
}
