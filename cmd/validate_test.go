package cmd

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunValidateConfigCommandAcceptsValidConfig(t *testing.T) {
	afs := afero.NewMemMapFs()
	contents := `{
		pipeline: { enable_web_checks: false, max_domains_for_web_checks: 10 }
		statistical_thresholds: {
			frequency_per_minute: 10
			max_subdomain_length: 20
			high_entropy_threshold: 4.0
			min_analysis_window_minutes: 5
			max_edit_distance: 2
		}
		logging: { level: "INFO" }
	}`
	require.NoError(t, afero.WriteFile(afs, "/config.hjson", []byte(contents), 0o644))

	cfg, err := RunValidateConfigCommand(afs, "/config.hjson")
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Pipeline.MaxDomainsForWebChecks)
}

func TestRunValidateConfigCommandRejectsInvalidConfig(t *testing.T) {
	afs := afero.NewMemMapFs()
	contents := `{
		pipeline: { enable_web_checks: false, max_domains_for_web_checks: 10 }
		statistical_thresholds: {
			frequency_per_minute: 10
			max_subdomain_length: 20
			high_entropy_threshold: 4.0
			min_analysis_window_minutes: 5
			max_edit_distance: 2
		}
		logging: { level: "NOT_A_LEVEL" }
	}`
	require.NoError(t, afero.WriteFile(afs, "/config.hjson", []byte(contents), 0o644))

	_, err := RunValidateConfigCommand(afs, "/config.hjson")
	require.Error(t, err)
}

func TestRunValidateConfigCommandRejectsMissingPath(t *testing.T) {
	_, err := RunValidateConfigCommand(afero.NewMemMapFs(), "")
	require.ErrorIs(t, err, ErrMissingConfigPath)
}

func TestRunValidateConfigCommandRejectsMissingFile(t *testing.T) {
	_, err := RunValidateConfigCommand(afero.NewMemMapFs(), "/does-not-exist.hjson")
	require.Error(t, err)
}
