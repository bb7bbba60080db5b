package main

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportInitialize(t *testing.T) {
	viper.Reset()
	viper.Set("report.dir", "/var/reports")
	viper.Set("report.ous", []string{"OU=Staff,DC=example,DC=com"})
	viper.Set("report.groups", []string{"Finance", "IT"})

	require.NoError(t, reportInitialize())
	assert.Equal(t, "/var/reports", reportDir)
	assert.Equal(t, []string{"OU=Staff,DC=example,DC=com"}, reportOUs)
	assert.Equal(t, []string{"Finance", "IT"}, reportGroups)
}

func TestReportInitializeDefaultDir(t *testing.T) {
	viper.Reset()
	viper.Set("report.ous", []string{"OU=Staff,DC=example,DC=com"})
	viper.Set("report.groups", []string{"Finance"})

	require.NoError(t, reportInitialize())
	assert.Equal(t, ".", reportDir)
}

func TestReportInitializeMissingFields(t *testing.T) {
	viper.Reset()
	err := reportInitialize()
	require.Error(t, err)
	// Both problems are reported at once, not one per run.
	assert.Contains(t, err.Error(), "ous")
	assert.Contains(t, err.Error(), "groups")
}
