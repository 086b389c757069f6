package cli_test

import (
	"testing"

	mapstructure "github.com/go-viper/mapstructure/v2"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/minibash/cmd/cli"
)

const (
	embeddedConfigurationTypeConstant  = "yaml"
	embeddedDefaultLogLevelConstant    = "error"
	embeddedDefaultLogFormatConstant   = "console"
	embeddedDefaultMaximumJobsConstant = 65536
	embeddedDefaultPromptConstant      = "minibash> "
)

func TestEmbeddedDefaultConfigurationIsValid(testInstance *testing.T) {
	content, configurationType := cli.EmbeddedDefaultConfiguration()
	require.Equal(testInstance, embeddedConfigurationTypeConstant, configurationType)
	require.NotEmpty(testInstance, content)

	rawConfiguration := map[string]any{}
	require.NoError(testInstance, yaml.Unmarshal(content, &rawConfiguration))
	require.ElementsMatch(testInstance, []string{"common", "shell"}, mapKeys(rawConfiguration))

	var configuration cli.ApplicationConfiguration
	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &configuration,
		ErrorUnused: true,
	})
	require.NoError(testInstance, decoderError)
	require.NoError(testInstance, decoder.Decode(rawConfiguration))

	require.Equal(testInstance, embeddedDefaultLogLevelConstant, string(configuration.Common.LogLevel))
	require.Equal(testInstance, embeddedDefaultLogFormatConstant, string(configuration.Common.LogFormat))
	require.Equal(testInstance, embeddedDefaultMaximumJobsConstant, configuration.Shell.MaximumJobs)
	require.Equal(testInstance, embeddedDefaultPromptConstant, configuration.Shell.Prompt)
	require.Empty(testInstance, configuration.Shell.HistoryFile)
	require.True(testInstance, configuration.Shell.JobNotifications)
}

func TestEmbeddedDefaultConfigurationReturnsCopy(testInstance *testing.T) {
	firstContent, _ := cli.EmbeddedDefaultConfiguration()
	firstContent[0] = '#'

	secondContent, _ := cli.EmbeddedDefaultConfiguration()
	require.NotEqual(testInstance, byte('#'), secondContent[0])
}

func TestExitStatusErrorMessage(testInstance *testing.T) {
	require.EqualError(testInstance, cli.ExitStatusError{Code: 127}, "exit status 127")
}

func mapKeys(values map[string]any) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	return keys
}
