package console_test

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/minibash/internal/console"
)

const (
	testScriptContentConstant  = "/bin/echo one\n/bin/echo two &\njobs\n"
	testScriptFileNameConstant = "script.sh"
	testHomeDirectoryConstant  = "/home/minibash"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("device unplugged")
}

func TestWholeScriptReaderReturnsInputOnce(testInstance *testing.T) {
	scriptReader := console.NewWholeScriptReader(strings.NewReader(testScriptContentConstant))

	script, readError := scriptReader.NextScript()
	require.NoError(testInstance, readError)
	require.Equal(testInstance, testScriptContentConstant, script)

	_, exhaustedError := scriptReader.NextScript()
	require.ErrorIs(testInstance, exhaustedError, io.EOF)
	require.NoError(testInstance, scriptReader.Close())
}

func TestWholeScriptReaderReportsReadFailure(testInstance *testing.T) {
	scriptReader := console.NewWholeScriptReader(failingReader{})

	_, readError := scriptReader.NextScript()
	require.Error(testInstance, readError)
	require.NotErrorIs(testInstance, readError, io.EOF)
}

func TestOpenScriptFile(testInstance *testing.T) {
	scriptPath := filepath.Join(testInstance.TempDir(), testScriptFileNameConstant)
	require.NoError(testInstance, os.WriteFile(scriptPath, []byte(testScriptContentConstant), 0o600))

	scriptReader, openError := console.OpenScriptFile(scriptPath)
	require.NoError(testInstance, openError)

	script, readError := scriptReader.NextScript()
	require.NoError(testInstance, readError)
	require.Equal(testInstance, testScriptContentConstant, script)
	require.NoError(testInstance, scriptReader.Close())
	require.NoError(testInstance, scriptReader.Close())

	_, missingError := console.OpenScriptFile(filepath.Join(testInstance.TempDir(), "missing.sh"))
	require.ErrorIs(testInstance, missingError, os.ErrNotExist)
}

func TestResolveHistoryPath(testInstance *testing.T) {
	homeProvider := func() (string, error) { return testHomeDirectoryConstant, nil }
	failingHomeProvider := func() (string, error) { return "", errors.New("no home") }

	testCases := []struct {
		name          string
		configured    string
		provider      console.HomeDirectoryProvider
		expectedValue string
	}{
		{name: "empty_disables_history", configured: "", provider: homeProvider, expectedValue: ""},
		{name: "absolute_unchanged", configured: "/var/tmp/history", provider: homeProvider, expectedValue: "/var/tmp/history"},
		{name: "tilde_only", configured: "~", provider: homeProvider, expectedValue: testHomeDirectoryConstant},
		{name: "tilde_prefix", configured: "~/.minibash_history", provider: homeProvider, expectedValue: testHomeDirectoryConstant + "/.minibash_history"},
		{name: "other_user_unchanged", configured: "~root/.history", provider: homeProvider, expectedValue: "~root/.history"},
		{name: "home_lookup_failure", configured: "~/.minibash_history", provider: failingHomeProvider, expectedValue: "~/.minibash_history"},
		{name: "surrounding_space_trimmed", configured: "  ~/h  ", provider: homeProvider, expectedValue: testHomeDirectoryConstant + "/h"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expectedValue, console.ResolveHistoryPath(testCase.configured, testCase.provider))
		})
	}
}
