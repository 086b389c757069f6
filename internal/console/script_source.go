package console

import (
	"errors"
	"fmt"
	"io"
	"os"
)

const (
	scriptOpenErrorTemplateConstant = "failed to open script %s: %w"
	scriptReadErrorTemplateConstant = "failed to read script: %w"
)

// ScriptSource yields the scripts executed by the read-eval loop. NextScript returns io.EOF once the input is exhausted.
type ScriptSource interface {
	NextScript() (string, error)
	Close() error
}

// WholeScriptReader returns its entire input as a single script.
type WholeScriptReader struct {
	reader   io.Reader
	closer   io.Closer
	consumed bool
}

// NewWholeScriptReader wraps a reader such as a non-terminal standard input.
func NewWholeScriptReader(reader io.Reader) *WholeScriptReader {
	return &WholeScriptReader{reader: reader}
}

// OpenScriptFile opens the script stored at scriptPath.
func OpenScriptFile(scriptPath string) (*WholeScriptReader, error) {
	scriptFile, openError := os.Open(scriptPath)
	if openError != nil {
		return nil, fmt.Errorf(scriptOpenErrorTemplateConstant, scriptPath, openError)
	}
	return &WholeScriptReader{reader: scriptFile, closer: scriptFile}, nil
}

// NextScript returns the full input on the first call and io.EOF afterwards.
func (scriptReader *WholeScriptReader) NextScript() (string, error) {
	if scriptReader.consumed || scriptReader.reader == nil {
		return "", io.EOF
	}
	scriptReader.consumed = true

	content, readError := io.ReadAll(scriptReader.reader)
	if readError != nil && !errors.Is(readError, io.EOF) {
		return "", fmt.Errorf(scriptReadErrorTemplateConstant, readError)
	}
	return string(content), nil
}

// Close releases the underlying file when the reader owns one.
func (scriptReader *WholeScriptReader) Close() error {
	if scriptReader.closer == nil {
		return nil
	}
	closer := scriptReader.closer
	scriptReader.closer = nil
	return closer.Close()
}
