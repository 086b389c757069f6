package console

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/peterh/liner"
	"go.uber.org/zap"
)

const (
	defaultPromptConstant               = "minibash> "
	historyFilePermissionsConstant      = 0o600
	historyLoadFailedMessageConstant    = "history file could not be loaded"
	historySaveFailedMessageConstant    = "history file could not be saved"
	historyFilePathFieldConstant        = "history_file"
	terminalModeFailedMessageConstant   = "terminal mode could not be applied"
	promptReadErrorTemplateConstant     = "failed to read command line: %w"
	historyWriteErrorTemplateConstant   = "failed to write history file %s: %w"
	terminalModeRestoreTemplateConstant = "failed to restore terminal mode: %w"
	emptyScriptConstant                 = ""
)

// PromptOptions configures an InteractivePrompt.
type PromptOptions struct {
	Prompt          string
	HistoryFilePath string
	Logger          *zap.Logger
}

// InteractivePrompt reads one command line per script from the controlling terminal.
type InteractivePrompt struct {
	state           *liner.State
	cookedMode      liner.ModeApplier
	rawMode         liner.ModeApplier
	prompt          string
	historyFilePath string
	logger          *zap.Logger
}

// NewInteractivePrompt puts the terminal under liner control and loads the history file when one is configured.
// Outside of a prompt the terminal is kept in the mode it had at startup so that foreground jobs see a normal tty.
func NewInteractivePrompt(options PromptOptions) *InteractivePrompt {
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	prompt := options.Prompt
	if len(prompt) == 0 {
		prompt = defaultPromptConstant
	}

	cookedMode := captureTerminalMode()
	state := liner.NewLiner()
	rawMode := captureTerminalMode()
	state.SetCtrlCAborts(true)

	interactivePrompt := &InteractivePrompt{
		state:           state,
		cookedMode:      cookedMode,
		rawMode:         rawMode,
		prompt:          prompt,
		historyFilePath: options.HistoryFilePath,
		logger:          logger,
	}
	interactivePrompt.loadHistory()
	interactivePrompt.applyMode(cookedMode)
	return interactivePrompt
}

// NextScript prompts for a line. An interrupted line yields an empty script; end of input yields io.EOF.
func (interactivePrompt *InteractivePrompt) NextScript() (string, error) {
	interactivePrompt.applyMode(interactivePrompt.rawMode)
	defer interactivePrompt.applyMode(interactivePrompt.cookedMode)

	line, promptError := interactivePrompt.state.Prompt(interactivePrompt.prompt)
	switch {
	case promptError == nil:
	case errors.Is(promptError, liner.ErrPromptAborted):
		return emptyScriptConstant, nil
	case errors.Is(promptError, io.EOF):
		return emptyScriptConstant, io.EOF
	default:
		return emptyScriptConstant, fmt.Errorf(promptReadErrorTemplateConstant, promptError)
	}

	if len(strings.TrimSpace(line)) > 0 {
		interactivePrompt.state.AppendHistory(line)
	}
	return line, nil
}

// Close saves the history file and hands the terminal back in its original mode.
func (interactivePrompt *InteractivePrompt) Close() error {
	saveError := interactivePrompt.saveHistory()
	closeError := interactivePrompt.state.Close()
	if closeError != nil {
		return fmt.Errorf(terminalModeRestoreTemplateConstant, closeError)
	}
	return saveError
}

func captureTerminalMode() liner.ModeApplier {
	mode, modeError := liner.TerminalMode()
	if modeError != nil {
		return nil
	}
	return mode
}

func (interactivePrompt *InteractivePrompt) applyMode(mode liner.ModeApplier) {
	if mode == nil {
		return
	}
	if applyError := mode.ApplyMode(); applyError != nil {
		interactivePrompt.logger.Debug(terminalModeFailedMessageConstant, zap.Error(applyError))
	}
}

func (interactivePrompt *InteractivePrompt) loadHistory() {
	if len(interactivePrompt.historyFilePath) == 0 {
		return
	}
	historyFile, openError := os.Open(interactivePrompt.historyFilePath)
	if openError != nil {
		if !errors.Is(openError, os.ErrNotExist) {
			interactivePrompt.logger.Warn(historyLoadFailedMessageConstant, zap.String(historyFilePathFieldConstant, interactivePrompt.historyFilePath), zap.Error(openError))
		}
		return
	}
	defer historyFile.Close()

	if readError := interactivePrompt.readHistory(historyFile); readError != nil {
		interactivePrompt.logger.Warn(historyLoadFailedMessageConstant, zap.String(historyFilePathFieldConstant, interactivePrompt.historyFilePath), zap.Error(readError))
	}
}

func (interactivePrompt *InteractivePrompt) readHistory(reader io.Reader) error {
	_, readError := interactivePrompt.state.ReadHistory(reader)
	return readError
}

func (interactivePrompt *InteractivePrompt) writeHistory(writer io.Writer) error {
	_, writeError := interactivePrompt.state.WriteHistory(writer)
	return writeError
}

func (interactivePrompt *InteractivePrompt) saveHistory() error {
	if len(interactivePrompt.historyFilePath) == 0 {
		return nil
	}
	historyFile, openError := os.OpenFile(interactivePrompt.historyFilePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, historyFilePermissionsConstant)
	if openError != nil {
		interactivePrompt.logger.Warn(historySaveFailedMessageConstant, zap.String(historyFilePathFieldConstant, interactivePrompt.historyFilePath), zap.Error(openError))
		return fmt.Errorf(historyWriteErrorTemplateConstant, interactivePrompt.historyFilePath, openError)
	}
	defer historyFile.Close()

	if writeError := interactivePrompt.writeHistory(historyFile); writeError != nil {
		interactivePrompt.logger.Warn(historySaveFailedMessageConstant, zap.String(historyFilePathFieldConstant, interactivePrompt.historyFilePath), zap.Error(writeError))
		return fmt.Errorf(historyWriteErrorTemplateConstant, interactivePrompt.historyFilePath, writeError)
	}
	return nil
}
