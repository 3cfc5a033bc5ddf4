package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/flacial/chattmpl/internal/log"
)

var stdin io.Reader = os.Stdin

// stdinIsPiped reports whether stdin is a pipe or file rather than a terminal.
var stdinIsPiped = func() bool {
	stats, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stats.Mode() & os.ModeCharDevice) == 0
}

func getPromptContent(cliArgs []string, promptFilePath string) (string, error) {
	var finalPrompt string
	var stdinContent string

	if stdinIsPiped() {
		stdinBytes, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("error reading stdin: %w", err)
		}

		stdinContent = strings.TrimSpace(string(stdinBytes))
	}

	fileContent := ""
	if promptFilePath != "" {
		fileBytes, err := os.ReadFile(promptFilePath)
		if err != nil {
			return "", fmt.Errorf("error reading prompt file %q: %w", promptFilePath, err)
		}

		fileContent = strings.TrimSpace(string(fileBytes))
	}

	cliPrompt := strings.TrimSpace(strings.Join(cliArgs, " "))

	// Determine final prompt based on this order: file > stdin > cli
	if fileContent != "" {
		finalPrompt = fileContent

		if cliPrompt != "" || stdinContent != "" {
			log.Logger.Warn().Msg("Warning: File content takes precedence. CLI arguments and stdin will be ignored.")
		}
	} else if stdinContent != "" && cliPrompt != "" {
		log.Logger.Info().Msg("Using stdin content and CLI prompt")
		finalPrompt = cliPrompt + "\n\n" + stdinContent
	} else if stdinContent != "" {
		log.Logger.Info().Msg("Using stdin content")
		finalPrompt = stdinContent
	} else if cliPrompt != "" {
		log.Logger.Info().Msg("Using CLI prompt")
		finalPrompt = cliPrompt
	} else {
		return "", errors.New("no prompt provided. Use 'chattmpl \"your prompt\"', pipe input, specify a file with -f, or pass a conversation with -m")
	}

	return finalPrompt, nil
}
