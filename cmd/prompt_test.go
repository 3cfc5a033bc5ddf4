package cmd

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPromptContent(t *testing.T) {
	promptFile := writeFile(t, "prompt.txt", "\n from file \n")

	tests := []struct {
		name     string
		args     []string
		file     string
		stdin    string
		piped    bool
		expected string
		wantErr  bool
	}{
		{name: "cli only", args: []string{"hello", "world"}, expected: "hello world"},
		{name: "stdin only", stdin: " piped \n", piped: true, expected: "piped"},
		{name: "stdin and cli", args: []string{"Explain:"}, stdin: "code", piped: true, expected: "Explain:\n\ncode"},
		{name: "file wins", args: []string{"ignored"}, file: promptFile, stdin: "ignored", piped: true, expected: "from file"},
		{name: "empty stdin falls back to cli", args: []string{"cli"}, stdin: "   ", piped: true, expected: "cli"},
		{name: "nothing", wantErr: true},
		{name: "missing file", file: "/does/not/exist.txt", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			originalPiped, originalStdin := stdinIsPiped, stdin
			t.Cleanup(func() { stdinIsPiped, stdin = originalPiped, originalStdin })

			stdinIsPiped = func() bool { return tt.piped }
			stdin = strings.NewReader(tt.stdin)

			got, err := getPromptContent(tt.args, tt.file)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}
