package cmd

import (
	"fmt"

	"github.com/flacial/chattmpl/internal/presets"
	"github.com/spf13/cobra"
)

var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List the available chat template presets",
	Long:  `Lists the presets in the presets directory (default: $XDG_CONFIG_HOME/chattmpl/presets). Each preset is a <name>.tmpl.yaml file.`,
	RunE:  runPresetsCommand,
}

var presetsShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Print the chat template of a preset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		preset, err := presets.Load(presetsDir(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), preset.ChatTemplate)
		return nil
	},
}

func runPresetsCommand(cmd *cobra.Command, args []string) error {
	dir := presetsDir()
	list, err := presets.List(dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(list) == 0 {
		fmt.Fprintf(out, "No presets found in %s\n", dir)
		return nil
	}

	fmt.Fprintln(out, "Available presets:")
	fmt.Fprintln(out, "------------------------------------")
	for _, p := range list {
		fmt.Fprintf(out, "Name: %s\n", p.Name)
		if p.Description != "" {
			fmt.Fprintf(out, "Description: %s\n", p.Description)
		}
		if p.SystemMessage != "" {
			fmt.Fprintf(out, "System message: %s\n", truncateString(p.SystemMessage, 60))
		}
		fmt.Fprintf(out, "File: %s\n", p.Path)
		fmt.Fprintln(out, "------------------------------------")
	}

	return nil
}

// truncateString cuts s to maxLen runes.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	return string(runes[:maxLen]) + "..."
}

func init() {
	presetsCmd.AddCommand(presetsShowCmd)
	rootCmd.AddCommand(presetsCmd)
}
