package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/flacial/chattmpl/internal/chattemplate"
	"github.com/flacial/chattmpl/internal/conversation"
	"github.com/flacial/chattmpl/internal/hub"
	"github.com/flacial/chattmpl/internal/log"
	"github.com/flacial/chattmpl/internal/presets"
	"github.com/flacial/chattmpl/internal/tokenizer"
	"github.com/spf13/viper"
	"golang.org/x/net/context"
)

type templateSource struct {
	text   string
	origin string
	// preset is set only when the template came from a preset.
	preset *presets.Preset
}

// resolveTemplate picks the chat template: template file, then tokenizer
// config, then hub repository, then preset.
func resolveTemplate(ctx context.Context) (templateSource, error) {
	templateName := viper.GetString("template_name")

	if path := viper.GetString("template_file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return templateSource{}, fmt.Errorf("error reading template file %q: %w", path, err)
		}
		return templateSource{text: string(data), origin: "file:" + path}, nil
	}

	if path := viper.GetString("tokenizer_config"); path != "" {
		text, err := tokenizer.LoadFile(path, templateName)
		if err != nil {
			return templateSource{}, err
		}
		return templateSource{text: text, origin: "tokenizer:" + path}, nil
	}

	if repo := viper.GetString("hf_repo"); repo != "" {
		client := hub.NewClient(viper.GetString("hf_token"), httpClient, viper.GetString("hf_endpoint"))
		data, err := client.FetchTokenizerConfig(ctx, repo, viper.GetString("hf_revision"))
		if err != nil {
			return templateSource{}, fmt.Errorf("error fetching tokenizer config for %s: %w", repo, err)
		}
		text, err := tokenizer.ChatTemplate(data, templateName)
		if err != nil {
			return templateSource{}, fmt.Errorf("%s: %w", repo, err)
		}
		return templateSource{text: text, origin: "hub:" + repo}, nil
	}

	name := viper.GetString("preset")
	preset, err := presets.Load(presetsDir(), name)
	if errors.Is(err, presets.ErrNotFound) {
		log.Logger.Debug().Str("preset", name).Msg("Preset not in presets directory, trying built-in presets.")
		preset, err = presets.Default(name)
	}
	if err != nil {
		return templateSource{}, fmt.Errorf("error loading preset %q: %w", name, err)
	}
	return templateSource{text: preset.ChatTemplate, origin: "preset:" + preset.Name, preset: preset}, nil
}

// resolveMessages loads the conversation file when one is given, otherwise
// builds a system + user conversation from the prompt inputs.
func resolveMessages(args []string, preset *presets.Preset) ([]chattemplate.Message, error) {
	if path := viper.GetString("messages_file"); path != "" {
		if len(args) > 0 || promptFileFlag != "" {
			log.Logger.Warn().Msg("Warning: Conversation file takes precedence. Prompt arguments and prompt file will be ignored.")
		}
		return conversation.Load(path)
	}

	prompt, err := getPromptContent(args, promptFileFlag)
	if err != nil {
		return nil, err
	}

	system := viper.GetString("system")
	if system == "" && preset != nil {
		return preset.Messages(prompt), nil
	}
	return conversation.FromPrompt(system, prompt), nil
}
