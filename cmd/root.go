package cmd

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/flacial/chattmpl/internal/chattemplate"
	"github.com/flacial/chattmpl/internal/clipboard"
	"github.com/flacial/chattmpl/internal/hub"
	"github.com/flacial/chattmpl/internal/log"
	"github.com/flacial/chattmpl/internal/presets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/net/context"
)

const appName = "chattmpl"

// Flags
var cfgFile string
var verboseFlag bool
var logFileFlag string
var debugMode bool
var templateFileFlag string
var tokenizerConfigFlag string
var hfRepoFlag string
var hfRevisionFlag string
var templateNameFlag string
var presetFlag string
var messagesFileFlag string
var systemFlag string
var promptFileFlag string
var strictFlag bool
var copyToClipboardFlag bool

// Package-level so tests can swap them out.
var httpClient hub.HTTPClient = &http.Client{
	Timeout: hub.DefaultTimeout,
}
var copyToClipboard = clipboard.Copy

var rootCmd = &cobra.Command{
	Use:   "chattmpl [prompt] [flag]",
	Short: "Render Hugging Face chat templates from your terminal",
	Long: `chattmpl assembles a model prompt from chat messages using the model's chat_template.

The template comes from a file, a tokenizer_config.json, a Hugging Face repository or a
named preset. Messages come from a conversation file or from a system message plus the
prompt given as arguments, stdin or a prompt file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		log.Logger.Info().Msg("Starting chattmpl")

		ctx, cancel := context.WithCancel(context.Background())
		// Cancels an in-flight hub download on exit or interrupt
		defer cancel()

		signalChannel := make(chan os.Signal, 1)
		signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(signalChannel)

		go func() {
			select {
			case <-signalChannel:
				log.Logger.Info().Msg("Interrupted. Cancelling...")
				cancel()
			case <-ctx.Done():
			}
		}()

		source, err := resolveTemplate(ctx)
		if err != nil {
			log.Logger.Error().Err(err).Msg("Failed to load chat template")
			return err
		}

		messages, err := resolveMessages(args, source.preset)
		if err != nil {
			log.Logger.Error().Err(err).Msg("Failed to build messages")
			return err
		}

		log.Logger.Info().
			Str("template_source", source.origin).
			Int("messages", len(messages)).
			Msg("Rendering chat template.")

		tmpl := chattemplate.Parse(source.text)

		var rendered string
		if viper.GetBool("strict") {
			rendered, err = tmpl.RenderStrict(messages)
			if err != nil {
				logDiagnostics(err)
				return err
			}
		} else {
			rendered = tmpl.Render(messages)
		}

		fmt.Fprint(cmd.OutOrStdout(), rendered)

		if viper.GetBool("always_copy") {
			log.Logger.Info().Msg("Copying to clipboard...")
			if err := copyToClipboard(rendered); err != nil {
				log.Logger.Warn().Err(err).Msg("Error copying to clipboard")
			}
		}

		return nil
	},
	Args: func(cmd *cobra.Command, args []string) error {
		return nil // Allow arbitrary arguments
	},
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func logDiagnostics(err error) {
	var strictErr *chattemplate.StrictError
	if !errors.As(err, &strictErr) {
		return
	}
	for _, d := range strictErr.Diagnostics {
		log.Logger.Error().
			Str("diagnostic", d.Kind.String()).
			Int("line", d.Line).
			Int("column", d.Column).
			Str("text", d.Text).
			Msg("Template needs a fail-soft fallback.")
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	cobra.OnInitialize(func() {
		log.Init(viper.GetBool("verbose"), viper.GetBool("debug_mode"), viper.GetString("log_file"))
	})
	cobra.OnInitialize(initPresets)

	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable verbose output for debugging information.")
	rootCmd.PersistentFlags().StringVar(&logFileFlag, "log-file", "", "Path to the log file (default: $XDG_STATE_HOME/chattmpl/chattmpl.log).")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging level (overrides --verbose).")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log_file", rootCmd.PersistentFlags().Lookup("log-file"))
	viper.BindPFlag("debug_mode", rootCmd.PersistentFlags().Lookup("debug"))

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/chattmpl/config.yaml)")

	// Template source, in order of precedence
	rootCmd.PersistentFlags().StringVarP(&templateFileFlag, "template-file", "t", "", "Path to a file holding the raw chat template")
	viper.BindPFlag("template_file", rootCmd.PersistentFlags().Lookup("template-file"))

	rootCmd.PersistentFlags().StringVarP(&tokenizerConfigFlag, "tokenizer-config", "T", "", "Path to a tokenizer_config.json to take chat_template from")
	viper.BindPFlag("tokenizer_config", rootCmd.PersistentFlags().Lookup("tokenizer-config"))

	rootCmd.PersistentFlags().StringVar(&hfRepoFlag, "hf-repo", "", "Hugging Face repository id (owner/name) to download tokenizer_config.json from")
	viper.BindPFlag("hf_repo", rootCmd.PersistentFlags().Lookup("hf-repo"))

	rootCmd.PersistentFlags().StringVar(&hfRevisionFlag, "hf-revision", "", "Branch, tag or commit of --hf-repo (default: main)")
	viper.BindPFlag("hf_revision", rootCmd.PersistentFlags().Lookup("hf-revision"))

	rootCmd.PersistentFlags().StringVar(&templateNameFlag, "template-name", "", "Named template to pick when chat_template is a list (default: default)")
	viper.BindPFlag("template_name", rootCmd.PersistentFlags().Lookup("template-name"))

	rootCmd.PersistentFlags().StringVarP(&presetFlag, "preset", "p", "", "Preset to use when no other template source is given (e.g., chatml, zephyr, plain)")
	viper.BindPFlag("preset", rootCmd.PersistentFlags().Lookup("preset"))

	// Messages
	rootCmd.Flags().StringVarP(&messagesFileFlag, "messages", "m", "", "Conversation file (YAML, JSON or TOML) with the messages to render")
	viper.BindPFlag("messages_file", rootCmd.Flags().Lookup("messages"))

	rootCmd.Flags().StringVarP(&systemFlag, "system", "S", "", "System message placed before the prompt (overrides the preset's)")
	viper.BindPFlag("system", rootCmd.Flags().Lookup("system"))

	rootCmd.Flags().StringVarP(&promptFileFlag, "prompt-file", "f", "", "Path to a file containing the prompt")

	rootCmd.Flags().BoolVar(&strictFlag, "strict", false, "Fail instead of emitting malformed template parts literally")
	viper.BindPFlag("strict", rootCmd.Flags().Lookup("strict"))

	rootCmd.Flags().BoolVarP(&copyToClipboardFlag, "copy", "c", false, "Copy the rendered prompt to the clipboard")
	viper.BindPFlag("always_copy", rootCmd.Flags().Lookup("copy"))
}

// configDefaults are the keys written to a freshly created config file.
var configDefaults = map[string]any{
	"preset":        "chatml",
	"presets_dir":   "",
	"strict":        false,
	"always_copy":   false,
	"always_format": false,
	"hf_endpoint":   hub.DefaultEndpoint,
	"hf_revision":   hub.DefaultRevision,
	"template_name": "",
	"verbose":       false,
	"debug_mode":    false,
	"log_file":      "",
}

func configHome() string {
	xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfigHome == "" {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		xdgConfigHome = filepath.Join(home, ".config")
	}
	return filepath.Join(xdgConfigHome, appName)
}

func initConfig() {
	configPath := cfgFile
	if configPath == "" {
		configPath = filepath.Join(configHome(), "config.yaml")
	}

	viper.SetConfigFile(configPath)
	viper.SetConfigType("yaml")

	// Any variables starting with CHATTMPL_* are captured for the cli
	viper.SetEnvPrefix("CHATTMPL")
	viper.AutomaticEnv()
	viper.BindEnv("hf_token", "CHATTMPL_HF_TOKEN", "HF_TOKEN")

	for key, value := range configDefaults {
		viper.SetDefault(key, value)
	}

	err := viper.ReadInConfig()
	if err == nil {
		log.Logger.Info().Str("config_file", viper.ConfigFileUsed()).Msg("Using config file.")
		return
	}

	var notFound viper.ConfigFileNotFoundError
	if !errors.Is(err, os.ErrNotExist) && !errors.As(err, &notFound) {
		// Some unknown system error
		log.Logger.Error().Err(err).Msg("Error reading config file.")
		os.Exit(1)
	}

	log.Logger.Info().Str("config_path", configPath).Msg("Config file not found. Creating a new one with defaults...")
	if err := writeDefaultConfig(configPath); err != nil {
		log.Logger.Error().Err(err).Str("config_path", configPath).Msg("Error creating default config file.")
		return
	}
	log.Logger.Info().Str("config_path", configPath).Msg("Default config file created.")
}

// writeDefaultConfig writes only configDefaults, never values that came from
// flags or the environment of this run.
func writeDefaultConfig(configPath string) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	defaults := viper.New()
	for key, value := range configDefaults {
		defaults.Set(key, value)
	}
	return defaults.SafeWriteConfigAs(configPath)
}

func presetsDir() string {
	if dir := viper.GetString("presets_dir"); dir != "" {
		return dir
	}
	return filepath.Join(configHome(), "presets")
}

func initPresets() {
	if _, err := presets.InitDefaults(presetsDir()); err != nil {
		log.Logger.Error().Err(err).Str("path", presetsDir()).Msg("Failed to initialize default presets.")
	}
}
