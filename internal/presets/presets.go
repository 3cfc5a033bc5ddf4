package presets

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/flacial/chattmpl/internal/chattemplate"
	"github.com/flacial/chattmpl/internal/conversation"
	"github.com/flacial/chattmpl/internal/log"
	"gopkg.in/yaml.v3"
)

// FileSuffix is the extension of preset files in a presets directory.
const FileSuffix = ".tmpl.yaml"

//go:embed defaults/*.tmpl.yaml
var defaultPresets embed.FS

var ErrNotFound = errors.New("preset not found")

// Preset is a named chat template plus an optional default system message.
type Preset struct {
	Name          string `yaml:"name"`
	Description   string `yaml:"description"`
	SystemMessage string `yaml:"system_message,omitempty"`
	ChatTemplate  string `yaml:"chat_template"`

	// Path is the file the preset was read from.
	Path string `yaml:"-"`
}

// Parse decodes a preset file.
func Parse(data []byte) (*Preset, error) {
	var p Preset
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("error unmarshalling preset, check YAML syntax: %w", err)
	}
	if p.ChatTemplate == "" {
		return nil, errors.New("preset has no chat_template")
	}
	return &p, nil
}

// Messages builds the conversation for a single user prompt, led by the
// preset's system message when it has one.
func (p *Preset) Messages(userPrompt string) []chattemplate.Message {
	return conversation.FromPrompt(p.SystemMessage, userPrompt)
}

// Load reads preset name from dir.
func Load(dir, name string) (*Preset, error) {
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("invalid preset name %q", name)
	}

	path := filepath.Join(dir, name+FileSuffix)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("error reading preset file %q: %w", path, err)
	}

	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("preset %q: %w", path, err)
	}
	if p.Name == "" {
		p.Name = name
	}
	p.Path = path
	return p, nil
}

// List reads every preset in dir, sorted by name. Files that fail to parse
// are logged and skipped.
func List(dir string) ([]*Preset, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("error reading presets directory %q: %w", dir, err)
	}

	var out []*Preset
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), FileSuffix) {
			continue
		}
		p, err := Load(dir, strings.TrimSuffix(entry.Name(), FileSuffix))
		if err != nil {
			log.Logger.Warn().Err(err).Str("file", entry.Name()).Msg("Skipping unreadable preset.")
			continue
		}
		out = append(out, p)
	}

	slices.SortFunc(out, func(a, b *Preset) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// InitDefaults seeds dir with the built-in presets unless it already holds
// preset files. It reports whether anything was written.
func InitDefaults(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("failed to read presets directory %q: %w", dir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), FileSuffix) {
			log.Logger.Debug().Str("path", dir).Msg("Presets already present. Skipping auto-initialization.")
			return false, nil
		}
	}

	log.Logger.Info().Str("path", dir).Msg("Presets directory is empty or missing. Initializing with default presets...")

	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create presets directory %q: %w", dir, err)
	}

	err = fs.WalkDir(defaultPresets, "defaults", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		destPath := filepath.Join(dir, d.Name())
		if err := copyEmbedded(path, destPath); err != nil {
			return err
		}

		log.Logger.Debug().Str("preset", d.Name()).Str("dest", destPath).Msg("Copied default preset.")
		return nil
	})
	if err != nil {
		return false, err
	}

	log.Logger.Info().Msg("Default presets initialized successfully.")
	return true, nil
}

// Default returns a built-in preset without touching the filesystem.
func Default(name string) (*Preset, error) {
	data, err := defaultPresets.ReadFile("defaults/" + name + FileSuffix)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return Parse(data)
}

func copyEmbedded(src, dest string) error {
	sourceFile, err := defaultPresets.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open embedded preset %q: %w", src, err)
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create preset file %q: %w", dest, err)
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return fmt.Errorf("failed to copy embedded preset %q to %q: %w", src, dest, err)
	}
	return nil
}
