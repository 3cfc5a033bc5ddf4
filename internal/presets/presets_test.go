package presets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/flacial/chattmpl/internal/chattemplate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPresetsRenderCleanly(t *testing.T) {
	for _, name := range []string{"chatml", "zephyr", "plain"} {
		t.Run(name, func(t *testing.T) {
			p, err := Default(name)
			require.NoError(t, err)
			assert.Equal(t, name, p.Name)

			out, err := chattemplate.RenderStrict(p.ChatTemplate, p.Messages("Hello!"))
			require.NoError(t, err)
			assert.Contains(t, out, "Hello!")
		})
	}
}

func TestChatMLPreset(t *testing.T) {
	p, err := Default("chatml")
	require.NoError(t, err)

	got := chattemplate.Render(p.ChatTemplate, p.Messages("Hi"))
	want := "<|im_start|>system\nYou are a helpful assistant.<|im_end|>\n" +
		"<|im_start|>user\nHi<|im_end|>\n" +
		"<|im_start|>assistant\n"
	assert.Equal(t, want, got)
}

func TestMessagesWithoutSystem(t *testing.T) {
	p := &Preset{ChatTemplate: "x"}
	assert.Equal(t, []chattemplate.Message{{Role: "user", Content: "q"}}, p.Messages("q"))
}

func TestInitDefaultsAndList(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "presets")

	wrote, err := InitDefaults(dir)
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = InitDefaults(dir)
	require.NoError(t, err)
	assert.False(t, wrote, "second init must not overwrite user presets")

	list, err := List(dir)
	require.NoError(t, err)
	var names []string
	for _, p := range list {
		names = append(names, p.Name)
		assert.Equal(t, filepath.Join(dir, p.Name+FileSuffix), p.Path)
	}
	assert.Equal(t, []string{"chatml", "plain", "zephyr"}, names)
}

func TestInitDefaultsKeepsCustomPresets(t *testing.T) {
	dir := t.TempDir()
	custom := "chat_template: \"{{ message.role }}\"\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mine"+FileSuffix), []byte(custom), 0644))

	wrote, err := InitDefaults(dir)
	require.NoError(t, err)
	assert.False(t, wrote)

	p, err := Load(dir, "mine")
	require.NoError(t, err)
	assert.Equal(t, "mine", p.Name)
	assert.Equal(t, "{{ message.role }}", p.ChatTemplate)
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Load(dir, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	_, err = Load(dir, "../escape")
	require.Error(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "empty"+FileSuffix), []byte("name: empty\n"), 0644))
	_, err = Load(dir, "empty")
	require.ErrorContains(t, err, "no chat_template")

	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken"+FileSuffix), []byte("chat_template: [\n"), 0644))
	_, err = Load(dir, "broken")
	require.ErrorContains(t, err, "YAML")
}

func TestListSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ok"+FileSuffix), []byte("chat_template: x\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad"+FileSuffix), []byte("name: bad\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	list, err := List(dir)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "ok", list[0].Name)

	list, err = List(filepath.Join(dir, "absent"))
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestDefaultUnknown(t *testing.T) {
	_, err := Default("nope")
	require.ErrorIs(t, err, ErrNotFound)
}
