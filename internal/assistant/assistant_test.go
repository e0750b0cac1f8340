package assistant

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSignalsResolution(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"exact phrase", "Отлично, вопрос закрыт.", true},
		{"case insensitive", "ВОПРОС ЗАКРЫТ", true},
		{"embedded phrase", "Думаю, проблема решена, обращайтесь ещё.", true},
		{"hope phrase", "Надеюсь, это помогло вам.", true},
		{"no phrase", "Попробуйте перезагрузить устройство.", false},
		{"empty", "", false},
		// Literal substring semantics: a negated sentence still matches.
		{"negation still matches", "Нет, проблема решена не была.", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SignalsResolution(tt.text))
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	a := &Assistant{instructions: "Follow the manual."}
	got := a.buildPrompt("User: hi\nBot:")
	assert.Equal(t, "Follow the manual.\n\nQuestion: User: hi\nBot:\nAnswer:", got)
}

func TestRespondWithoutAPIKey(t *testing.T) {
	a := New("", "gpt-4o-mini", 100, 0.7, "", "", zap.NewNop())
	_, err := a.Respond(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLoadTextFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "system_prompt.txt")
	require.NoError(t, os.WriteFile(path, []byte("be helpful"), 0o644))

	assert.Equal(t, "be helpful", loadTextFile(path, zap.NewNop()))
}

func TestLoadTextFileMissingDegradesToEmpty(t *testing.T) {
	assert.Equal(t, "", loadTextFile("does-not-exist.txt", zap.NewNop()))
	assert.Equal(t, "", loadTextFile("", zap.NewNop()))
}

func TestNewLoadsPrompts(t *testing.T) {
	dir := t.TempDir()
	sysPath := filepath.Join(dir, "system.txt")
	instrPath := filepath.Join(dir, "instructions.md")
	require.NoError(t, os.WriteFile(sysPath, []byte("system"), 0o644))
	require.NoError(t, os.WriteFile(instrPath, []byte("instructions"), 0o644))

	a := New("key", "gpt-4o-mini", 100, 0.7, sysPath, instrPath, zap.NewNop())
	assert.Equal(t, "system", a.systemPrompt)
	assert.Equal(t, "instructions", a.instructions)
}
