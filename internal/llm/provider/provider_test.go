package provider

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/certificates-processor/internal/common"
	"github.com/joseph-ayodele/certificates-processor/internal/llm/gemini"
)

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New("mistral", common.LLMConfig{}, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Equal(t, common.CodeConfig, common.ErrorCode(err))
}

func TestBuild(t *testing.T) {
	s, err := Build(common.LLMConfig{
		Provider:    "OpenAI",
		Fallbacks:   []string{"gemini", "openai", "anthropic", ""},
		MinInterval: 10 * time.Millisecond,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"openai", "gemini", "anthropic"}, s.Names)
	require.Len(t, s.closers, 1)
	assert.IsType(t, &gemini.Client{}, s.closers[0])
	assert.NoError(t, s.Close(), "unopened gemini client closes cleanly")
}

func TestBuild_Errors(t *testing.T) {
	_, err := Build(common.LLMConfig{}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)

	_, err = Build(common.LLMConfig{Provider: "openai", Fallbacks: []string{"bogus"}}, nil)
	assert.ErrorIs(t, err, common.ErrInvalidInput)
}
