package deepseek

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ncecere/completion-sdk/provider"
)

func TestLiveCompletion(t *testing.T) {
	if os.Getenv("DEEPSEEK_API_KEY") == "" {
		t.Skip("DEEPSEEK_API_KEY not set")
	}

	client, err := NewClient(Options{})
	require.NoError(t, err)
	model := client.CompletionModel(DeepSeekChat)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	res, err := model.Completion(ctx, &provider.CompletionRequest{
		Prompt:      "Hello, who are you?",
		MaxTokens:   intPtr(50),
		Temperature: float64Ptr(0.5),
	})
	require.NoError(t, err)

	require.Equal(t, provider.ChoiceMessage, res.Choice.Kind, "unexpected response choice")
	assert.NotEmpty(t, res.Choice.Text)
}
