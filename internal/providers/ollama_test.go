package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOllamaOptions_OmitsZeroFields(t *testing.T) {
	opts := ollamaOptions(&CompletionRequest{})
	assert.Empty(t, opts)
}

func TestOllamaOptions_TranslatesDeviceHints(t *testing.T) {
	req := &CompletionRequest{
		MaxTokens:     512,
		ContextWindow: 8192,
		NumThreads:    8,
		NumGPULayers:  35,
		BatchSize:     256,
	}
	opts := ollamaOptions(req)
	assert.Equal(t, 512, opts["num_predict"])
	assert.Equal(t, 8192, opts["num_ctx"])
	assert.Equal(t, 8, opts["num_thread"])
	assert.Equal(t, 35, opts["num_gpu"])
	assert.Equal(t, 256, opts["num_batch"])
}

func TestOllamaOptions_PartialHintsOnlyIncludeSetFields(t *testing.T) {
	opts := ollamaOptions(&CompletionRequest{ContextWindow: 2048})
	assert.Equal(t, map[string]any{"num_ctx": 2048}, opts)
}
