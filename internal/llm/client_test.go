package llm

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestClassifyGenerateError_QuotaExceeded(t *testing.T) {
	apiErr := &googleapi.Error{Code: 429, Message: "quota exceeded"}

	err := classifyGenerateError(apiErr)

	var rle *RateLimitError
	assert.ErrorAs(t, err, &rle)
	assert.True(t, rle.ResetAt.After(time.Now()))
	assert.ErrorIs(t, err, apiErr)
}

func TestClassifyGenerateError_HonorsRetryAfter(t *testing.T) {
	apiErr := &googleapi.Error{
		Code:   429,
		Header: http.Header{"Retry-After": []string{"300"}},
	}

	err := classifyGenerateError(apiErr)

	var rle *RateLimitError
	assert.ErrorAs(t, err, &rle)
	// Roughly five minutes out, well past the default backoff.
	assert.True(t, rle.ResetAt.After(time.Now().Add(4*time.Minute)))
}

func TestClassifyGenerateError_OtherErrorsPassThrough(t *testing.T) {
	cause := fmt.Errorf("connection reset")

	err := classifyGenerateError(cause)

	var rle *RateLimitError
	assert.False(t, errors.As(err, &rle))
	assert.ErrorIs(t, err, cause)
}

func TestConfig_GetModelFallbackChain(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "gemini-2.5-flash-lite", cfg.GetModel(TierLite))
	assert.Equal(t, "gemini-2.5-flash", cfg.GetModel(TierStandard))

	partial := &Config{Models: map[ModelTier]string{TierStandard: "only-standard"}}
	assert.Equal(t, "only-standard", partial.GetModel(TierLite))

	empty := &Config{}
	assert.Equal(t, "", empty.GetModel(TierLite))
}
