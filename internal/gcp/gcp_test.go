package gcp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"google.golang.org/api/googleapi"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("PDF2WORD_TEST_SET", "value")
	t.Setenv("PDF2WORD_TEST_EMPTY", "")

	assert.Equal(t, "value", GetEnv("PDF2WORD_TEST_SET", "fallback"))
	assert.Equal(t, "", GetEnv("PDF2WORD_TEST_EMPTY", "fallback"))
	assert.Equal(t, "fallback", GetEnv("PDF2WORD_TEST_UNSET", "fallback"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("PDF2WORD_TEST_NUM", "12")
	t.Setenv("PDF2WORD_TEST_BAD", "twelve")

	assert.Equal(t, 12, GetEnvInt("PDF2WORD_TEST_NUM", 64))
	assert.Equal(t, 64, GetEnvInt("PDF2WORD_TEST_BAD", 64))
	assert.Equal(t, 64, GetEnvInt("PDF2WORD_TEST_UNSET", 64))
}

func TestRetry(t *testing.T) {
	policy := RetryPolicy{Attempts: 4, Backoff: time.Millisecond}

	t.Run("succeeds after failures", func(t *testing.T) {
		calls := 0
		err := Retry(context.Background(), policy, "op", func(context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})
		assert.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after all attempts", func(t *testing.T) {
		boom := errors.New("permanent")
		calls := 0
		err := Retry(context.Background(), policy, "op", func(context.Context) error {
			calls++
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 4, calls)
	})

	t.Run("stops when the context ends", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		calls := 0
		err := Retry(ctx, RetryPolicy{Attempts: 4, Backoff: time.Hour}, "op", func(context.Context) error {
			calls++
			cancel()
			return errors.New("transient")
		})
		assert.ErrorIs(t, err, context.Canceled)
		assert.Equal(t, 1, calls)
	})
}

func TestIsPreconditionFailed(t *testing.T) {
	assert.True(t, IsPreconditionFailed(&googleapi.Error{Code: http.StatusPreconditionFailed}))
	assert.True(t, IsPreconditionFailed(fmt.Errorf("wrapped: %w", &googleapi.Error{Code: http.StatusPreconditionFailed})))
	assert.False(t, IsPreconditionFailed(&googleapi.Error{Code: http.StatusNotFound}))
	assert.False(t, IsPreconditionFailed(errors.New("plain")))
}
