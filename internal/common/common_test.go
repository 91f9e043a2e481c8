package common

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/proforma/internal/service"
)

func TestFormatThousands(t *testing.T) {
	tests := []struct {
		v        float64
		decimals int
		want     string
	}{
		{0, 0, "0"},
		{999, 0, "999"},
		{1000, 0, "1,000"},
		{1250000, 0, "1,250,000"},
		{-4321.5, 2, "-4,321.50"},
		{-0.001, 2, "0.00"},
		{math.NaN(), 0, "0"},
		{math.Inf(1), 2, "0.00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatThousands(tt.v, tt.decimals))
	}

	assert.Equal(t, "$185,000", FormatMoney(185000))
	assert.Equal(t, "-$12.50", FormatMoneyCents(-12.5))
	assert.Equal(t, 83.33, RoundTo(1000.0/12, 2))
	assert.Equal(t, -0.12, RoundTo(-0.125, 2))
	assert.Equal(t, 0.13, RoundTo(0.125, 2))
	assert.Equal(t, -2.0, RoundTo(-2.5, 0))
}

func TestUserMessage(t *testing.T) {
	err := NewUserError("Sensitivity tables timed out, try again", ErrPollTimeout)
	wrapped := errors.Join(errors.New("poll"), err)

	assert.Equal(t, "Sensitivity tables timed out, try again", UserMessage(wrapped))
	assert.True(t, errors.Is(err, ErrPollTimeout))
	assert.Equal(t, "No data available", UserMessage(errors.New("boom")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ErrRemoteUnavailable))
	assert.True(t, IsRetryable(&RetryableError{Err: errors.New("x"), Retryable: true}))
	assert.False(t, IsRetryable(ErrInvalidPayload))
}

func TestWithRetry(t *testing.T) {
	opts := service.RetryOptions{MaxAttempts: 3, InitialDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		}, opts)
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("stops on non-retryable", func(t *testing.T) {
		calls := 0
		err := WithRetry(context.Background(), func() error {
			calls++
			return &RetryableError{Err: ErrInvalidPayload, Retryable: false}
		}, opts)
		require.Error(t, err)
		assert.Equal(t, 1, calls)
	})

	t.Run("exhausts attempts", func(t *testing.T) {
		err := WithRetry(context.Background(), func() error { return errors.New("down") }, opts)
		assert.ErrorIs(t, err, ErrMaxRetries)
	})
}

func TestNextDelay(t *testing.T) {
	opts := service.RetryOptions{Multiplier: 2, MaxDelay: 3 * time.Second}
	assert.Equal(t, 2*time.Second, NextDelay(time.Second, opts))
	assert.Equal(t, 3*time.Second, NextDelay(2*time.Second, opts))
	assert.Equal(t, time.Second, NextDelay(time.Second, service.RetryOptions{Multiplier: 1}))
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo, "json")
	logger.Debug("hidden")
	logger.Info("generated", "version_id", "v1")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"version_id":"v1"`)

	buf.Reset()
	NewLogger(&buf, slog.LevelDebug, "pretty").Debug("colored")
	assert.Contains(t, buf.String(), "colored")

	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestLogHelpers(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	slog.SetDefault(NewLogger(&buf, slog.LevelInfo, "json"))

	LogDebug("hidden", Fields{"version_id": "v1"})
	LogInfo("Pruned sensitivity cache", Fields{"removed": 2})
	LogError(ErrPollTimeout, "Sensitivity generation failed", Fields{"polls": 40})

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"removed":2`)
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"error":"`+ErrPollTimeout.Error()+`"`)
	assert.Contains(t, out, `"polls":40`)
}
