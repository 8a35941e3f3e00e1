package llm

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type flakyClient struct {
	errs  []error
	calls int
}

func (f *flakyClient) Complete(context.Context, []Message) (string, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return "", f.errs[i]
	}
	return "- ok", nil
}

func TestRetryingRecoversFromTransientError(t *testing.T) {
	base := &flakyClient{errs: []error{errors.New("openai http status 503: overloaded")}}
	c := Retrying{Base: base, Delay: time.Millisecond}

	out, err := c.Complete(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "- ok", out)
	assert.Equal(t, 2, base.calls)
}

func TestRetryingDoesNotRetryClientErrors(t *testing.T) {
	base := &flakyClient{errs: []error{errors.New("openai http status 400: bad request")}}
	c := Retrying{Base: base, Delay: time.Millisecond}

	_, err := c.Complete(context.Background(), nil)
	assert.Error(t, err)
	assert.Equal(t, 1, base.calls)
}

func TestRetryingStopsOnCancel(t *testing.T) {
	base := &flakyClient{errs: []error{errors.New("connection reset by peer")}}
	c := Retrying{Base: base, Delay: time.Hour}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Complete(ctx, nil)
	assert.Error(t, err)
	assert.Equal(t, 1, base.calls)
}

func TestShouldRetry(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrNotConfigured, false},
		{context.DeadlineExceeded, true},
		{fmt.Errorf("openai request timeout: %w", context.DeadlineExceeded), true},
		{errors.New("openai http status 429: slow down"), true},
		{errors.New("openai http status 401: bad key"), false},
		{errors.New("unexpected EOF"), true},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ShouldRetry(tc.err), "%v", tc.err)
	}
}

func TestWithRetryNil(t *testing.T) {
	assert.Nil(t, WithRetry(nil))
}
