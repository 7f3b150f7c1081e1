package health

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func TestStatus(t *testing.T) {
	out, ok := NewService(nil).Status(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "memory", out["database"])

	out, ok = NewService(pingFunc(func(context.Context) error { return nil })).Status(context.Background())
	assert.True(t, ok)
	assert.Equal(t, "ok", out["database"])

	out, ok = NewService(pingFunc(func(context.Context) error { return errors.New("down") })).Status(context.Background())
	assert.False(t, ok)
	assert.Equal(t, false, out["ok"])
}
