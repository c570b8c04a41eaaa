package bus

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingCommand struct {
	Name string
}

func (c pingCommand) Validate() error {
	if c.Name == "" {
		return errors.New("name required")
	}
	return nil
}

type recordingLogger struct {
	infos  []string
	errors []string
}

func (l *recordingLogger) Info(msg string, _ ...interface{})  { l.infos = append(l.infos, msg) }
func (l *recordingLogger) Error(msg string, _ ...interface{}) { l.errors = append(l.errors, msg) }

func TestCommandBus_Send(t *testing.T) {
	t.Run("dispatches to the registered handler", func(t *testing.T) {
		b := NewCommandBus()
		require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
			return "pong " + cmd.(pingCommand).Name, nil
		})))

		result, err := b.Send(context.Background(), pingCommand{Name: "a"})

		require.NoError(t, err)
		assert.Equal(t, "pong a", result)
	})

	t.Run("unknown command", func(t *testing.T) {
		b := NewCommandBus()

		_, err := b.Send(context.Background(), pingCommand{Name: "a"})

		assert.ErrorIs(t, err, ErrHandlerNotFound)
	})

	t.Run("duplicate registration", func(t *testing.T) {
		b := NewCommandBus()
		h := CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) { return nil, nil })
		require.NoError(t, b.Register(pingCommand{}, h))

		assert.Error(t, b.Register(pingCommand{}, h))
	})
}

func TestCommandBus_Middleware(t *testing.T) {
	logger := &recordingLogger{}
	b := NewCommandBus(LoggingMiddleware(logger), ValidationMiddleware())
	calls := 0
	require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
		calls++
		if cmd.(pingCommand).Name == "fail" {
			return nil, fmt.Errorf("boom")
		}
		return nil, nil
	})))

	_, err := b.Send(context.Background(), pingCommand{})
	assert.ErrorIs(t, err, ErrValidationFailed)
	assert.Equal(t, 0, calls)

	_, err = b.Send(context.Background(), pingCommand{Name: "ok"})
	assert.NoError(t, err)

	_, err = b.Send(context.Background(), pingCommand{Name: "fail"})
	assert.EqualError(t, err, "boom")

	assert.Equal(t, 2, calls)
	assert.Equal(t, []string{"Command failed", "Command failed"}, logger.errors)
	assert.Equal(t, []string{"Executing command", "Executing command", "Command succeeded", "Executing command"}, logger.infos)
}
