package mock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/poiesic/docsift/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockGenerator_Default(t *testing.T) {
	m := NewMockGenerator()
	got, err := m.Generate(context.Background(), ai.Request{Instruction: "q"})
	require.NoError(t, err)
	assert.Equal(t, DefaultReply, got)
	assert.Equal(t, 1, m.CallCount())
	assert.Equal(t, "q", m.Requests()[0].Instruction)
}

func TestMockGenerator_CustomAndReset(t *testing.T) {
	boom := errors.New("boom")
	m := NewMockGenerator().WithGenerateFunc(func(ctx context.Context, req ai.Request) (string, error) {
		return "", boom
	})
	_, err := m.Generate(context.Background(), ai.Request{})
	assert.ErrorIs(t, err, boom)

	m.Reset()
	assert.Equal(t, 0, m.CallCount())
	got, err := m.Generate(context.Background(), ai.Request{})
	require.NoError(t, err)
	assert.Equal(t, DefaultReply, got)
}

func TestMockGenerator_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMockGenerator().Generate(ctx, ai.Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockGenerator_Concurrent(t *testing.T) {
	m := NewMockGenerator()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Generate(context.Background(), ai.Request{})
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, m.CallCount())
	require.NoError(t, m.Close())
	assert.True(t, m.Closed())
}
