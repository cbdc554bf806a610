package redisq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/poiesic/docsift/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	event := core.UploadEvent{FilePath: "/tmp/a.txt", OriginalName: "a.txt", Role: "analyst"}
	task, err := NewTask(event, 0)
	require.NoError(t, err)
	assert.Equal(t, TaskDocumentUploaded, task.Type())

	var decoded core.UploadEvent
	require.NoError(t, json.Unmarshal(task.Payload(), &decoded))
	assert.Equal(t, event, decoded)

	_, err = NewTask(core.UploadEvent{OriginalName: "a.txt"}, 0)
	assert.ErrorIs(t, err, core.ErrInvalidUploadEvent)
}

func TestTaskHandler(t *testing.T) {
	var got core.UploadEvent
	handler := taskHandler(func(ctx context.Context, e core.UploadEvent) error {
		got = e
		if e.OriginalName == "fail.txt" {
			return errors.New("read failed")
		}
		return nil
	})

	t.Run("legacy role key", func(t *testing.T) {
		payload := []byte(`{"file_path": "/tmp/a.txt", "original_name": "a.txt", "role_required": "finance"}`)
		require.NoError(t, handler(context.Background(), asynq.NewTask(TaskDocumentUploaded, payload)))
		assert.Equal(t, "finance", got.Role)
	})

	t.Run("handler error is returned", func(t *testing.T) {
		payload := []byte(`{"file_path": "/tmp/f", "original_name": "fail.txt", "role": "finance"}`)
		err := handler(context.Background(), asynq.NewTask(TaskDocumentUploaded, payload))
		assert.Error(t, err)
		assert.NotErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("malformed payload is skipped", func(t *testing.T) {
		err := handler(context.Background(), asynq.NewTask(TaskDocumentUploaded, []byte("{not json")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("invalid event is skipped", func(t *testing.T) {
		err := handler(context.Background(), asynq.NewTask(TaskDocumentUploaded, []byte(`{"file_path": "/tmp/x"}`)))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}
