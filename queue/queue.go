// Package queue delivers upload events to ingestion workers.
//
// Local runs handlers on an in-process worker pool. The redisq sub-package
// carries the same events through Redis so that uploads and workers can live
// in different processes.
package queue

import (
	"context"
	"errors"

	"github.com/poiesic/docsift/core"
)

// TopicDocUploaded is the topic upload events are published on.
const TopicDocUploaded = "doc_uploaded"

var (
	// ErrUnknownTopic is returned when subscribing to a topic other than
	// TopicDocUploaded.
	ErrUnknownTopic = errors.New("unknown topic")

	// ErrNoSubscribers is returned when an event is published with no handler
	// registered.
	ErrNoSubscribers = errors.New("no subscribers")

	// ErrClosed is returned by operations on a closed queue.
	ErrClosed = errors.New("queue closed")
)

// Event is the message carried on TopicDocUploaded.
type Event = core.UploadEvent

// Handler consumes one event. A returned error marks the delivery failed;
// events are not redelivered.
type Handler func(ctx context.Context, event core.UploadEvent) error

// Publisher sends upload events to TopicDocUploaded.
type Publisher interface {
	Publish(ctx context.Context, event core.UploadEvent) error
}

// Subscriber registers handlers for a topic.
type Subscriber interface {
	Subscribe(topic string, handler Handler) error
	Close() error
}
