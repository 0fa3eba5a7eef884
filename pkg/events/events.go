// Package events publishes and consumes JSON notifications over SQS.
package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

const (
	// TopicSchemaRetry receives payloads whose export could not be loaded
	// with either the detected or the existing schema.
	TopicSchemaRetry = "schema-retry"
	// TopicTableCreated receives the raw table id and its column mapping
	// once an export has been loaded.
	TopicTableCreated = "table-created"
	// TopicInventory receives scheduled inventory refresh requests.
	TopicInventory = "inventory"
)

// Message is an outbound notification.
type Message struct {
	Body []byte
	// Delay postpones delivery, for transports that support it.
	Delay time.Duration
}

// Publisher sends a message to a named topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, msg Message) error
}

// Handler processes one inbound message body.
type Handler func(ctx context.Context, body []byte) error

// PermanentError marks a failure that redelivery cannot fix.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent wraps err so consumers acknowledge the message instead of
// leaving it for redelivery.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

func IsPermanent(err error) bool {
	var perr *PermanentError
	return errors.As(err, &perr)
}

type envelope struct {
	Data *struct {
		Message json.RawMessage `json:"message"`
	} `json:"data"`
}

// Unwrap returns the notification payload, accepting either a bare JSON
// object or one nested as {"data":{"message":{...}}}.
func Unwrap(body []byte) (json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, fmt.Errorf("event body is not a JSON object")
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("unable to decode event body: %v", err)
	}
	if env.Data != nil && len(env.Data.Message) != 0 && !bytes.Equal(env.Data.Message, []byte("null")) {
		return env.Data.Message, nil
	}
	return json.RawMessage(body), nil
}

// Decode unwraps body and unmarshals the payload into v.
func Decode(body []byte, v interface{}) (json.RawMessage, error) {
	payload, err := Unwrap(body)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return nil, fmt.Errorf("unable to decode event payload: %v", err)
	}
	return payload, nil
}

// PublishJSON marshals v and publishes it to topic.
func PublishJSON(ctx context.Context, publisher Publisher, topic string, v interface{}, delay time.Duration) error {
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("unable to encode %s event: %v", topic, err)
	}
	return publisher.Publish(ctx, topic, Message{Body: body, Delay: delay})
}
