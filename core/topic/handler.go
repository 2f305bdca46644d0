package topic

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Handler receives payloads delivered to a topic.
type Handler interface {
	Handle(ctx context.Context, payload any, meta Meta) error
}

// HandlerFunc adapts an ordinary function to the Handler interface.
type HandlerFunc func(ctx context.Context, payload any, meta Meta) error

// Handle calls f(ctx, payload, meta).
func (f HandlerFunc) Handle(ctx context.Context, payload any, meta Meta) error {
	return f(ctx, payload, meta)
}

// Subscriber is the registration token for a Handler.
//
// Topics compare subscribers by pointer identity: registering the same
// *Subscriber twice creates two independent entries, and Unsubscribe removes
// every entry holding that pointer.
type Subscriber struct {
	id      uuid.UUID
	name    string
	handler Handler
}

// NewSubscriber wraps a handler into a subscription token.
// An empty name falls back to the generated ID in logs and errors.
//
// Example:
//
//	audit := topic.NewSubscriber("audit", topic.HandlerFunc(func(ctx context.Context, p any, m topic.Meta) error {
//	    return store.Append(ctx, m.Origin, p)
//	}))
//	root.Resolve("orders").Subscribe(audit)
func NewSubscriber(name string, h Handler) *Subscriber {
	if h == nil {
		return nil
	}
	return &Subscriber{
		id:      uuid.New(),
		name:    name,
		handler: h,
	}
}

// Func is shorthand for NewSubscriber("", fn).
func Func(fn HandlerFunc) *Subscriber {
	if fn == nil {
		return nil
	}
	return NewSubscriber("", fn)
}

// ID returns the identifier generated for the subscriber.
func (s *Subscriber) ID() uuid.UUID {
	return s.id
}

func (s *Subscriber) usable() bool {
	return s != nil && s.handler != nil
}

// Name returns the subscriber name, or its ID when no name was given.
func (s *Subscriber) Name() string {
	if s.name != "" {
		return s.name
	}
	return s.id.String()
}

// Typed adapts a function expecting a concrete payload type.
//
// Payloads already of type T are passed through. []byte and map[string]any
// payloads are decoded as JSON into T. Anything else fails with ErrUnexpectedPayload.
//
// Example:
//
//	root.Resolve("users.created").Subscribe(topic.Func(topic.Typed(
//	    func(ctx context.Context, u UserCreated, m topic.Meta) error {
//	        return mailer.Welcome(ctx, u.Email)
//	    },
//	)))
func Typed[T any](fn func(ctx context.Context, payload T, meta Meta) error) HandlerFunc {
	return func(ctx context.Context, payload any, meta Meta) error {
		typed, err := unmarshalPayload[T](payload)
		if err != nil {
			return err
		}
		return fn(ctx, typed, meta)
	}
}

func unmarshalPayload[T any](payload any) (T, error) {
	var zero T

	if v, ok := payload.(T); ok {
		return v, nil
	}

	if data, ok := payload.([]byte); ok {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return zero, fmt.Errorf("failed to unmarshal payload: %w", err)
		}
		return v, nil
	}

	// Payloads decoded from JSON into `any` arrive as maps.
	if m, ok := payload.(map[string]any); ok {
		data, err := json.Marshal(m)
		if err != nil {
			return zero, fmt.Errorf("failed to marshal map payload: %w", err)
		}
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return zero, fmt.Errorf("failed to unmarshal map payload: %w", err)
		}
		return v, nil
	}

	return zero, fmt.Errorf("%w: %T", ErrUnexpectedPayload, payload)
}
