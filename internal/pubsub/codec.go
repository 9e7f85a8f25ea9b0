package pubsub

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/eigenhq/slowking/internal/domain"
)

// Envelope is the wire form of a message: a tracing id, the channel it was
// sent on, and the marshaled message payload.
type Envelope struct {
	ID      string          `json:"id"`
	Channel string          `json:"channel"`
	SentAt  time.Time       `json:"sent_at"`
	Payload json.RawMessage `json:"payload"`
}

// Encode wraps msg in an Envelope and marshals it.
func Encode(msg domain.Message) ([]byte, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("pubsub: marshal %s payload: %w", msg.Kind(), err)
	}
	env := Envelope{
		ID:      uuid.NewString(),
		Channel: msg.Channel(),
		SentAt:  time.Now().UTC(),
		Payload: payload,
	}
	return json.Marshal(env)
}

// Decode parses a wire message received on channel back into its typed form.
// The channel registry is fixed; unknown channels are an error the consumer
// logs and drops.
func Decode(channel string, data []byte) (domain.Message, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("pubsub: unmarshal envelope: %w", err)
	}

	decode := func(target domain.Message) (domain.Message, error) {
		if err := json.Unmarshal(env.Payload, target); err != nil {
			return nil, fmt.Errorf("pubsub: unmarshal %s payload: %w", channel, err)
		}
		return target, nil
	}

	switch channel {
	case domain.ChannelCreateBenchmark:
		msg := &domain.CreateBenchmark{}
		return dereference(decode(msg))
	case domain.ChannelUpdateDocument:
		msg := &domain.UpdateDocument{}
		return dereference(decode(msg))
	case domain.ChannelBenchmarkCreated:
		msg := &domain.BenchmarkCreated{}
		return dereference(decode(msg))
	case domain.ChannelProjectCreated:
		msg := &domain.ProjectCreated{}
		return dereference(decode(msg))
	case domain.ChannelDocumentUpdated:
		msg := &domain.DocumentUpdated{}
		return dereference(decode(msg))
	case domain.ChannelAllDocumentsUploaded:
		msg := &domain.AllDocumentsUploaded{}
		return dereference(decode(msg))
	case domain.ChannelBenchmarkCompleted:
		msg := &domain.BenchmarkCompleted{}
		return dereference(decode(msg))
	default:
		return nil, fmt.Errorf("pubsub: no message type registered for channel %q", channel)
	}
}

// dereference unwraps the pointer the json decoder needed so the bus always
// sees value messages.
func dereference(msg domain.Message, err error) (domain.Message, error) {
	if err != nil {
		return nil, err
	}
	switch m := msg.(type) {
	case *domain.CreateBenchmark:
		return *m, nil
	case *domain.UpdateDocument:
		return *m, nil
	case *domain.BenchmarkCreated:
		return *m, nil
	case *domain.ProjectCreated:
		return *m, nil
	case *domain.DocumentUpdated:
		return *m, nil
	case *domain.AllDocumentsUploaded:
		return *m, nil
	case *domain.BenchmarkCompleted:
		return *m, nil
	default:
		return msg, nil
	}
}
