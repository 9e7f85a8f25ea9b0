// Package domain holds the benchmark aggregate, the command and event types
// exchanged over the bus, and the workflow sequencing tables that order them.
package domain

// Kind discriminates message variants. Dispatch is always keyed on the Kind,
// never on the concrete Go type.
type Kind int

const (
	KindUnknown Kind = iota

	// Commands.
	KindCreateBenchmark
	KindUpdateDocument

	// Events.
	KindBenchmarkCreated
	KindProjectCreated
	KindDocumentUpdated
	KindAllDocumentsUploaded
	KindBenchmarkCompleted

	// KindNoOp marks a workflow wait state. It is never published.
	KindNoOp
)

// String returns the channel-style name of the kind.
func (k Kind) String() string {
	switch k {
	case KindCreateBenchmark:
		return ChannelCreateBenchmark
	case KindUpdateDocument:
		return ChannelUpdateDocument
	case KindBenchmarkCreated:
		return ChannelBenchmarkCreated
	case KindProjectCreated:
		return ChannelProjectCreated
	case KindDocumentUpdated:
		return ChannelDocumentUpdated
	case KindAllDocumentsUploaded:
		return ChannelAllDocumentsUploaded
	case KindBenchmarkCompleted:
		return ChannelBenchmarkCompleted
	case KindNoOp:
		return "noop"
	default:
		return "unknown"
	}
}

// IsCommand reports whether the kind belongs to the command set.
func (k Kind) IsCommand() bool {
	return k == KindCreateBenchmark || k == KindUpdateDocument
}

// IsEvent reports whether the kind belongs to the event set.
func (k Kind) IsEvent() bool {
	switch k {
	case KindBenchmarkCreated, KindProjectCreated, KindDocumentUpdated, KindAllDocumentsUploaded, KindBenchmarkCompleted:
		return true
	}
	return false
}

// Pub/sub channel names. Each message kind maps to exactly one wire topic.
const (
	ChannelCreateBenchmark      = "create_benchmark"
	ChannelUpdateDocument       = "update_document"
	ChannelBenchmarkCreated     = "benchmark_created"
	ChannelProjectCreated       = "project_created"
	ChannelDocumentUpdated      = "document_updated"
	ChannelAllDocumentsUploaded = "all_documents_uploaded"
	ChannelBenchmarkCompleted   = "benchmark_completed"
)

// CommandChannels returns the closed list of command topics.
func CommandChannels() []string {
	return []string{
		ChannelCreateBenchmark,
		ChannelUpdateDocument,
	}
}

// EventChannels returns the closed list of event topics.
func EventChannels() []string {
	return []string{
		ChannelAllDocumentsUploaded,
		ChannelBenchmarkCreated,
		ChannelBenchmarkCompleted,
		ChannelDocumentUpdated,
		ChannelProjectCreated,
	}
}

// SubscribeChannels returns every topic a consumer should listen on.
func SubscribeChannels() []string {
	return append(EventChannels(), CommandChannels()...)
}

// Message is the common contract of commands and events.
type Message interface {
	Kind() Kind
	Channel() string
}

// Event is a message stating a fact that already happened. Every event
// correlates to one benchmark run.
type Event interface {
	Message
	BenchmarkRef() int64
}
