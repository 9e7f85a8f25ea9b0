package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownBenchmarkType is returned when sequencing is requested for a
// benchmark type outside the known set. It indicates a configuration fault
// one level up from the workflow tables and is never retried.
var ErrUnknownBenchmarkType = errors.New("unknown benchmark type")

// MessageNotAssignedError is returned when a message kind has no successor
// entry in the workflow table for a benchmark type. It indicates a gap in the
// workflow definition, not a transient fault.
type MessageNotAssignedError struct {
	BenchmarkType string
	Message       Message
}

func (e *MessageNotAssignedError) Error() string {
	return fmt.Sprintf("message %s is not assigned to the %s workflow", e.Message.Kind(), e.BenchmarkType)
}

// workflow tables: for each benchmark type, an ordered mapping from the kind
// of the current message to the kind that follows it. KindNoOp marks the
// points where the workflow waits for an external trigger.
var workflows = map[string]map[Kind]Kind{
	BenchmarkTypeLatency: {
		KindCreateBenchmark:      KindBenchmarkCreated,
		KindBenchmarkCreated:     KindProjectCreated,
		KindProjectCreated:       KindNoOp,
		KindUpdateDocument:       KindDocumentUpdated,
		KindDocumentUpdated:      KindAllDocumentsUploaded,
		KindAllDocumentsUploaded: KindBenchmarkCompleted,
	},
}

// Sequencer answers "what message comes next" for a benchmark type. The
// tables are static, so sequencing is a pure lookup and trivially auditable.
type Sequencer struct{}

// NewSequencer returns a Sequencer over the built-in workflow tables.
func NewSequencer() Sequencer {
	return Sequencer{}
}

// Next returns the kind that follows current in the named workflow. A NoOp
// result means the workflow pauses here; it is not an error.
func (Sequencer) Next(benchmarkType string, current Message) (Kind, error) {
	table, ok := workflows[benchmarkType]
	if !ok {
		return KindUnknown, fmt.Errorf("%w: %q", ErrUnknownBenchmarkType, benchmarkType)
	}
	next, ok := table[current.Kind()]
	if !ok {
		return KindUnknown, &MessageNotAssignedError{BenchmarkType: benchmarkType, Message: current}
	}
	return next, nil
}

// NextEvent instantiates the event following current, correlated to the
// given benchmark. It returns (nil, nil) when the workflow waits for an
// external trigger. Fields beyond the benchmark id are populated by the
// handler from aggregate state, not here.
func (s Sequencer) NextEvent(benchmarkType string, current Message, benchmarkID int64) (Event, error) {
	next, err := s.Next(benchmarkType, current)
	if err != nil {
		return nil, err
	}
	switch next {
	case KindNoOp:
		return nil, nil
	case KindBenchmarkCreated:
		return BenchmarkCreated{BenchmarkID: benchmarkID}, nil
	case KindProjectCreated:
		return ProjectCreated{BenchmarkID: benchmarkID}, nil
	case KindDocumentUpdated:
		return DocumentUpdated{BenchmarkID: benchmarkID}, nil
	case KindAllDocumentsUploaded:
		return AllDocumentsUploaded{BenchmarkID: benchmarkID}, nil
	case KindBenchmarkCompleted:
		return BenchmarkCompleted{BenchmarkID: benchmarkID}, nil
	default:
		return nil, &MessageNotAssignedError{BenchmarkType: benchmarkType, Message: current}
	}
}
