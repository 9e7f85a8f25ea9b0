package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatencySuccessors(t *testing.T) {
	seq := NewSequencer()

	cases := []struct {
		current Message
		next    Kind
	}{
		{CreateBenchmark{}, KindBenchmarkCreated},
		{BenchmarkCreated{}, KindProjectCreated},
		{ProjectCreated{}, KindNoOp},
		{UpdateDocument{}, KindDocumentUpdated},
		{DocumentUpdated{}, KindAllDocumentsUploaded},
		{AllDocumentsUploaded{}, KindBenchmarkCompleted},
	}
	for _, tc := range cases {
		got, err := seq.Next(BenchmarkTypeLatency, tc.current)
		require.NoError(t, err, "successor of %s", tc.current.Kind())
		assert.Equal(t, tc.next, got, "successor of %s", tc.current.Kind())
	}
}

func TestNextIsPure(t *testing.T) {
	seq := NewSequencer()

	first, err := seq.Next(BenchmarkTypeLatency, DocumentUpdated{})
	require.NoError(t, err)
	second, err := seq.Next(BenchmarkTypeLatency, DocumentUpdated{})
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestNextUnassignedMessage(t *testing.T) {
	seq := NewSequencer()

	// Terminal and sentinel kinds have no successor entry.
	for _, msg := range []Message{BenchmarkCompleted{}, NoOp{}} {
		_, err := seq.Next(BenchmarkTypeLatency, msg)
		var notAssigned *MessageNotAssignedError
		require.ErrorAs(t, err, &notAssigned, "kind %s", msg.Kind())
		assert.Equal(t, msg, notAssigned.Message)
		assert.Equal(t, BenchmarkTypeLatency, notAssigned.BenchmarkType)
	}
}

func TestNextUnknownBenchmarkType(t *testing.T) {
	seq := NewSequencer()

	_, err := seq.Next("throughput", CreateBenchmark{})
	require.ErrorIs(t, err, ErrUnknownBenchmarkType)

	var notAssigned *MessageNotAssignedError
	assert.False(t, errors.As(err, &notAssigned), "unknown type is distinct from an unassigned message")
}

func TestNextEventWaitState(t *testing.T) {
	seq := NewSequencer()

	event, err := seq.NextEvent(BenchmarkTypeLatency, ProjectCreated{}, 7)
	require.NoError(t, err)
	assert.Nil(t, event, "ProjectCreated is a wait state under the latency workflow")
}

func TestNextEventCarriesBenchmarkID(t *testing.T) {
	seq := NewSequencer()

	event, err := seq.NextEvent(BenchmarkTypeLatency, CreateBenchmark{}, 42)
	require.NoError(t, err)
	require.IsType(t, BenchmarkCreated{}, event)
	assert.Equal(t, int64(42), event.BenchmarkRef())

	event, err = seq.NextEvent(BenchmarkTypeLatency, AllDocumentsUploaded{BenchmarkID: 42}, 42)
	require.NoError(t, err)
	require.IsType(t, BenchmarkCompleted{}, event)
	assert.Equal(t, int64(42), event.BenchmarkRef())
}

func TestChannelSets(t *testing.T) {
	assert.Equal(t, []string{"create_benchmark", "update_document"}, CommandChannels())
	assert.ElementsMatch(t, []string{
		"benchmark_created",
		"project_created",
		"document_updated",
		"all_documents_uploaded",
		"benchmark_completed",
	}, EventChannels())
	assert.Len(t, SubscribeChannels(), len(CommandChannels())+len(EventChannels()))
}

func TestKindClassification(t *testing.T) {
	for _, k := range []Kind{KindCreateBenchmark, KindUpdateDocument} {
		assert.True(t, k.IsCommand(), k.String())
		assert.False(t, k.IsEvent(), k.String())
	}
	for _, k := range []Kind{KindBenchmarkCreated, KindProjectCreated, KindDocumentUpdated, KindAllDocumentsUploaded, KindBenchmarkCompleted} {
		assert.True(t, k.IsEvent(), k.String())
		assert.False(t, k.IsCommand(), k.String())
	}
	assert.False(t, KindNoOp.IsCommand())
	assert.False(t, KindNoOp.IsEvent())
}
