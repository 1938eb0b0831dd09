package queue

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type stubIngestHandler struct {
	got IngestPayload
	err error
}

func (h *stubIngestHandler) Name() string { return "stub_ingest" }
func (h *stubIngestHandler) Handle(ctx context.Context, p IngestPayload) error {
	h.got = p
	return h.err
}

type stubExecuteHandler struct {
	got ExecutePayload
	err error
}

func (h *stubExecuteHandler) Name() string { return "stub_execute" }
func (h *stubExecuteHandler) Handle(ctx context.Context, p ExecutePayload) error {
	h.got = p
	return h.err
}

func TestIngestTask_NameAndHandle(t *testing.T) {
	t.Parallel()

	h := &stubIngestHandler{}
	task := ingestTask{h: h}

	assert.Equal(t, TaskIngestMessage, task.Name())

	payload := IngestPayload{InboundID: "inbound-1", UserID: "user-1"}
	require := assert.New(t)
	require.NoError(task.Handle(context.Background(), payload))
	require.Equal(payload, h.got)
}

func TestIngestTask_PropagatesHandlerError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	h := &stubIngestHandler{err: boom}
	task := ingestTask{h: h}

	err := task.Handle(context.Background(), IngestPayload{})
	assert.ErrorIs(t, err, boom)
}

func TestExecuteTask_NameAndHandle(t *testing.T) {
	t.Parallel()

	h := &stubExecuteHandler{}
	task := executeTask{h: h}

	assert.Equal(t, TaskExecuteTask, task.Name())

	payload := ExecutePayload{TaskID: "task-1"}
	assert.NoError(t, task.Handle(context.Background(), payload))
	assert.Equal(t, payload, h.got)
}

func TestExecuteTask_PropagatesHandlerError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	h := &stubExecuteHandler{err: boom}
	task := executeTask{h: h}

	err := task.Handle(context.Background(), ExecutePayload{})
	assert.ErrorIs(t, err, boom)
}

func TestQueueConstants(t *testing.T) {
	t.Parallel()

	assert.NotEqual(t, QueueIngest, QueueExecute)
	assert.NotEqual(t, TaskIngestMessage, TaskExecuteTask)
}
