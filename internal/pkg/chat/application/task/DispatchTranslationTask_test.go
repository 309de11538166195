package task

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	pipeline "lingo-bridge/internal/infrastructure/pipeline/port"
	qport "lingo-bridge/internal/infrastructure/queue/port"
	chat "lingo-bridge/internal/pkg/chat/application/domain"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

// statusRepo tracks message statuses with the adapter's transition guards.
// The embedded interface covers the port methods these tests never reach.
type statusRepo struct {
	repository.ChatRepository
	messages map[string]chat.Message
}

func newStatusRepo(msgs ...chat.Message) *statusRepo {
	r := &statusRepo{messages: make(map[string]chat.Message)}
	for _, m := range msgs {
		r.messages[m.ID] = m
	}
	return r
}

func (r *statusRepo) GetMessage(_ context.Context, id string) (*chat.Message, error) {
	m, ok := r.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (r *statusRepo) MarkProcessing(_ context.Context, id string) error {
	m, ok := r.messages[id]
	if !ok {
		return repository.ErrNotFound
	}
	if m.TranslationStatus != chat.TranslationPending {
		return repository.ErrConflict
	}
	m.TranslationStatus = chat.TranslationProcessing
	r.messages[id] = m
	return nil
}

func (r *statusRepo) MarkFailed(_ context.Context, id string) error {
	m, ok := r.messages[id]
	if !ok {
		return repository.ErrNotFound
	}
	if m.TranslationStatus != chat.TranslationPending && m.TranslationStatus != chat.TranslationProcessing {
		return repository.ErrConflict
	}
	m.TranslationStatus = chat.TranslationFailed
	r.messages[id] = m
	return nil
}

// recordingServer captures registered handlers so tests can invoke them
// directly.
type recordingServer struct {
	handlers map[string]qport.Handler
}

func newRecordingServer() *recordingServer {
	return &recordingServer{handlers: make(map[string]qport.Handler)}
}

func (s *recordingServer) Register(taskType string, h qport.Handler) { s.handlers[taskType] = h }
func (s *recordingServer) Run(context.Context) error                 { return nil }
func (s *recordingServer) Stop(context.Context) error                { return nil }

type scriptedPipeline struct {
	err error
}

func (p *scriptedPipeline) Dispatch(context.Context, pipeline.Request) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return "corr-1", nil
}

func strPtr(s string) *string { return &s }

func pendingMessage(id string) chat.Message {
	return chat.Message{
		ID:                id,
		ChatID:            "conv-1",
		SenderID:          "learner-1",
		Kind:              chat.MessageKindText,
		TextOriginal:      strPtr("salaam"),
		LanguageOriginal:  chat.LanguageUrdu,
		TranslationStatus: chat.TranslationPending,
	}
}

func TestMarkExhaustedRecordsFailure(t *testing.T) {
	repo := newStatusRepo(pendingMessage("msg-1"))

	task, err := NewDispatchTranslationTask("msg-1")
	require.NoError(t, err)
	MarkExhausted(context.Background(), repo, task.Payload)

	require.Equal(t, chat.TranslationFailed, repo.messages["msg-1"].TranslationStatus)
}

func TestMarkExhaustedLeavesTerminalStates(t *testing.T) {
	done := pendingMessage("msg-1")
	done.TranslationStatus = chat.TranslationCompleted
	repo := newStatusRepo(done)

	task, err := NewDispatchTranslationTask("msg-1")
	require.NoError(t, err)
	MarkExhausted(context.Background(), repo, task.Payload)
	require.Equal(t, chat.TranslationCompleted, repo.messages["msg-1"].TranslationStatus)

	// Missing rows and garbage payloads are swallowed; the hook runs inside
	// the queue's error path and must never blow it up.
	gone, err := NewDispatchTranslationTask("msg-gone")
	require.NoError(t, err)
	MarkExhausted(context.Background(), repo, gone.Payload)
	MarkExhausted(context.Background(), repo, []byte("not-json"))
	MarkExhausted(context.Background(), repo, []byte(`{"messageId":""}`))
}

func TestDispatchHandlerAdvancesPending(t *testing.T) {
	repo := newStatusRepo(pendingMessage("msg-1"))
	srv := newRecordingServer()
	RegisterDispatchTranslationTask(srv, repo, &scriptedPipeline{}, nil)

	task, err := NewDispatchTranslationTask("msg-1")
	require.NoError(t, err)
	handler := srv.handlers[DispatchTranslationTaskType]
	require.NotNil(t, handler)

	require.NoError(t, handler(context.Background(), task))
	require.Equal(t, chat.TranslationProcessing, repo.messages["msg-1"].TranslationStatus)
}

func TestDispatchHandlerRejectionIsTerminal(t *testing.T) {
	repo := newStatusRepo(pendingMessage("msg-1"))
	srv := newRecordingServer()
	RegisterDispatchTranslationTask(srv, repo, &scriptedPipeline{err: &pipeline.RejectionError{StatusCode: 422, Detail: "bad input"}}, nil)

	task, err := NewDispatchTranslationTask("msg-1")
	require.NoError(t, err)

	// nil keeps the queue from retrying a permanently rejected message.
	require.NoError(t, srv.handlers[DispatchTranslationTaskType](context.Background(), task))
	require.Equal(t, chat.TranslationFailed, repo.messages["msg-1"].TranslationStatus)
}

func TestDispatchHandlerTransportErrorRetries(t *testing.T) {
	repo := newStatusRepo(pendingMessage("msg-1"))
	srv := newRecordingServer()
	RegisterDispatchTranslationTask(srv, repo, &scriptedPipeline{err: pipeline.ErrUnavailable}, nil)

	task, err := NewDispatchTranslationTask("msg-1")
	require.NoError(t, err)

	require.Error(t, srv.handlers[DispatchTranslationTaskType](context.Background(), task))
	require.Equal(t, chat.TranslationPending, repo.messages["msg-1"].TranslationStatus)
}

func TestDispatchHandlerIgnoresMalformedPayload(t *testing.T) {
	repo := newStatusRepo(pendingMessage("msg-1"))
	srv := newRecordingServer()
	RegisterDispatchTranslationTask(srv, repo, &scriptedPipeline{}, nil)

	require.NoError(t, srv.handlers[DispatchTranslationTaskType](context.Background(), qport.Task{
		Type:    DispatchTranslationTaskType,
		Payload: []byte("not-json"),
	}))
	require.Equal(t, chat.TranslationPending, repo.messages["msg-1"].TranslationStatus)
}
