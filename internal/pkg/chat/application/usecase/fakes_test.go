package usecase

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	cacheport "lingo-bridge/internal/infrastructure/cache/port"
	pipeline "lingo-bridge/internal/infrastructure/pipeline/port"
	chat "lingo-bridge/internal/pkg/chat/application/domain"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

// fakeRepo is an in-memory ChatRepository that mirrors the adapter's status
// guards, so use case tests exercise the same conflict behavior as Postgres.
type fakeRepo struct {
	mu            sync.Mutex
	conversations map[string]chat.Conversation
	participants  map[string]chat.Participant
	messages      map[string]chat.Message
	nextID        int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		conversations: make(map[string]chat.Conversation),
		participants:  make(map[string]chat.Participant),
		messages:      make(map[string]chat.Message),
	}
}

func (f *fakeRepo) CreateConversation(_ context.Context, c chat.Conversation) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	c.ID = "conv-" + strconv.Itoa(f.nextID)
	f.conversations[c.ID] = c
	return c.ID, nil
}

func (f *fakeRepo) GetConversation(_ context.Context, id string) (*chat.Conversation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (f *fakeRepo) ReassignMentor(_ context.Context, conversationID, mentorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[conversationID]
	if !ok {
		return repository.ErrNotFound
	}
	c.MentorID = mentorID
	f.conversations[conversationID] = c
	return nil
}

func (f *fakeRepo) AddParticipant(_ context.Context, p chat.Participant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.participants[p.ID] = p
	return nil
}

func (f *fakeRepo) GetParticipant(_ context.Context, id string) (*chat.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.participants[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (f *fakeRepo) IsParticipant(_ context.Context, conversationID, userID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[conversationID]
	if !ok {
		return false, nil
	}
	return c.HasMember(userID), nil
}

func (f *fakeRepo) ListParticipantIDs(_ context.Context, conversationID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.conversations[conversationID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return []string{c.LearnerID, c.MentorID}, nil
}

func (f *fakeRepo) SetLanguagePreference(_ context.Context, userID, language string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.participants[userID]
	if !ok {
		return repository.ErrNotFound
	}
	p.LanguagePreference = language
	f.participants[userID] = p
	return nil
}

func (f *fakeRepo) SaveMessage(_ context.Context, m chat.Message) (*chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m.ID = "msg-" + strconv.Itoa(f.nextID)
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	f.messages[m.ID] = m
	return &m, nil
}

func (f *fakeRepo) GetMessage(_ context.Context, id string) (*chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &m, nil
}

func (f *fakeRepo) GetMessagesByConversation(_ context.Context, conversationID string, limit, offset int) ([]chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []chat.Message
	for _, m := range f.messages {
		if m.ChatID == conversationID {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeRepo) transition(id string, allowed func(chat.TranslationStatus) bool, to chat.TranslationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !allowed(m.TranslationStatus) {
		return repository.ErrConflict
	}
	m.TranslationStatus = to
	f.messages[id] = m
	return nil
}

func (f *fakeRepo) MarkProcessing(_ context.Context, messageID string) error {
	return f.transition(messageID, func(s chat.TranslationStatus) bool {
		return s == chat.TranslationPending
	}, chat.TranslationProcessing)
}

func (f *fakeRepo) MarkFailed(_ context.Context, messageID string) error {
	return f.transition(messageID, func(s chat.TranslationStatus) bool {
		return s == chat.TranslationPending || s == chat.TranslationProcessing
	}, chat.TranslationFailed)
}

func (f *fakeRepo) ApplyTranslation(_ context.Context, messageID string, patch repository.TranslationPatch) (*chat.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.messages[messageID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if m.TranslationStatus != chat.TranslationPending && m.TranslationStatus != chat.TranslationProcessing {
		return nil, repository.ErrConflict
	}
	if patch.TextTranslated != nil {
		m.TextTranslated = patch.TextTranslated
	}
	if patch.TranslatedAudioURL != nil {
		m.TranslatedAudioURL = patch.TranslatedAudioURL
	}
	m.TranslationStatus = patch.Status
	f.messages[messageID] = m
	return &m, nil
}

func (f *fakeRepo) RetryTranslation(_ context.Context, messageID string) error {
	return f.transition(messageID, func(s chat.TranslationStatus) bool {
		return s == chat.TranslationFailed
	}, chat.TranslationPending)
}

var _ repository.ChatRepository = (*fakeRepo)(nil)

// fakePipeline records dispatch requests and fails per script.
type fakePipeline struct {
	mu       sync.Mutex
	requests []pipeline.Request
	errs     []error // consumed per call; nil past the end
}

func (f *fakePipeline) Dispatch(_ context.Context, req pipeline.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	call := len(f.requests) - 1
	if call < len(f.errs) && f.errs[call] != nil {
		return "", f.errs[call]
	}
	return fmt.Sprintf("corr-%d", call+1), nil
}

var _ pipeline.Client = (*fakePipeline)(nil)

// fakeCache is an in-memory Cache without TTL expiry.
type fakeCache struct {
	mu     sync.Mutex
	values map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: make(map[string]string)}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	if !ok {
		return "", cacheport.ErrMiss
	}
	return v, nil
}

func (f *fakeCache) Set(_ context.Context, key, value string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.values[key] = value
	return nil
}

func (f *fakeCache) SetNX(_ context.Context, key, value string, _ time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.values[key]; ok {
		return false, nil
	}
	f.values[key] = value
	return true, nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.values[k]; ok {
			delete(f.values, k)
			n++
		}
	}
	return n, nil
}

func (f *fakeCache) Ping(context.Context) error { return nil }
func (f *fakeCache) Close() error               { return nil }

var _ cacheport.Cache = (*fakeCache)(nil)

func strPtr(s string) *string { return &s }

// seedPendingMessage stores a paired conversation plus one pending urdu text
// message and returns the message id.
func seedPendingMessage(repo *fakeRepo) string {
	repo.conversations["conv-1"] = chat.Conversation{ID: "conv-1", LearnerID: "learner-1", MentorID: "mentor-1"}
	repo.participants["learner-1"] = chat.Participant{ID: "learner-1", Role: chat.RoleLearner, LanguagePreference: chat.LanguageUrdu}
	repo.participants["mentor-1"] = chat.Participant{ID: "mentor-1", Role: chat.RoleMentor, LanguagePreference: chat.LanguageEnglish}
	repo.messages["msg-1"] = chat.Message{
		ID:                "msg-1",
		ChatID:            "conv-1",
		SenderID:          "learner-1",
		Kind:              chat.MessageKindText,
		TextOriginal:      strPtr("salaam"),
		LanguageOriginal:  chat.LanguageUrdu,
		TranslationStatus: chat.TranslationPending,
		CreatedAt:         time.Now().UTC(),
	}
	return "msg-1"
}
