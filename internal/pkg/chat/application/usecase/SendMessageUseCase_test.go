package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	chat "lingo-bridge/internal/pkg/chat/application/domain"
)

func seedPairing(repo *fakeRepo) {
	repo.conversations["conv-1"] = chat.Conversation{ID: "conv-1", LearnerID: "learner-1", MentorID: "mentor-1"}
	repo.participants["learner-1"] = chat.Participant{ID: "learner-1", Role: chat.RoleLearner, LanguagePreference: chat.LanguageUrdu}
	repo.participants["mentor-1"] = chat.Participant{ID: "mentor-1", Role: chat.RoleMentor, LanguagePreference: chat.LanguageEnglish}
}

func TestSendMessagePersistsPendingText(t *testing.T) {
	repo := newFakeRepo()
	seedPairing(repo)

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	session := chat.SessionContext{Clock: func() time.Time { return now }}
	uc := NewSendMessageUseCase(repo, session)

	token := "tok-1"
	msg, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID:   "conv-1",
		SenderID:         "learner-1",
		Kind:             chat.MessageKindText,
		Text:             strPtr("salaam"),
		CorrelationToken: &token,
	})
	require.NoError(t, err)
	require.NotEmpty(t, msg.ID)
	require.Equal(t, chat.LanguageUrdu, msg.LanguageOriginal)
	require.Equal(t, chat.TranslationPending, msg.TranslationStatus)
	require.Equal(t, now, msg.CreatedAt)
	require.Equal(t, "tok-1", *msg.DedupeKey)
}

func TestSendMessageDisabledKindSkipsPipeline(t *testing.T) {
	repo := newFakeRepo()
	seedPairing(repo)

	session := chat.SessionContext{DisabledKinds: map[chat.MessageKind]bool{chat.MessageKindText: true}}
	uc := NewSendMessageUseCase(repo, session)

	msg, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: "conv-1",
		SenderID:       "mentor-1",
		Kind:           chat.MessageKindText,
		Text:           strPtr("hello"),
	})
	require.NoError(t, err)
	require.Equal(t, chat.TranslationNotApplicable, msg.TranslationStatus)
}

func TestSendMessageSimulatedSessionSkipsPipeline(t *testing.T) {
	repo := newFakeRepo()
	seedPairing(repo)

	uc := NewSendMessageUseCase(repo, chat.SessionContext{Simulated: true})
	msg, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: "conv-1",
		SenderID:       "learner-1",
		Kind:           chat.MessageKindAudio,
		AudioURL:       strPtr("https://cdn/voice.ogg"),
	})
	require.NoError(t, err)
	require.Equal(t, chat.TranslationNotApplicable, msg.TranslationStatus)
}

func TestSendMessageRejectsOutsider(t *testing.T) {
	repo := newFakeRepo()
	seedPairing(repo)
	repo.participants["stranger"] = chat.Participant{ID: "stranger", Role: chat.RoleLearner}

	uc := NewSendMessageUseCase(repo, chat.SessionContext{})
	_, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: "conv-1",
		SenderID:       "stranger",
		Kind:           chat.MessageKindText,
		Text:           strPtr("hi"),
	})
	require.ErrorIs(t, err, chat.ErrNotParticipant)
}

func TestSendMessageUnknownSenderIsNotParticipant(t *testing.T) {
	repo := newFakeRepo()
	seedPairing(repo)

	uc := NewSendMessageUseCase(repo, chat.SessionContext{})
	_, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: "conv-1",
		SenderID:       "nobody",
		Kind:           chat.MessageKindText,
		Text:           strPtr("hi"),
	})
	require.ErrorIs(t, err, chat.ErrNotParticipant)
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	repo := newFakeRepo()
	seedPairing(repo)

	uc := NewSendMessageUseCase(repo, chat.SessionContext{})
	_, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: "conv-1",
		SenderID:       "learner-1",
		Kind:           chat.MessageKindText,
	})
	require.ErrorIs(t, err, chat.ErrEmptyMessage)
}

func TestSendMessageUnknownConversation(t *testing.T) {
	repo := newFakeRepo()
	uc := NewSendMessageUseCase(repo, chat.SessionContext{})
	_, err := uc.Execute(context.Background(), SendMessageInput{
		ConversationID: "conv-missing",
		SenderID:       "learner-1",
		Kind:           chat.MessageKindText,
		Text:           strPtr("hi"),
	})
	require.ErrorIs(t, err, ErrPersistence)
}

func TestCreateChatRequiresAdmin(t *testing.T) {
	repo := newFakeRepo()

	learnerUC := NewCreateChatUseCase(repo, chat.SessionContext{Participant: chat.Participant{Role: chat.RoleLearner}})
	_, err := learnerUC.Execute(context.Background(), CreateChatInput{LearnerID: "l1", MentorID: "m1"})
	require.ErrorIs(t, err, chat.ErrNotParticipant)

	adminUC := NewCreateChatUseCase(repo, chat.SessionContext{Participant: chat.Participant{Role: chat.RoleAdmin}})
	conv, err := adminUC.Execute(context.Background(), CreateChatInput{LearnerID: "l1", MentorID: "m1"})
	require.NoError(t, err)
	require.NotEmpty(t, conv.ID)
	require.Equal(t, "l1", conv.LearnerID)
	require.Equal(t, "m1", conv.MentorID)
}

func TestCreateChatRejectsSelfPairing(t *testing.T) {
	uc := NewCreateChatUseCase(newFakeRepo(), chat.SessionContext{Participant: chat.Participant{Role: chat.RoleAdmin}})
	_, err := uc.Execute(context.Background(), CreateChatInput{LearnerID: "u1", MentorID: "u1"})
	require.Error(t, err)
}

func TestReassignMentorKeepsHistoryOwnership(t *testing.T) {
	repo := newFakeRepo()
	msgID := seedPendingMessage(repo)

	admin := chat.SessionContext{Participant: chat.Participant{Role: chat.RoleAdmin}}
	uc := NewReassignMentorUseCase(repo, admin)
	require.NoError(t, uc.Execute(context.Background(), ReassignMentorInput{ConversationID: "conv-1", MentorID: "mentor-2"}))

	conv, err := repo.GetConversation(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Equal(t, "mentor-2", conv.MentorID)

	// Existing rows keep their original sender.
	msg, err := repo.GetMessage(context.Background(), msgID)
	require.NoError(t, err)
	require.Equal(t, "learner-1", msg.SenderID)
}
