package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	chat "lingo-bridge/internal/pkg/chat/application/domain"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

func TestRegisterParticipant(t *testing.T) {
	repo := newFakeRepo()
	admin := chat.SessionContext{Participant: chat.Participant{Role: chat.RoleAdmin}}
	uc := NewRegisterParticipantUseCase(repo, admin)

	t.Run("defaults language and assigns id", func(t *testing.T) {
		p, err := uc.Execute(context.Background(), RegisterParticipantInput{
			FullName: "Ayesha Khan",
			Role:     chat.RoleLearner,
		})
		require.NoError(t, err)
		require.NotEmpty(t, p.ID)
		require.Equal(t, chat.DefaultLanguage, p.LanguagePreference)
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		_, err := uc.Execute(context.Background(), RegisterParticipantInput{Role: "guest"})
		require.Error(t, err)
	})

	t.Run("rejects unsupported language", func(t *testing.T) {
		_, err := uc.Execute(context.Background(), RegisterParticipantInput{
			Role:               chat.RoleMentor,
			LanguagePreference: "french",
		})
		require.Error(t, err)
	})

	t.Run("requires admin", func(t *testing.T) {
		mentorUC := NewRegisterParticipantUseCase(repo, chat.SessionContext{Participant: chat.Participant{Role: chat.RoleMentor}})
		_, err := mentorUC.Execute(context.Background(), RegisterParticipantInput{Role: chat.RoleLearner})
		require.ErrorIs(t, err, chat.ErrNotParticipant)
	})
}

func TestSetLanguagePreferenceAffectsFutureMessagesOnly(t *testing.T) {
	repo := newFakeRepo()
	msgID := seedPendingMessage(repo)

	prefUC := NewSetLanguagePreferenceUseCase(repo)
	require.NoError(t, prefUC.Execute(context.Background(), SetLanguagePreferenceInput{
		UserID:   "learner-1",
		Language: chat.LanguageEnglish,
	}))

	// The stored message keeps the language it was written in.
	msg, err := repo.GetMessage(context.Background(), msgID)
	require.NoError(t, err)
	require.Equal(t, chat.LanguageUrdu, msg.LanguageOriginal)

	// A new send samples the updated preference.
	sendUC := NewSendMessageUseCase(repo, chat.SessionContext{})
	next, err := sendUC.Execute(context.Background(), SendMessageInput{
		ConversationID: "conv-1",
		SenderID:       "learner-1",
		Kind:           chat.MessageKindText,
		Text:           strPtr("hello now"),
	})
	require.NoError(t, err)
	require.Equal(t, chat.LanguageEnglish, next.LanguageOriginal)
}

func TestSetLanguagePreferenceValidation(t *testing.T) {
	repo := newFakeRepo()
	uc := NewSetLanguagePreferenceUseCase(repo)

	require.Error(t, uc.Execute(context.Background(), SetLanguagePreferenceInput{UserID: "u1", Language: "german"}))
	require.ErrorIs(t,
		uc.Execute(context.Background(), SetLanguagePreferenceInput{UserID: "missing", Language: chat.LanguageUrdu}),
		repository.ErrNotFound)
}
