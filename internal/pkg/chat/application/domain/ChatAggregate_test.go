package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func pairedChat() *Chat {
	return &Chat{
		Conversation: Conversation{ID: "conv-1", LearnerID: "learner-1", MentorID: "mentor-1"},
		Participants: map[string]Participant{
			"learner-1": {ID: "learner-1", Role: RoleLearner, LanguagePreference: LanguageUrdu},
			"mentor-1":  {ID: "mentor-1", Role: RoleMentor, LanguagePreference: LanguageEnglish},
		},
	}
}

func TestPostMessage(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("stamps language from sender preference", func(t *testing.T) {
		c := pairedChat()
		msg, err := c.PostMessage(Message{
			ChatID:       "conv-1",
			SenderID:     "learner-1",
			Kind:         MessageKindText,
			TextOriginal: strPtr("salaam"),
		}, now, true)
		require.NoError(t, err)
		require.Equal(t, LanguageUrdu, msg.LanguageOriginal)
		require.Equal(t, TranslationPending, msg.TranslationStatus)
		require.Equal(t, now, msg.CreatedAt)
	})

	t.Run("translation disabled yields not_applicable", func(t *testing.T) {
		c := pairedChat()
		msg, err := c.PostMessage(Message{
			ChatID:       "conv-1",
			SenderID:     "mentor-1",
			Kind:         MessageKindText,
			TextOriginal: strPtr("hello"),
		}, now, false)
		require.NoError(t, err)
		require.Equal(t, TranslationNotApplicable, msg.TranslationStatus)
	})

	t.Run("rejects non-participant", func(t *testing.T) {
		c := pairedChat()
		_, err := c.PostMessage(Message{
			ChatID:       "conv-1",
			SenderID:     "stranger",
			Kind:         MessageKindText,
			TextOriginal: strPtr("hi"),
		}, now, true)
		require.ErrorIs(t, err, ErrNotParticipant)
	})

	t.Run("rejects conversation mismatch", func(t *testing.T) {
		c := pairedChat()
		_, err := c.PostMessage(Message{
			ChatID:       "conv-2",
			SenderID:     "learner-1",
			Kind:         MessageKindText,
			TextOriginal: strPtr("hi"),
		}, now, true)
		require.ErrorIs(t, err, ErrInvalidConversation)
	})

	t.Run("missing preference falls back to default", func(t *testing.T) {
		c := pairedChat()
		c.Participants["learner-1"] = Participant{ID: "learner-1", Role: RoleLearner}
		msg, err := c.PostMessage(Message{
			ChatID:       "conv-1",
			SenderID:     "learner-1",
			Kind:         MessageKindText,
			TextOriginal: strPtr("hi"),
		}, now, true)
		require.NoError(t, err)
		require.Equal(t, DefaultLanguage, msg.LanguageOriginal)
	})

	t.Run("draft language wins over preference", func(t *testing.T) {
		// A stored language is never recomputed, even if the preference moved.
		c := pairedChat()
		msg, err := c.PostMessage(Message{
			ChatID:           "conv-1",
			SenderID:         "learner-1",
			Kind:             MessageKindText,
			TextOriginal:     strPtr("hi"),
			LanguageOriginal: LanguageEnglish,
		}, now, true)
		require.NoError(t, err)
		require.Equal(t, LanguageEnglish, msg.LanguageOriginal)
	})
}

func TestSessionTranslationWanted(t *testing.T) {
	s := SessionContext{}
	require.True(t, s.TranslationWanted(MessageKindText))

	s.DisabledKinds = map[MessageKind]bool{MessageKindAudio: true}
	require.True(t, s.TranslationWanted(MessageKindText))
	require.False(t, s.TranslationWanted(MessageKindAudio))

	s.Simulated = true
	require.False(t, s.TranslationWanted(MessageKindText))
}

func TestSessionNow(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 8, 30, 0, 0, time.FixedZone("PKT", 5*3600))
	s := SessionContext{Clock: func() time.Time { return fixed }}
	require.Equal(t, fixed.UTC(), s.Now())
	require.Equal(t, time.UTC, s.Now().Location())
}
