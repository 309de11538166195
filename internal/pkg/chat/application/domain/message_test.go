package chat

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestNewMessage(t *testing.T) {
	tests := []struct {
		name    string
		draft   Message
		wantErr error
	}{
		{
			name:  "text message",
			draft: Message{ChatID: "c1", SenderID: "u1", Kind: MessageKindText, TextOriginal: strPtr("salaam")},
		},
		{
			name:  "audio message",
			draft: Message{ChatID: "c1", SenderID: "u1", Kind: MessageKindAudio, AudioURL: strPtr("https://cdn/a.ogg")},
		},
		{
			name:    "text message without text",
			draft:   Message{ChatID: "c1", SenderID: "u1", Kind: MessageKindText},
			wantErr: ErrEmptyMessage,
		},
		{
			name:    "whitespace-only text",
			draft:   Message{ChatID: "c1", SenderID: "u1", Kind: MessageKindText, TextOriginal: strPtr("   ")},
			wantErr: ErrEmptyMessage,
		},
		{
			name:    "audio message without url",
			draft:   Message{ChatID: "c1", SenderID: "u1", Kind: MessageKindAudio},
			wantErr: ErrEmptyMessage,
		},
		{
			name:    "text message carrying audio",
			draft:   Message{ChatID: "c1", SenderID: "u1", Kind: MessageKindText, TextOriginal: strPtr("hi"), AudioURL: strPtr("https://cdn/a.ogg")},
			wantErr: ErrContentMismatch,
		},
		{
			name:    "audio message carrying text",
			draft:   Message{ChatID: "c1", SenderID: "u1", Kind: MessageKindAudio, AudioURL: strPtr("https://cdn/a.ogg"), TextOriginal: strPtr("hi")},
			wantErr: ErrContentMismatch,
		},
		{
			name:    "unknown kind",
			draft:   Message{ChatID: "c1", SenderID: "u1", Kind: "video", TextOriginal: strPtr("hi")},
			wantErr: ErrContentMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := NewMessage(tt.draft)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, msg)
			require.Equal(t, DefaultLanguage, msg.LanguageOriginal)
			require.False(t, msg.CreatedAt.IsZero())
		})
	}
}

func TestNewMessageTrimsText(t *testing.T) {
	msg, err := NewMessage(Message{ChatID: "c1", SenderID: "u1", Kind: MessageKindText, TextOriginal: strPtr("  hello  ")})
	require.NoError(t, err)
	require.Equal(t, "hello", *msg.TextOriginal)
}

func TestCanAdvance(t *testing.T) {
	tests := []struct {
		name string
		from TranslationStatus
		to   TranslationStatus
		want bool
	}{
		{"pending to processing", TranslationPending, TranslationProcessing, true},
		{"pending to completed", TranslationPending, TranslationCompleted, true},
		{"pending to failed", TranslationPending, TranslationFailed, true},
		{"processing to completed", TranslationProcessing, TranslationCompleted, true},
		{"processing to failed", TranslationProcessing, TranslationFailed, true},
		{"processing to pending", TranslationProcessing, TranslationPending, false},
		{"completed to failed", TranslationCompleted, TranslationFailed, false},
		{"failed to completed", TranslationFailed, TranslationCompleted, false},
		{"failed to pending is not automatic", TranslationFailed, TranslationPending, false},
		{"nothing enters not_applicable", TranslationPending, TranslationNotApplicable, false},
		{"nothing leaves not_applicable", TranslationNotApplicable, TranslationPending, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, CanAdvance(tt.from, tt.to))
		})
	}
}

func TestIsTerminal(t *testing.T) {
	require.True(t, TranslationCompleted.IsTerminal())
	require.True(t, TranslationFailed.IsTerminal())
	require.True(t, TranslationNotApplicable.IsTerminal())
	require.False(t, TranslationPending.IsTerminal())
	require.False(t, TranslationProcessing.IsTerminal())
}

func TestMessageBefore(t *testing.T) {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	earlier := Message{ID: "b", CreatedAt: base}
	later := Message{ID: "a", CreatedAt: base.Add(time.Second)}
	require.True(t, earlier.Before(later))
	require.False(t, later.Before(earlier))

	// Equal timestamps fall back to id so every replica renders one order.
	left := Message{ID: "aaa", CreatedAt: base}
	right := Message{ID: "bbb", CreatedAt: base}
	require.True(t, left.Before(right))
	require.False(t, right.Before(left))
	require.False(t, left.Before(left))
}
