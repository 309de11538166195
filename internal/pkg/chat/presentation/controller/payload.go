package controller

import (
	"time"

	chat "lingo-bridge/internal/pkg/chat/application/domain"
)

// messagePayload is the wire form of a message, shared by the HTTP and
// websocket surfaces.
type messagePayload struct {
	ID                 string    `json:"id"`
	ChatID             string    `json:"chat_id"`
	SenderID           string    `json:"sender_id"`
	MessageType        string    `json:"message_type"`
	TextOriginal       *string   `json:"text_original,omitempty"`
	TextTranslated     *string   `json:"text_translated,omitempty"`
	AudioURL           *string   `json:"audio_url,omitempty"`
	TranslatedAudioURL *string   `json:"translated_audio_url,omitempty"`
	LanguageOriginal   string    `json:"language_original"`
	TranslationStatus  string    `json:"translation_status"`
	CreatedAt          time.Time `json:"created_at"`
	DedupeKey          *string   `json:"dedupe_key,omitempty"`
}

func toPayload(msg chat.Message) messagePayload {
	return messagePayload{
		ID:                 msg.ID,
		ChatID:             msg.ChatID,
		SenderID:           msg.SenderID,
		MessageType:        string(msg.Kind),
		TextOriginal:       msg.TextOriginal,
		TextTranslated:     msg.TextTranslated,
		AudioURL:           msg.AudioURL,
		TranslatedAudioURL: msg.TranslatedAudioURL,
		LanguageOriginal:   msg.LanguageOriginal,
		TranslationStatus:  string(msg.TranslationStatus),
		CreatedAt:          msg.CreatedAt,
		DedupeKey:          msg.DedupeKey,
	}
}
