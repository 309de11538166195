package usecase

import (
	"context"
	"errors"
	"fmt"

	chat "lingo-bridge/internal/pkg/chat/application/domain"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

// SendMessageInput carries the data needed to send a new message.
// CorrelationToken is the client-generated token matching the optimistic
// entry to the durable record; it travels in the dedupe_key column.
type SendMessageInput struct {
	ConversationID   string
	SenderID         string
	Kind             chat.MessageKind
	Text             *string
	AudioURL         *string
	CorrelationToken *string
}

// SendMessageUseCase persists a new message and stamps its translation
// lifecycle entry state.
// Hexagonal: depends on repository port, returns domain entity
// One class per use case (own file)
type SendMessageUseCase struct {
	Repo    repository.ChatRepository
	Session chat.SessionContext
}

func NewSendMessageUseCase(repo repository.ChatRepository, session chat.SessionContext) *SendMessageUseCase {
	return &SendMessageUseCase{Repo: repo, Session: session}
}

// Execute validates membership, captures the sender's current language
// preference into the message, persists it, and returns the durable record.
// The source language is sampled exactly once here; later preference changes
// never rewrite stored messages.
func (uc *SendMessageUseCase) Execute(ctx context.Context, in SendMessageInput) (*chat.Message, error) {
	if in.ConversationID == "" || in.SenderID == "" {
		return nil, fmt.Errorf("conversationId and senderId are required")
	}

	convo, err := uc.Repo.GetConversation(ctx, in.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	sender, err := uc.Repo.GetParticipant(ctx, in.SenderID)
	if err != nil {
		// An unregistered sender is a membership failure, not a store outage.
		if errors.Is(err, repository.ErrNotFound) {
			return nil, chat.ErrNotParticipant
		}
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}

	aggregate := &chat.Chat{
		Conversation: *convo,
		Participants: map[string]chat.Participant{
			convo.LearnerID: {ID: convo.LearnerID},
			convo.MentorID:  {ID: convo.MentorID},
		},
	}
	// Hydrate the sender entry so PostMessage sees the live preference.
	if aggregate.HasParticipant(sender.ID) {
		aggregate.Participants[sender.ID] = *sender
	}

	draft := chat.Message{
		ChatID:       in.ConversationID,
		SenderID:     in.SenderID,
		Kind:         in.Kind,
		TextOriginal: in.Text,
		AudioURL:     in.AudioURL,
		DedupeKey:    in.CorrelationToken,
	}

	validated, err := aggregate.PostMessage(draft, uc.Session.Now(), uc.Session.TranslationWanted(in.Kind))
	if err != nil {
		return nil, err
	}

	msg, err := uc.Repo.SaveMessage(ctx, validated)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPersistence, err)
	}
	return msg, nil
}
