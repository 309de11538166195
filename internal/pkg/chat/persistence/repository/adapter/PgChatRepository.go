package adapter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	chat "lingo-bridge/internal/pkg/chat/application/domain"
	repository "lingo-bridge/internal/pkg/chat/persistence/repository/port"
)

type PgChatRepository struct {
	pool *pgxpool.Pool
}

func NewPgChatRepository(pool *pgxpool.Pool) *PgChatRepository {
	return &PgChatRepository{pool: pool}
}

const messageColumns = `
	id::text, chat_id::text, sender_id::text, message_type,
	text_original, text_translated, audio_url, translated_audio_url,
	language_original, translation_status, created_at, dedupe_key
`

func (r *PgChatRepository) CreateConversation(ctx context.Context, c chat.Conversation) (string, error) {
	if r == nil || r.pool == nil {
		return "", errors.New("PgChatRepository: nil pool")
	}
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chats (learner_id, mentor_id, created_at)
		VALUES ($1::uuid, $2::uuid, $3)
		RETURNING id::text
	`, c.LearnerID, c.MentorID, c.CreatedAt).Scan(&id)
	return id, err
}

func (r *PgChatRepository) GetConversation(ctx context.Context, id string) (*chat.Conversation, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	var c chat.Conversation
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, learner_id::text, mentor_id::text, created_at
		FROM chats
		WHERE id = $1::uuid
	`, id).Scan(&c.ID, &c.LearnerID, &c.MentorID, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ReassignMentor swaps the mentor on an existing pairing. Message rows keep
// their sender_id, so history ownership is untouched.
func (r *PgChatRepository) ReassignMentor(ctx context.Context, conversationID, mentorID string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE chats SET mentor_id = $2::uuid WHERE id = $1::uuid
	`, conversationID, mentorID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PgChatRepository) AddParticipant(ctx context.Context, p chat.Participant) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, full_name, role, language_preference, created_at)
		VALUES ($1::uuid, $2, $3, $4, $5)
		ON CONFLICT (id)
		DO UPDATE SET full_name = EXCLUDED.full_name,
		              role = EXCLUDED.role,
		              language_preference = EXCLUDED.language_preference
	`, p.ID, p.FullName, p.Role, p.LanguagePreference, p.CreatedAt)
	return err
}

func (r *PgChatRepository) GetParticipant(ctx context.Context, id string) (*chat.Participant, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	var p chat.Participant
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, full_name, role, language_preference, created_at
		FROM users
		WHERE id = $1::uuid
	`, id).Scan(&p.ID, &p.FullName, &p.Role, &p.LanguagePreference, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PgChatRepository) IsParticipant(ctx context.Context, conversationID, userID string) (bool, error) {
	if r == nil || r.pool == nil {
		return false, errors.New("PgChatRepository: nil pool")
	}
	var ok bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM chats
			WHERE id = $1::uuid AND (learner_id = $2::uuid OR mentor_id = $2::uuid)
		)
	`, conversationID, userID).Scan(&ok)
	return ok, err
}

func (r *PgChatRepository) ListParticipantIDs(ctx context.Context, conversationID string) ([]string, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	var learner, mentor string
	err := r.pool.QueryRow(ctx, `
		SELECT learner_id::text, mentor_id::text FROM chats WHERE id = $1::uuid
	`, conversationID).Scan(&learner, &mentor)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []string{learner, mentor}, nil
}

func (r *PgChatRepository) SetLanguagePreference(ctx context.Context, userID, language string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, `
		UPDATE users SET language_preference = $2 WHERE id = $1::uuid
	`, userID, language)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SaveMessage inserts the draft, letting the DB assign id and created_at, and
// returns the durable row so callers can reconcile optimistic state.
func (r *PgChatRepository) SaveMessage(ctx context.Context, m chat.Message) (*chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	row := r.pool.QueryRow(ctx, `
		INSERT INTO messages (
			chat_id, sender_id, message_type, text_original, audio_url,
			language_original, translation_status, dedupe_key
		) VALUES ($1::uuid, $2::uuid, $3, $4, $5, $6, $7, $8)
		RETURNING `+messageColumns+`
	`, m.ChatID, m.SenderID, m.Kind, m.TextOriginal, m.AudioURL,
		m.LanguageOriginal, m.TranslationStatus, m.DedupeKey)
	return scanMessage(row)
}

func (r *PgChatRepository) GetMessage(ctx context.Context, id string) (*chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	row := r.pool.QueryRow(ctx, `
		SELECT `+messageColumns+` FROM messages WHERE id = $1::uuid
	`, id)
	msg, err := scanMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return msg, err
}

func (r *PgChatRepository) GetMessagesByConversation(ctx context.Context, conversationID string, limit int, offset int) ([]chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if offset < 0 {
		offset = 0
	}
	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE chat_id = $1::uuid
		ORDER BY created_at ASC, id ASC
		OFFSET $2
	`
	args := []any{conversationID, offset}
	if limit > 0 {
		query += ` LIMIT $3`
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, *msg)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return msgs, nil
}

// MarkProcessing advances pending -> processing. The WHERE clause is the
// forward-only guard: a row already past pending is left alone and reported
// as a conflict.
func (r *PgChatRepository) MarkProcessing(ctx context.Context, messageID string) error {
	return r.guardedStatusUpdate(ctx, messageID, `
		UPDATE messages
		SET translation_status = 'processing'
		WHERE id = $1::uuid AND translation_status = 'pending'
	`)
}

func (r *PgChatRepository) MarkFailed(ctx context.Context, messageID string) error {
	return r.guardedStatusUpdate(ctx, messageID, `
		UPDATE messages
		SET translation_status = 'failed'
		WHERE id = $1::uuid AND translation_status IN ('pending', 'processing')
	`)
}

// RetryTranslation is the sole backward transition and requires the row to be
// failed, keeping automatic progress distinguishable from explicit retry.
func (r *PgChatRepository) RetryTranslation(ctx context.Context, messageID string) error {
	return r.guardedStatusUpdate(ctx, messageID, `
		UPDATE messages
		SET translation_status = 'pending'
		WHERE id = $1::uuid AND translation_status = 'failed'
	`)
}

// ApplyTranslation writes translated content and terminal status in one
// statement so completed is never visible without its content.
func (r *PgChatRepository) ApplyTranslation(ctx context.Context, messageID string, patch repository.TranslationPatch) (*chat.Message, error) {
	if r == nil || r.pool == nil {
		return nil, errors.New("PgChatRepository: nil pool")
	}
	if patch.Status != chat.TranslationCompleted && patch.Status != chat.TranslationFailed {
		return nil, fmt.Errorf("%w: writeback status %q", repository.ErrConflict, patch.Status)
	}
	row := r.pool.QueryRow(ctx, `
		UPDATE messages
		SET text_translated = COALESCE($2, text_translated),
		    translated_audio_url = COALESCE($3, translated_audio_url),
		    translation_status = $4
		WHERE id = $1::uuid AND translation_status IN ('pending', 'processing')
		RETURNING `+messageColumns+`
	`, messageID, patch.TextTranslated, patch.TranslatedAudioURL, patch.Status)
	msg, err := scanMessage(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.classifyMissingUpdate(ctx, messageID)
	}
	return msg, err
}

func (r *PgChatRepository) guardedStatusUpdate(ctx context.Context, messageID, query string) error {
	if r == nil || r.pool == nil {
		return errors.New("PgChatRepository: nil pool")
	}
	ct, err := r.pool.Exec(ctx, query, messageID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return r.classifyMissingUpdate(ctx, messageID)
	}
	return nil
}

// classifyMissingUpdate separates "row absent" from "guard rejected" after a
// zero-row update.
func (r *PgChatRepository) classifyMissingUpdate(ctx context.Context, messageID string) error {
	var exists bool
	if err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM messages WHERE id = $1::uuid)`, messageID,
	).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return repository.ErrNotFound
	}
	return repository.ErrConflict
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMessage(row rowScanner) (*chat.Message, error) {
	var m chat.Message
	err := row.Scan(
		&m.ID, &m.ChatID, &m.SenderID, &m.Kind,
		&m.TextOriginal, &m.TextTranslated, &m.AudioURL, &m.TranslatedAudioURL,
		&m.LanguageOriginal, &m.TranslationStatus, &m.CreatedAt, &m.DedupeKey,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
