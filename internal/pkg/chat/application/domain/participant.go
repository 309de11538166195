package chat

import "time"

// ParticipantRole expresses the role within the mentoring program.
type ParticipantRole string

const (
	RoleLearner ParticipantRole = "learner"
	RoleMentor  ParticipantRole = "mentor"
	RoleAdmin   ParticipantRole = "admin"
)

// Participant is a chat user. Identity is immutable; LanguagePreference is
// mutable by the owner only and is sampled at message-creation time.
type Participant struct {
	ID                 string          `db:"id"`
	FullName           string          `db:"full_name"`
	Role               ParticipantRole `db:"role"`
	LanguagePreference string          `db:"language_preference"`
	CreatedAt          time.Time       `db:"created_at"`
}
