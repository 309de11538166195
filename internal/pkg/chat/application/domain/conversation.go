package chat

import "time"

// Conversation pairs exactly one learner with exactly one mentor. Created
// once by an admin pairing action and never deleted; the mentor reference may
// be reassigned, which must not alter message history ownership.
type Conversation struct {
	ID        string    `db:"id"`
	LearnerID string    `db:"learner_id"`
	MentorID  string    `db:"mentor_id"`
	CreatedAt time.Time `db:"created_at"`
}

// HasMember reports whether userID is the learner or the current mentor.
func (c Conversation) HasMember(userID string) bool {
	return userID != "" && (userID == c.LearnerID || userID == c.MentorID)
}
