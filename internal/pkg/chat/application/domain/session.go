package chat

import "time"

// SessionContext carries the active participant and backend capability into
// the use cases and the conversation view, replacing ambient process state so
// tests can inject a fake context.
type SessionContext struct {
	Participant Participant
	// Simulated marks a demo/in-memory backend; dispatch is skipped and
	// messages are created with not_applicable status.
	Simulated bool
	// DisabledKinds lists message kinds for which translation is turned off.
	DisabledKinds map[MessageKind]bool
	// Clock overrides the session's notion of now; nil means time.Now.
	Clock func() time.Time
}

// Now returns the session clock reading in UTC.
func (s SessionContext) Now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}

// TranslationWanted reports whether messages of the given kind should enter
// the translation pipeline under this session.
func (s SessionContext) TranslationWanted(kind MessageKind) bool {
	if s.Simulated {
		return false
	}
	return !s.DisabledKinds[kind]
}
