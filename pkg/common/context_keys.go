package common

type contextKey string

const (
	TraceIdKey    contextKey = "trace_id"
	AdminSubject  contextKey = "admin_subject"
	ActorIDKey    contextKey = "actor_id"
	RequestAction contextKey = "action"
)
