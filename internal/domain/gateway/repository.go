package gateway

// SessionRepository persists visitor sessions. Implementations must
// treat Update as a merge: completed tasks are added to the stored set,
// never used to overwrite it.
type SessionRepository interface {
	Create(session *Session) error
	GetByID(id string) (*Session, error)
	Update(session *Session) error
}

// GatewayRepository persists creator-defined gateway definitions.
type GatewayRepository interface {
	Create(gw *Gateway) error
	GetByID(id string) (*Gateway, error)
	ListByCreator(creatorID string) ([]*Gateway, error)
	Update(gw *Gateway) error
	Delete(id string) error
}

// EventRepository appends analytics events. Append-only; the core never
// reads events back through this interface.
type EventRepository interface {
	StoreTaskEvent(event *TaskEvent) error
}
