package dialog

import (
	"sync"
	"time"
)

// State is the current step of a user's multi-turn dialog. StateIdle means no
// flow is active.
type State int

const (
	StateIdle State = iota
	StateAwaitingTitle
	StateAwaitingDescription
	StateAwaitingDueDate
	StateAwaitingDeleteTarget
	StateAwaitingCompleteTarget
	StateAwaitingCategoryName
	StateAwaitingCategoryColor
	StateAwaitingNotificationHours
	StateAwaitingEditTitle
	StateAwaitingEditDescription
	StateAwaitingEditDueDate
	StateAwaitingEditPriority
	StateAwaitingEditCategory

	stateCount
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingTitle:
		return "awaiting_title"
	case StateAwaitingDescription:
		return "awaiting_description"
	case StateAwaitingDueDate:
		return "awaiting_due_date"
	case StateAwaitingDeleteTarget:
		return "awaiting_delete_target"
	case StateAwaitingCompleteTarget:
		return "awaiting_complete_target"
	case StateAwaitingCategoryName:
		return "awaiting_category_name"
	case StateAwaitingCategoryColor:
		return "awaiting_category_color"
	case StateAwaitingNotificationHours:
		return "awaiting_notification_hours"
	case StateAwaitingEditTitle:
		return "awaiting_edit_title"
	case StateAwaitingEditDescription:
		return "awaiting_edit_description"
	case StateAwaitingEditDueDate:
		return "awaiting_edit_due_date"
	case StateAwaitingEditPriority:
		return "awaiting_edit_priority"
	case StateAwaitingEditCategory:
		return "awaiting_edit_category"
	default:
		return "unknown"
	}
}

// InputKind classifies an inbound user event.
type InputKind int

const (
	KindText InputKind = iota
	KindSelection
	KindDocument

	kindCount
)

// Input is one inbound user event, already stripped of transport detail.
type Input struct {
	Kind      InputKind
	Text      string // KindText
	Selection string // KindSelection: a callback token like "task_12"
	Document  []byte // KindDocument: raw file contents
}

// Draft accumulates add-task fields across dialog turns.
type Draft struct {
	Title       string
	Description string
	DueDate     *time.Time
}

// Session holds the per-user dialog state plus scratch data. It lives in
// memory only; a restart drops every active flow.
type Session struct {
	State        State
	Draft        Draft
	TargetTaskID uint
	CategoryName string
}

// Store maps user identity to dialog sessions. At most one session exists per
// user; beginning a new flow discards whatever a previous flow left behind.
type Store struct {
	mu       sync.Mutex
	sessions map[int64]*Session
}

func NewStore() *Store {
	return &Store{sessions: make(map[int64]*Session)}
}

// Get returns the user's active session, if any.
func (st *Store) Get(userID int64) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess, ok := st.sessions[userID]
	return sess, ok
}

// Begin starts a fresh session in the given state, dropping stale scratch.
func (st *Store) Begin(userID int64, state State) *Session {
	st.mu.Lock()
	defer st.mu.Unlock()
	sess := &Session{State: state}
	st.sessions[userID] = sess
	return sess
}

// Clear ends the user's session, returning them to idle.
func (st *Store) Clear(userID int64) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, userID)
}
