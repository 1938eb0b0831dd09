package store

import "time"

// User identity resolved from an inbound address. Externally provisioned
// and immutable to the pipeline.
type User struct {
	UserID       string
	PrimaryEmail string
	ChatNumber   string
	DisplayName  string
	Status       string
}

// Preferences holds one row's worth of per-user delivery behavior.
type Preferences struct {
	UserID          string
	Timezone        string
	Tone            string // friendly | formal | brief
	DefaultAction   string // remind | remind_and_draft | send
	FallbackChannel string // email | chat
}

const (
	ToneFriendly = "friendly"
	ToneFormal   = "formal"
	ToneBrief    = "brief"

	ActionRemind         = "remind"
	ActionRemindAndDraft = "remind_and_draft"
	ActionSend           = "send"

	ChannelEmail = "email"
	ChannelChat  = "chat"
)

// InboundMessage is one row per received webhook event accepted for a
// known user.
type InboundMessage struct {
	InboundID         string
	UserID            string
	Channel           string
	ProviderMessageID string
	IdempotencyKey    string
	RawTextRedacted   string
	Status            string // received | processed
	ReceivedAt        time.Time
}

const (
	InboundReceived  = "received"
	InboundProcessed = "processed"
)

// Task is the unit of work the user cares about.
type Task struct {
	TaskID          string
	UserID          string
	SourceInboundID string
	DueAt           *time.Time
	ActionType      string
	ContactHint     string
	Context         string
	Status          string
	AttemptCount    int
	LastAttemptAt   *time.Time
	UpdatedAt       time.Time
}

const (
	TaskPending            = "pending"
	TaskNeedsClarification = "needs_clarification"
	TaskDue                = "due"
	TaskExecuting          = "executing"
	TaskSending            = "sending"
	TaskDone               = "done"
	TaskFailed             = "failed"
)

// OutboxPayload is the structured body of one durable send intent.
type OutboxPayload struct {
	To      string `json:"to"`
	Subject string `json:"subject,omitempty"`
	Body    string `json:"body"`
}

// OutboxMessage is one durable send intent.
type OutboxMessage struct {
	OutboxID    string
	TaskID      *string
	UserID      string
	Channel     string
	Payload     OutboxPayload
	Status      string
	Attempts    int
	NextRetryAt time.Time
	UpdatedAt   time.Time
}

const (
	OutboxQueued  = "queued"
	OutboxSending = "sending"
	OutboxSent    = "sent"
	OutboxFailed  = "failed"
)

// TaskEvent is an append-only audit entry.
type TaskEvent struct {
	EventID   string
	TaskID    string
	UserID    string
	EventType string
	Payload   map[string]any
	CreatedAt time.Time
}

const (
	EventCreated            = "created"
	EventClarificationSent  = "clarification_sent"
	EventScheduled          = "scheduled"
	EventDue                = "due"
	EventExecuting          = "executing"
	EventDraftGenerated     = "draft_generated"
	EventSending            = "sending"
	EventSent               = "sent"
	EventDone               = "done"
	EventFailed             = "failed"
	EventRetried            = "retried"
)
