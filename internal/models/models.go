package models

import "time"

type AppealStatus string

const (
	AppealOpen   AppealStatus = "open"
	AppealClosed AppealStatus = "closed"
)

type Role string

const (
	RoleUser Role = "user"
	RoleBot  Role = "bot"
)

// Appeal is one support ticket. A user may own any number of appeals,
// but the session layer binds at most one at a time.
type Appeal struct {
	ID        string       `json:"appeal_id"`
	UserID    int64        `json:"user_id"`
	Title     string       `json:"appeal_title"`
	Status    AppealStatus `json:"appeal_status"`
	CreatedAt time.Time    `json:"timestamp"`
}

// Turn is one role-tagged message inside an appeal's history. The user
// turn and the bot turn of a single exchange share MessageID, which is
// the Telegram id of the triggering user message.
type Turn struct {
	MessageID int       `json:"message_id"`
	UserID    int64     `json:"user_id"`
	AppealID  string    `json:"appeal_id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Tokens    *int      `json:"tokens,omitempty"`
}
