package models

// ZoneState is derived per tick: Pending until the threshold passes, then Completed.
type ZoneState string

const (
	ZonePending   ZoneState = "pending"
	ZoneCompleted ZoneState = "completed"
)

// ChatState is the transient FSM step of a chat waiting for text input.
type ChatState string

const (
	ChatIdle          ChatState = ""
	ChatWaitWallet    ChatState = "wait_wallet"
	ChatWaitStartDate ChatState = "wait_start_date"
	ChatWaitStartTime ChatState = "wait_start_time:" // + YYYY-MM-DD
	ChatConfirmStart  ChatState = "confirm_start:"   // + RFC3339 start
)
