// Package ws pushes live updates to signed-in members over WebSocket.
//
//   - Hub tracks every connection, keyed by user id (a user may have several tabs).
//   - Client is one connection with a read pump and a write pump.
//   - Event is the JSON frame exchanged in both directions.
//
// Services never import Hub directly; they publish through EventPublisher
// after their database write succeeded.
package ws

// Event is a frame on the socket. Seq increases with every outbound event
// so clients can detect gaps.
type Event struct {
	Op   string `json:"op"`
	Data any    `json:"d,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

// Client → server.
const (
	OpHeartbeat = "heartbeat"
)

// Server → client.
const (
	OpReady          = "ready"
	OpHeartbeatAck   = "heartbeat_ack"
	OpQuestionCreate = "question_create"
	OpQuestionDelete = "question_delete"
	OpAnswerCreate   = "answer_create"
	OpAnswerDelete   = "answer_delete"
	OpGroupUpdate    = "group_update"
)

// ReadyData is sent once after the connection is registered.
type ReadyData struct {
	UserID        string   `json:"user_id"`
	Role          string   `json:"role"`
	OnlineUserIDs []string `json:"online_user_ids"`
}

// QuestionDeleteData identifies a removed question.
type QuestionDeleteData struct {
	ID      string  `json:"id"`
	GroupID *string `json:"group_id,omitempty"`
}

// AnswerDeleteData identifies a removed answer.
type AnswerDeleteData struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id"`
}

// GroupUpdateData tells group members to refetch their group view.
// Reason is one of "member_added", "member_removed", "updated", "deleted",
// "progress", "reflection".
type GroupUpdateData struct {
	GroupID string `json:"group_id"`
	Reason  string `json:"reason"`
	UserID  string `json:"user_id,omitempty"`
}
