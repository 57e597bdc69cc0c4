package domain

import "time"

// ActionType defines the kind of side effect the state machine requests.
type ActionType string

const (
	// ActionSendText requests a plain text message to the conversant.
	ActionSendText ActionType = "SEND_TEXT"

	// ActionSendReport requests the host to render the record and send it as a file.
	ActionSendReport ActionType = "SEND_REPORT"
)

// Action represents a side effect the state machine asks the host to perform.
type Action struct {
	Type ActionType
	Text string // payload for ActionSendText
}

// Text is shorthand for a text action.
func Text(msg string) Action {
	return Action{Type: ActionSendText, Text: msg}
}

// GeneratedReport is the artifact produced for a confirmed complaint.
type GeneratedReport struct {
	ReportID string
	Record   ComplaintRecord
	Data     []byte
	FileName string
}

// Attachment is a file sent to the conversant.
type Attachment struct {
	FileName string `json:"file_name"`
	Data     []byte `json:"data"`
}

// InboundMessage is a message received from a transport.
type InboundMessage struct {
	Platform     string    // e.g. "slack", "discord", "console"
	ConversantID string    // reply address, also the session key
	Contact      string    // display identity for the report (phone, handle)
	Text         string    // raw message text
	Timestamp    time.Time // when the message was sent
}

// OutboundMessage is either a text message or a file attachment.
type OutboundMessage struct {
	ConversantID string
	Text         string
	Attachment   *Attachment
}
