package domain

// State is the position of a conversation in the intake flow.
type State string

const (
	StateAwaitingName              State = "awaiting_name"
	StateAwaitingNeighborhood      State = "awaiting_neighborhood"
	StateAwaitingProblemType       State = "awaiting_problem_type"
	StateAwaitingLocation          State = "awaiting_location"
	StateAwaitingDetails           State = "awaiting_details"
	StateAwaitingAdditionalDetails State = "awaiting_additional_details"
	StateAwaitingConfirmation      State = "awaiting_confirmation"
	StateAwaitingEditSelection     State = "awaiting_edit_selection"
	StateAwaitingEditValue         State = "awaiting_edit_value"

	// StateCompleted is never stored: reaching it deletes the session.
	StateCompleted State = "completed"
)

// InitialState is the state of a freshly created session, after the greeting.
const InitialState = StateAwaitingName

// States lists every stored state in forward order.
var States = []State{
	StateAwaitingName,
	StateAwaitingNeighborhood,
	StateAwaitingProblemType,
	StateAwaitingLocation,
	StateAwaitingDetails,
	StateAwaitingAdditionalDetails,
	StateAwaitingConfirmation,
	StateAwaitingEditSelection,
	StateAwaitingEditValue,
}

// Session is the per-conversant conversation in progress.
type Session struct {
	// ConversantID is the transport address of the remote party.
	ConversantID string `json:"conversant_id"`

	// Contact is the identity printed on the report (phone number, handle).
	// Defaults to ConversantID.
	Contact string `json:"contact,omitempty"`

	State  State           `json:"state"`
	Record ComplaintRecord `json:"record"`

	// PendingEdit names the field being re-entered while in StateAwaitingEditValue.
	PendingEdit Field `json:"pending_edit,omitempty"`

	// Sealed carries the encrypted session when stored behind the encryption middleware.
	Sealed string `json:"sealed,omitempty"`
}

// NewSession creates a session in the initial state.
func NewSession(conversantID, contact string) *Session {
	if contact == "" {
		contact = conversantID
	}
	return &Session{
		ConversantID: conversantID,
		Contact:      contact,
		State:        InitialState,
	}
}

// Snapshot returns an independent copy of the session.
func (s *Session) Snapshot() *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
