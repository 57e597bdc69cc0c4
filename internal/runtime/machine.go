package runtime

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aretw0/ouvidoria/pkg/domain"
)

// Result is the outcome of feeding one inbound message to a session.
type Result struct {
	// Session is the next snapshot to persist. It is nil when Terminal is set.
	Session *domain.Session

	// Actions are the side effects to perform, in order.
	Actions []domain.Action

	// Terminal indicates the complaint was confirmed and the session must be removed.
	Terminal bool
}

// Start emits the greeting for a freshly created session.
func Start(s *domain.Session) Result {
	next := s.Snapshot()
	next.State = domain.InitialState
	return Result{
		Session: next,
		Actions: []domain.Action{domain.Text(msgGreeting)},
	}
}

// Step executes a single transition. It never mutates s.
// Bounded-choice rejections return a Result carrying the retry message and
// the unchanged session, together with an error wrapping domain.ErrInvalidChoice.
func Step(s *domain.Session, input string) (Result, error) {
	next := s.Snapshot()

	switch s.State {
	case domain.StateAwaitingName:
		next.Record.Name = input
		next.State = domain.StateAwaitingNeighborhood
		return say(next, fmt.Sprintf(msgNeighborhood, input)), nil

	case domain.StateAwaitingNeighborhood,
		domain.StateAwaitingProblemType,
		domain.StateAwaitingLocation,
		domain.StateAwaitingDetails,
		domain.StateAwaitingAdditionalDetails:
		return forward(next, input)

	case domain.StateAwaitingConfirmation:
		switch input {
		case "1":
			return Result{
				Actions:  []domain.Action{domain.Text(msgSuccess), {Type: domain.ActionSendReport}},
				Terminal: true,
			}, nil
		case "2":
			next.State = domain.StateAwaitingEditSelection
			return say(next, editMenu()), nil
		}
		return retry(next, msgInvalidConfirmation)

	case domain.StateAwaitingEditSelection:
		n, ok := parseChoice(input)
		field, valid := domain.FieldForChoice(n)
		if !ok || !valid {
			return retry(next, msgInvalidEditChoice)
		}
		next.PendingEdit = field
		next.State = domain.StateAwaitingEditValue
		return say(next, fieldPrompt(field)), nil

	case domain.StateAwaitingEditValue:
		return reenter(next, input)
	}

	return Result{}, fmt.Errorf("unknown state %q", s.State)
}

// forwardField maps each forward-flow state to the field it collects.
var forwardField = map[domain.State]domain.Field{
	domain.StateAwaitingNeighborhood:      domain.FieldNeighborhood,
	domain.StateAwaitingProblemType:       domain.FieldProblemType,
	domain.StateAwaitingLocation:          domain.FieldLocation,
	domain.StateAwaitingDetails:           domain.FieldDetails,
	domain.StateAwaitingAdditionalDetails: domain.FieldAdditionalDetails,
}

// forwardNext maps each forward-flow state to its successor.
var forwardNext = map[domain.State]domain.State{
	domain.StateAwaitingNeighborhood:      domain.StateAwaitingProblemType,
	domain.StateAwaitingProblemType:       domain.StateAwaitingLocation,
	domain.StateAwaitingLocation:          domain.StateAwaitingDetails,
	domain.StateAwaitingDetails:           domain.StateAwaitingAdditionalDetails,
	domain.StateAwaitingAdditionalDetails: domain.StateAwaitingConfirmation,
}

func forward(next *domain.Session, input string) (Result, error) {
	field := forwardField[next.State]
	value, err := acceptValue(field, input)
	if err != nil {
		return retry(next, retryMessage(field))
	}

	next.Record = next.Record.With(field, value)
	next.State = forwardNext[next.State]

	if next.State == domain.StateAwaitingConfirmation {
		return say(next, confirmationSummary(next.Record)), nil
	}
	return say(next, fieldPrompt(forwardField[next.State])), nil
}

// reenter handles AwaitingEditValue for whichever field is pending, with the
// same validation as the forward flow, and returns to confirmation.
func reenter(next *domain.Session, input string) (Result, error) {
	field := next.PendingEdit
	if field == domain.FieldNone {
		// Nothing pending: fall back to the edit menu rather than wedging the session.
		next.State = domain.StateAwaitingEditSelection
		return say(next, editMenu()), nil
	}

	value, err := acceptValue(field, input)
	if err != nil {
		return retry(next, retryMessage(field))
	}

	next.Record = next.Record.With(field, value)
	next.PendingEdit = domain.FieldNone
	next.State = domain.StateAwaitingConfirmation
	return say(next, confirmationSummary(next.Record)), nil
}

// acceptValue validates input for a field. Only the problem type is bounded;
// every free-text field accepts any input, including empty text.
func acceptValue(field domain.Field, input string) (string, error) {
	if field != domain.FieldProblemType {
		return input, nil
	}
	n, ok := parseChoice(input)
	if !ok {
		return "", fmt.Errorf("%w: %q is not a number", domain.ErrInvalidChoice, input)
	}
	p, ok := domain.ProblemTypeForChoice(n)
	if !ok {
		return "", fmt.Errorf("%w: %d is out of range", domain.ErrInvalidChoice, n)
	}
	return string(p), nil
}

func retryMessage(field domain.Field) string {
	if field == domain.FieldProblemType {
		return msgInvalidProblemType
	}
	return msgInvalidEditChoice
}

func parseChoice(input string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		return 0, false
	}
	return n, true
}

func say(next *domain.Session, msg string) Result {
	return Result{Session: next, Actions: []domain.Action{domain.Text(msg)}}
}

func retry(next *domain.Session, msg string) (Result, error) {
	return say(next, msg), fmt.Errorf("%w in state %s", domain.ErrInvalidChoice, next.State)
}
