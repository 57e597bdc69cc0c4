package runtime

import "github.com/aretw0/ouvidoria/pkg/domain"

// Edge is one transition of the intake flow.
type Edge struct {
	From  domain.State
	To    domain.State
	Label string // input condition, empty when any text is accepted
}

// Edges returns the exhaustive transition table, including retry self-loops.
func Edges() []Edge {
	edges := []Edge{
		{From: domain.StateAwaitingName, To: domain.StateAwaitingNeighborhood},
	}
	for _, from := range []domain.State{
		domain.StateAwaitingNeighborhood,
		domain.StateAwaitingProblemType,
		domain.StateAwaitingLocation,
		domain.StateAwaitingDetails,
		domain.StateAwaitingAdditionalDetails,
	} {
		label := ""
		if forwardField[from] == domain.FieldProblemType {
			label = "1-6"
			edges = append(edges, Edge{From: from, To: from, Label: "invalid"})
		}
		edges = append(edges, Edge{From: from, To: forwardNext[from], Label: label})
	}
	return append(edges,
		Edge{From: domain.StateAwaitingConfirmation, To: domain.StateCompleted, Label: "1"},
		Edge{From: domain.StateAwaitingConfirmation, To: domain.StateAwaitingEditSelection, Label: "2"},
		Edge{From: domain.StateAwaitingConfirmation, To: domain.StateAwaitingConfirmation, Label: "invalid"},
		Edge{From: domain.StateAwaitingEditSelection, To: domain.StateAwaitingEditValue, Label: "1-5"},
		Edge{From: domain.StateAwaitingEditSelection, To: domain.StateAwaitingEditSelection, Label: "invalid"},
		Edge{From: domain.StateAwaitingEditValue, To: domain.StateAwaitingConfirmation},
		Edge{From: domain.StateAwaitingEditValue, To: domain.StateAwaitingEditValue, Label: "invalid problem"},
	)
}
