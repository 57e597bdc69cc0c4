package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/ouvidoria/internal/runtime"
	"github.com/aretw0/ouvidoria/pkg/domain"
)

// GraphOverlay contains session data to visualize on the graph.
type GraphOverlay struct {
	CurrentState domain.State
}

// GenerateMermaid produces a Mermaid flowchart from the transition table.
// It applies semantic styling:
// - Initial state: ((Circle))
// - Completed: [[Subroutine]] (the report is sent)
// - Menu states (numeric choice): {Rhombus}
// - Default: [/Parallelogram/] (free text input)
// Retry self-loops are drawn dotted.
func GenerateMermaid(edges []runtime.Edge, overlay ...GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	declared := make(map[domain.State]bool)
	declare := func(s domain.State) {
		if declared[s] {
			return
		}
		declared[s] = true
		opener, closer := "[/", "/]"
		switch {
		case s == domain.InitialState:
			opener, closer = "((", "))"
		case s == domain.StateCompleted:
			opener, closer = "[[", "]]"
		case isMenu(s):
			opener, closer = "{", "}"
		}
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", sanitizeMermaidID(string(s)), opener, s, closer))
	}

	for _, s := range domain.States {
		declare(s)
	}
	declare(domain.StateCompleted)

	for _, e := range edges {
		declare(e.From)
		declare(e.To)

		arrow := "-->"
		if e.From == e.To {
			arrow = "-.->"
		}
		if e.Label != "" {
			label := strings.ReplaceAll(e.Label, "\"", "'")
			arrow = fmt.Sprintf("-- \"%s\" -->", label)
			if e.From == e.To {
				arrow = fmt.Sprintf("-. \"%s\" .->", label)
			}
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", sanitizeMermaidID(string(e.From)), arrow, sanitizeMermaidID(string(e.To))))
	}

	if len(overlay) > 0 && overlay[0].CurrentState != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		sb.WriteString(fmt.Sprintf("    class %s current;\n", sanitizeMermaidID(string(overlay[0].CurrentState))))
	}

	return sb.String()
}

func isMenu(s domain.State) bool {
	switch s {
	case domain.StateAwaitingProblemType, domain.StateAwaitingConfirmation, domain.StateAwaitingEditSelection:
		return true
	}
	return false
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	return s
}
