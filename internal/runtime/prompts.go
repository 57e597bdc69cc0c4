package runtime

import (
	"fmt"
	"strings"

	"github.com/aretw0/ouvidoria/pkg/domain"
)

// Messages are formatted with WhatsApp-style markup (*bold*), which Slack and
// Discord render acceptably.
const (
	msgGreeting = "Hello! This is the citizen complaint channel. 📢\n\n" +
		"I will ask a few quick questions to register your complaint.\n\n" +
		"To start, what is your *name*?"

	msgNeighborhood = "Welcome, %s! 👋\n\nWhich *neighborhood* is the problem in?"

	msgLocation          = "Where exactly is the problem? Please send the *address or a reference point*."
	msgDetails           = "Please *describe the problem* in as much detail as you can."
	msgAdditionalDetails = "Is there anything else you would like to add? (for example how long the problem has existed)\n\n" +
		"If not, just reply *N/A*."

	msgInvalidProblemType  = "❌ Invalid choice. Please reply with a number from 1 to 6."
	msgInvalidConfirmation = "❌ Invalid choice. Reply *1* to confirm or *2* to edit."
	msgInvalidEditChoice   = "❌ Invalid choice. Please reply with a number from 1 to 5."

	msgSuccess = "✅ Your complaint has been registered! The report document follows below.\n\nThank you for helping improve our city."

	// MsgRenderFailure is sent when the report cannot be produced; the session is kept.
	MsgRenderFailure = "😞 Sorry, we could not generate your report right now. Please reply *1* again to retry."

	// MsgInputRejected is sent when inbound text fails sanitization.
	MsgInputRejected = "⚠️ Your message could not be processed (too long or malformed). Please try again."
)

func problemTypeMenu() string {
	var sb strings.Builder
	sb.WriteString("What type of *problem* are you reporting?\n\n")
	for i, p := range domain.ProblemTypes {
		fmt.Fprintf(&sb, "%d - %s\n", i+1, p)
	}
	sb.WriteString("\nReply with the option number.")
	return sb.String()
}

func editMenu() string {
	var sb strings.Builder
	sb.WriteString("Which field would you like to *edit*?\n\n")
	for i, f := range domain.EditableFields {
		fmt.Fprintf(&sb, "%d - %s\n", i+1, f.Label())
	}
	sb.WriteString("\nReply with the option number.")
	return sb.String()
}

// confirmationSummary embeds the five complaint fields the conversant can edit.
func confirmationSummary(r domain.ComplaintRecord) string {
	var sb strings.Builder
	sb.WriteString("📋 *Please review your complaint:*\n\n")
	for _, f := range domain.EditableFields {
		fmt.Fprintf(&sb, "*%s:* %s\n", f.Label(), r.Value(f))
	}
	sb.WriteString("\nReply *1* to confirm or *2* to edit a field.")
	return sb.String()
}

// fieldPrompt is the prompt shared by the forward flow and edit re-entry.
func fieldPrompt(f domain.Field) string {
	switch f {
	case domain.FieldProblemType:
		return problemTypeMenu()
	case domain.FieldNeighborhood:
		return "Which *neighborhood* is the problem in?"
	case domain.FieldLocation:
		return msgLocation
	case domain.FieldDetails:
		return msgDetails
	case domain.FieldAdditionalDetails:
		return msgAdditionalDetails
	}
	return ""
}
