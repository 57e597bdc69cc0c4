package report

import (
	"strings"

	"github.com/aretw0/ouvidoria/pkg/domain"
)

const (
	rule  = "-------------------------------------------------------"
	title = "            COMPLAINT REPORT"

	// NotAvailable replaces empty additional details on the document.
	NotAvailable = "N/A"
)

// Letterhead holds the static blocks of the document.
type Letterhead struct {
	Addressee      []string `yaml:"addressee" mapstructure:"addressee"`
	ElectionNumber string   `yaml:"election_number" mapstructure:"election_number"`
	Closing        []string `yaml:"closing" mapstructure:"closing"`
}

// DefaultLetterhead is used when no letterhead is configured.
var DefaultLetterhead = Letterhead{
	Addressee:      []string{"To the Office of the City Councilor", "Municipal Chamber"},
	ElectionNumber: "Election Number: 12345",
	Closing:        []string{"Sincerely,", "Citizen Service Team"},
}

// Lines lays out the document text, one entry per printed line.
func Lines(reportID string, r domain.ComplaintRecord, contact string, lh Letterhead) []string {
	additional := r.AdditionalDetails
	if additional == "" {
		additional = NotAvailable
	}

	lines := []string{
		rule,
		title,
		rule,
		"",
		"Report Number: " + reportID,
		"",
	}
	lines = append(lines, lh.Addressee...)
	lines = append(lines,
		"",
		lh.ElectionNumber,
		"",
		"We received a complaint as follows:",
		"",
		"Problem: "+string(r.ProblemType),
		"Neighborhood: "+r.Neighborhood,
		"Location: "+r.Location,
		"Details: "+r.Details,
		"Additional Details: "+additional,
		"",
		"Complainant Contact Number: "+contact,
		"",
	)
	lines = append(lines, lh.Closing...)
	return append(lines, rule)
}

// Text renders the document as a single text block.
func Text(reportID string, r domain.ComplaintRecord, contact string, lh Letterhead) string {
	return strings.Join(Lines(reportID, r, contact, lh), "\n") + "\n"
}
