package domain

// ProblemType is one of the fixed complaint categories.
type ProblemType string

const (
	ProblemWaste          ProblemType = "Waste & cleaning"
	ProblemPublicSafety   ProblemType = "Public safety"
	ProblemInfrastructure ProblemType = "Infrastructure"
	ProblemHealth         ProblemType = "Health"
	ProblemEducation      ProblemType = "Education"
	ProblemOther          ProblemType = "Other"
)

// ProblemTypes lists the categories in menu order. Choice n maps to ProblemTypes[n-1].
var ProblemTypes = []ProblemType{
	ProblemWaste,
	ProblemPublicSafety,
	ProblemInfrastructure,
	ProblemHealth,
	ProblemEducation,
	ProblemOther,
}

// ProblemTypeForChoice maps a 1-based menu choice to its category.
func ProblemTypeForChoice(n int) (ProblemType, bool) {
	if n < 1 || n > len(ProblemTypes) {
		return "", false
	}
	return ProblemTypes[n-1], true
}

// Field names a record field that can be re-entered from the edit menu.
type Field string

const (
	FieldNone              Field = ""
	FieldProblemType       Field = "problem_type"
	FieldNeighborhood      Field = "neighborhood"
	FieldLocation          Field = "location"
	FieldDetails           Field = "details"
	FieldAdditionalDetails Field = "additional_details"
)

// EditableFields lists the edit menu entries in order. Choice n maps to EditableFields[n-1].
var EditableFields = []Field{
	FieldProblemType,
	FieldNeighborhood,
	FieldLocation,
	FieldDetails,
	FieldAdditionalDetails,
}

// Label returns the human readable label used in menus and on the report.
func (f Field) Label() string {
	switch f {
	case FieldProblemType:
		return "Problem"
	case FieldNeighborhood:
		return "Neighborhood"
	case FieldLocation:
		return "Location"
	case FieldDetails:
		return "Details"
	case FieldAdditionalDetails:
		return "Additional Details"
	}
	return string(f)
}

// FieldForChoice maps a 1-based edit menu choice to its field.
func FieldForChoice(n int) (Field, bool) {
	if n < 1 || n > len(EditableFields) {
		return FieldNone, false
	}
	return EditableFields[n-1], true
}

// ComplaintRecord is the structured complaint built up during a conversation.
// AdditionalDetails is stored exactly as typed; the "N/A" placeholder is a
// rendering concern.
type ComplaintRecord struct {
	Name              string      `json:"name" yaml:"name"`
	Neighborhood      string      `json:"neighborhood" yaml:"neighborhood"`
	ProblemType       ProblemType `json:"problem_type" yaml:"problem_type"`
	Location          string      `json:"location" yaml:"location"`
	Details           string      `json:"details" yaml:"details"`
	AdditionalDetails string      `json:"additional_details" yaml:"additional_details"`
}

// Value returns the stored value of an editable field.
func (r ComplaintRecord) Value(f Field) string {
	switch f {
	case FieldProblemType:
		return string(r.ProblemType)
	case FieldNeighborhood:
		return r.Neighborhood
	case FieldLocation:
		return r.Location
	case FieldDetails:
		return r.Details
	case FieldAdditionalDetails:
		return r.AdditionalDetails
	}
	return ""
}

// With returns a copy of the record with field f set to value.
func (r ComplaintRecord) With(f Field, value string) ComplaintRecord {
	switch f {
	case FieldProblemType:
		r.ProblemType = ProblemType(value)
	case FieldNeighborhood:
		r.Neighborhood = value
	case FieldLocation:
		r.Location = value
	case FieldDetails:
		r.Details = value
	case FieldAdditionalDetails:
		r.AdditionalDetails = value
	}
	return r
}
