package runtime

import (
	"testing"

	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// feed runs inputs through Step starting from a fresh session and returns the
// last result. It fails the test on any unexpected error.
func feed(t *testing.T, inputs ...string) Result {
	t.Helper()
	res := Start(domain.NewSession("5511999990000", ""))
	for _, in := range inputs {
		var err error
		res, err = Step(res.Session, in)
		require.NoError(t, err, "input %q", in)
		if res.Terminal {
			break
		}
	}
	return res
}

func TestStart(t *testing.T) {
	res := Start(domain.NewSession("c1", ""))

	require.NotNil(t, res.Session)
	assert.Equal(t, domain.StateAwaitingName, res.Session.State)
	require.Len(t, res.Actions, 1)
	assert.Equal(t, domain.ActionSendText, res.Actions[0].Type)
	assert.Contains(t, res.Actions[0].Text, "name")
	assert.False(t, res.Terminal)
}

func TestStep_ForwardFlow(t *testing.T) {
	res := feed(t, "Alice", "Downtown", "3", "Main St", "Pothole", "")

	require.NotNil(t, res.Session)
	assert.Equal(t, domain.StateAwaitingConfirmation, res.Session.State)
	assert.Equal(t, domain.ComplaintRecord{
		Name:              "Alice",
		Neighborhood:      "Downtown",
		ProblemType:       domain.ProblemInfrastructure,
		Location:          "Main St",
		Details:           "Pothole",
		AdditionalDetails: "",
	}, res.Session.Record)

	require.Len(t, res.Actions, 1)
	summary := res.Actions[0].Text
	for _, want := range []string{"Infrastructure", "Downtown", "Main St", "Pothole", "Reply *1* to confirm"} {
		assert.Contains(t, summary, want)
	}
}

func TestStep_StatesAdvanceInOrder(t *testing.T) {
	expected := []domain.State{
		domain.StateAwaitingNeighborhood,
		domain.StateAwaitingProblemType,
		domain.StateAwaitingLocation,
		domain.StateAwaitingDetails,
		domain.StateAwaitingAdditionalDetails,
		domain.StateAwaitingConfirmation,
	}
	inputs := []string{"Bob", "Centro", "1", "Rua A", "Lixo", "desde ontem"}

	s := Start(domain.NewSession("c1", "")).Session
	for i, in := range inputs {
		res, err := Step(s, in)
		require.NoError(t, err)
		assert.Equal(t, expected[i], res.Session.State, "after input %q", in)
		assert.Len(t, res.Actions, 1, "exactly one outbound message per transition")
		s = res.Session
	}
}

func TestStep_FreeTextAcceptsEmpty(t *testing.T) {
	res := feed(t, "", "", "6", "", "", "")

	require.NotNil(t, res.Session)
	assert.Equal(t, domain.StateAwaitingConfirmation, res.Session.State)
	assert.Equal(t, domain.ProblemOther, res.Session.Record.ProblemType)
	assert.Empty(t, res.Session.Record.Name)
	assert.Empty(t, res.Session.Record.AdditionalDetails, "empty additional details must be stored as-is")
}

func TestStep_InvalidProblemType(t *testing.T) {
	base := feed(t, "Alice", "Downtown").Session
	require.Equal(t, domain.StateAwaitingProblemType, base.State)

	for _, in := range []string{"0", "7", "9", "abc", "", "1.5", "-1"} {
		t.Run(in, func(t *testing.T) {
			res, err := Step(base, in)

			assert.ErrorIs(t, err, domain.ErrInvalidChoice)
			require.NotNil(t, res.Session)
			assert.Equal(t, base.State, res.Session.State)
			assert.Equal(t, base.Record, res.Session.Record)
			require.Len(t, res.Actions, 1)
			assert.Contains(t, res.Actions[0].Text, "1 to 6")
		})
	}
}

func TestStep_ProblemTypeTrimsWhitespace(t *testing.T) {
	base := feed(t, "Alice", "Downtown").Session

	res, err := Step(base, " 4 ")
	require.NoError(t, err)
	assert.Equal(t, domain.ProblemHealth, res.Session.Record.ProblemType)
}

func TestStep_RetryThenProceed(t *testing.T) {
	s := feed(t, "Alice", "Downtown").Session

	res, err := Step(s, "9")
	require.ErrorIs(t, err, domain.ErrInvalidChoice)
	assert.Equal(t, domain.StateAwaitingProblemType, res.Session.State)
	assert.Empty(t, res.Session.Record.ProblemType)

	res, err = Step(res.Session, "3")
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingLocation, res.Session.State)
	assert.Equal(t, domain.ProblemInfrastructure, res.Session.Record.ProblemType)
}

func TestStep_Confirmation(t *testing.T) {
	confirm := feed(t, "Alice", "Downtown", "3", "Main St", "Pothole", "").Session

	t.Run("confirm", func(t *testing.T) {
		res, err := Step(confirm, "1")
		require.NoError(t, err)
		assert.True(t, res.Terminal)
		assert.Nil(t, res.Session)
		require.Len(t, res.Actions, 2)
		assert.Equal(t, domain.ActionSendText, res.Actions[0].Type)
		assert.Equal(t, domain.ActionSendReport, res.Actions[1].Type)
	})

	t.Run("edit", func(t *testing.T) {
		res, err := Step(confirm, "2")
		require.NoError(t, err)
		assert.Equal(t, domain.StateAwaitingEditSelection, res.Session.State)
		require.Len(t, res.Actions, 1)
		for _, label := range []string{"1 - Problem", "2 - Neighborhood", "3 - Location", "4 - Details", "5 - Additional Details"} {
			assert.Contains(t, res.Actions[0].Text, label)
		}
	})

	for _, in := range []string{"0", "3", "yes", "", " 1 ", "2\t", "1\n"} {
		t.Run("invalid "+in, func(t *testing.T) {
			res, err := Step(confirm, in)
			assert.ErrorIs(t, err, domain.ErrInvalidChoice)
			assert.False(t, res.Terminal)
			assert.Equal(t, confirm, res.Session)
			assert.Len(t, res.Actions, 1)
		})
	}
}

func TestStep_EditLoop(t *testing.T) {
	original := feed(t, "Alice", "Downtown", "3", "Main St", "Pothole", "").Session

	cases := []struct {
		choice string
		input  string
		field  domain.Field
		want   string
	}{
		{"1", "5", domain.FieldProblemType, "Education"},
		{"2", "Uptown", domain.FieldNeighborhood, "Uptown"},
		{"3", "Oak Ave", domain.FieldLocation, "Oak Ave"},
		{"4", "Deep pothole", domain.FieldDetails, "Deep pothole"},
		{"5", "Two weeks now", domain.FieldAdditionalDetails, "Two weeks now"},
	}

	for _, tc := range cases {
		t.Run(tc.field.Label(), func(t *testing.T) {
			res, err := Step(original, "2")
			require.NoError(t, err)

			res, err = Step(res.Session, tc.choice)
			require.NoError(t, err)
			assert.Equal(t, domain.StateAwaitingEditValue, res.Session.State)
			assert.Equal(t, tc.field, res.Session.PendingEdit)
			require.Len(t, res.Actions, 1)
			assert.Equal(t, fieldPrompt(tc.field), res.Actions[0].Text, "re-entry reuses the forward prompt")

			res, err = Step(res.Session, tc.input)
			require.NoError(t, err)
			assert.Equal(t, domain.StateAwaitingConfirmation, res.Session.State)
			assert.Equal(t, domain.FieldNone, res.Session.PendingEdit)
			assert.Equal(t, tc.want, res.Session.Record.Value(tc.field))
			assert.Equal(t, []domain.Field{tc.field}, domain.DiffRecords(original.Record, res.Session.Record),
				"all other fields must be unchanged")
			require.Len(t, res.Actions, 1)
			assert.Contains(t, res.Actions[0].Text, tc.want)
		})
	}
}

func TestStep_EditSelectionInvalid(t *testing.T) {
	confirm := feed(t, "Alice", "Downtown", "3", "Main St", "Pothole", "").Session
	sel, err := Step(confirm, "2")
	require.NoError(t, err)

	for _, in := range []string{"0", "6", "name", ""} {
		res, err := Step(sel.Session, in)
		assert.ErrorIs(t, err, domain.ErrInvalidChoice)
		assert.Equal(t, domain.StateAwaitingEditSelection, res.Session.State)
		assert.Equal(t, domain.FieldNone, res.Session.PendingEdit)
		assert.Len(t, res.Actions, 1)
	}
}

func TestStep_EditProblemTypeInvalid(t *testing.T) {
	confirm := feed(t, "Alice", "Downtown", "3", "Main St", "Pothole", "").Session
	res, err := Step(confirm, "2")
	require.NoError(t, err)
	res, err = Step(res.Session, "1")
	require.NoError(t, err)

	retry, err := Step(res.Session, "42")
	assert.ErrorIs(t, err, domain.ErrInvalidChoice)
	assert.Equal(t, domain.StateAwaitingEditValue, retry.Session.State)
	assert.Equal(t, domain.FieldProblemType, retry.Session.PendingEdit)
	assert.Equal(t, domain.ProblemInfrastructure, retry.Session.Record.ProblemType)
	require.Len(t, retry.Actions, 1)
	assert.Equal(t, msgInvalidProblemType, retry.Actions[0].Text)
}

func TestStep_RepeatedEdits(t *testing.T) {
	res := feed(t, "Alice", "Downtown", "3", "Main St", "Pothole", "", "2", "3", "Oak Ave", "2", "5", "urgent")

	require.NotNil(t, res.Session)
	assert.Equal(t, domain.StateAwaitingConfirmation, res.Session.State)
	assert.Equal(t, "Oak Ave", res.Session.Record.Location)
	assert.Equal(t, "urgent", res.Session.Record.AdditionalDetails)

	final, err := Step(res.Session, "1")
	require.NoError(t, err)
	assert.True(t, final.Terminal)
}

func TestStep_DoesNotMutateInput(t *testing.T) {
	s := feed(t, "Alice").Session
	before := *s

	_, err := Step(s, "Downtown")
	require.NoError(t, err)
	assert.Equal(t, before, *s)
}

func TestStep_EditValueWithoutPendingField(t *testing.T) {
	s := domain.NewSession("c1", "")
	s.State = domain.StateAwaitingEditValue

	res, err := Step(s, "anything")
	require.NoError(t, err)
	assert.Equal(t, domain.StateAwaitingEditSelection, res.Session.State)
}

func TestStep_UnknownState(t *testing.T) {
	s := domain.NewSession("c1", "")
	s.State = "bogus"

	_, err := Step(s, "x")
	assert.Error(t, err)
}

func TestEdges_CoverEveryState(t *testing.T) {
	from := make(map[domain.State]bool)
	for _, e := range Edges() {
		from[e.From] = true
	}
	for _, s := range domain.States {
		assert.True(t, from[s], "state %s has no outgoing edge", s)
	}
}
