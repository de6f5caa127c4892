package signup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNext_IsStrictlyLinear(t *testing.T) {
	steps := Steps()
	for i := 0; i < len(steps)-1; i++ {
		next, ok := Next(steps[i])
		require.True(t, ok)
		assert.Equal(t, steps[i+1], next)
	}

	_, ok := Next(StepConfirmation)
	assert.False(t, ok)
	_, ok = Next(Step("bogus"))
	assert.False(t, ok)
}

func TestCanAdvance_NoSkipsNoBackward(t *testing.T) {
	assert.True(t, CanAdvance(StepRegistration, StepCountrySelection))
	assert.False(t, CanAdvance(StepRegistration, StepPaymentInstructions))
	assert.False(t, CanAdvance(StepProofOfPayment, StepCountrySelection))
	assert.False(t, CanAdvance(StepConfirmation, StepConfirmation))
}

func TestTransition(t *testing.T) {
	next, err := Transition(StepCountrySelection, StepCountrySelection)
	require.NoError(t, err)
	assert.Equal(t, StepPaymentInstructions, next)

	cur, err := Transition(StepCountrySelection, StepProofOfPayment)
	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, StepCountrySelection, cur)
	assert.Equal(t, StepProofOfPayment, stepErr.Expected)
}

func TestParseStep(t *testing.T) {
	s, err := ParseStep("proof_of_payment")
	require.NoError(t, err)
	assert.Equal(t, StepProofOfPayment, s)

	_, err = ParseStep("done")
	assert.Error(t, err)
}
