package holiday_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/holiday-engine/holiday"
)

// =============================================================================
// HOLIDAY INPUT
// =============================================================================

func TestValidateHolidayInput_Valid(t *testing.T) {
	start := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.June, 6, 0, 0, 0, 0, time.UTC)

	assert.NoError(t, holiday.ValidateHolidayInput(&start, &end))
}

func TestValidateHolidayInput_StartAfterEnd(t *testing.T) {
	// GIVEN: Both dates present but inverted
	// WHEN: Validating
	// THEN: Exactly the ordering violation is reported

	start := time.Date(2025, time.June, 6, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC)

	err := holiday.ValidateHolidayInput(&start, &end)
	require.Error(t, err)

	var vErr *holiday.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Violations, 1)
}

func TestValidateHolidayInput_BothMissing_TwoViolations(t *testing.T) {
	// GIVEN: Neither date present
	// WHEN: Validating
	// THEN: Both absences are reported together, not one at a time

	err := holiday.ValidateHolidayInput(nil, nil)
	require.Error(t, err)

	var vErr *holiday.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Violations, 2)
}

// =============================================================================
// REGISTRATION
// =============================================================================

func validRegistration() holiday.RegistrationInput {
	return holiday.RegistrationInput{
		Name:     "Jane",
		Surname:  "Doe",
		Username: "jane42",
		Password: "Secret123",
		Email:    "jane@example.com",
		Age:      30,
	}
}

func TestRegistrationRules_ValidInput(t *testing.T) {
	rules := holiday.DefaultRegistrationRules()
	assert.NoError(t, rules.Validate(validRegistration()))
}

func TestRegistrationRules_CollectsEveryViolation(t *testing.T) {
	// GIVEN: An input violating name, username, email, age and password rules
	// WHEN: Validating
	// THEN: All violations arrive in a single error

	rules := holiday.DefaultRegistrationRules()
	err := rules.Validate(holiday.RegistrationInput{
		Name:     "J4ne",
		Surname:  "Doe",
		Username: "jane doe",
		Password: "short",
		Email:    "not-an-email",
		Age:      16,
	})
	require.Error(t, err)

	var vErr *holiday.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.GreaterOrEqual(t, len(vErr.Violations), 5)
	assert.Contains(t, vErr.Error(), "age should be at least 18")
}

func TestRegistrationRules_PasswordCharacterClasses(t *testing.T) {
	// GIVEN: A long password missing uppercase and digit classes
	// WHEN: Validating
	// THEN: Each missing class is its own violation

	rules := holiday.DefaultRegistrationRules()
	in := validRegistration()
	in.Password = "alllowercase"

	err := rules.Validate(in)
	require.Error(t, err)

	var vErr *holiday.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Len(t, vErr.Violations, 2)
}

func TestRegistrationRules_EmptyFieldsReportedAsEmpty(t *testing.T) {
	rules := holiday.DefaultRegistrationRules()
	in := validRegistration()
	in.Name = ""

	err := rules.Validate(in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name cannot be empty")
}
