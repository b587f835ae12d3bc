/*
validate.go - Input-shape validation ahead of the engine

PURPOSE:
  Pure structural checks executed before any persistence call. Validators
  collect ALL violations into a Violations map and fail once with a
  ValidationError, so a single failed call reports every problem at once.

  Rules for registration (name/surname/username/email patterns, minimum age,
  password policy) are configurable; DefaultRegistrationRules mirrors the
  shipped configuration.
*/
package holiday

import (
	"regexp"
	"strconv"
	"time"
	"unicode"
)

// =============================================================================
// HOLIDAY CREATION VALIDATION
// =============================================================================

// ValidateHolidayInput checks the raw creation input. Nil start, nil end,
// and start-after-end are independent, individually reported violations.
func ValidateHolidayInput(start, end *time.Time) error {
	v := Violations{}

	if start == nil {
		v.Add("start date", "start date cannot be null")
	}
	if end == nil {
		v.Add("end date", "end date cannot be null")
	}
	if start != nil && end != nil && start.After(*end) {
		v.Add("start end date", "start date cannot be after end date")
	}

	return v.Err()
}

// =============================================================================
// REGISTRATION VALIDATION
// =============================================================================

// RegistrationInput is the raw material of a new employee account.
type RegistrationInput struct {
	Name     string
	Surname  string
	Username string
	Password string
	Email    string
	Age      int
}

// RegistrationRules holds the configurable constraints applied to new
// accounts.
type RegistrationRules struct {
	NamePattern     *regexp.Regexp
	SurnamePattern  *regexp.Regexp
	UsernamePattern *regexp.Regexp
	EmailPattern    *regexp.Regexp
	MinAge          int
	PasswordMinLen  int
}

// DefaultRegistrationRules returns the stock rule set: letters-only names,
// alphanumeric usernames, a plain email shape, working age, and an
// eight-character password with upper, lower and digit classes.
func DefaultRegistrationRules() RegistrationRules {
	return RegistrationRules{
		NamePattern:     regexp.MustCompile(`^[A-Za-z]+$`),
		SurnamePattern:  regexp.MustCompile(`^[A-Za-z]+$`),
		UsernamePattern: regexp.MustCompile(`^[A-Za-z0-9]+$`),
		EmailPattern:    regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`),
		MinAge:          18,
		PasswordMinLen:  8,
	}
}

// Validate checks a registration against the rules, collecting every
// violation before failing.
func (rules RegistrationRules) Validate(in RegistrationInput) error {
	v := Violations{}

	validatePattern(v, "name", in.Name, rules.NamePattern, "name should contain only letters")
	validatePattern(v, "surname", in.Surname, rules.SurnamePattern, "surname should contain only letters")
	validatePattern(v, "username", in.Username, rules.UsernamePattern, "username should contain only letters and numbers")
	validatePattern(v, "email", in.Email, rules.EmailPattern, "email has invalid format")

	if in.Age < rules.MinAge {
		v.Add("age", "age should be at least "+strconv.Itoa(rules.MinAge))
	}

	ValidatePassword(v, in.Password, rules.PasswordMinLen)

	return v.Err()
}

// ValidateEmail records a violation when the email is empty or malformed.
func ValidateEmail(v Violations, email string, pattern *regexp.Regexp) {
	validatePattern(v, "email", email, pattern, "email has invalid format")
}

func validatePattern(v Violations, field, value string, pattern *regexp.Regexp, message string) {
	if value == "" {
		v.Add(field, field+" cannot be empty")
		return
	}
	if pattern != nil && !pattern.MatchString(value) {
		v.Add(field, message)
	}
}

// ValidatePassword records every violation of the password rules: minimum
// length plus upper, lower and digit character classes.
func ValidatePassword(v Violations, password string, minLen int) {
	if password == "" {
		v.Add("password", "password cannot be empty")
		return
	}
	if len(password) < minLen {
		v.Add("password length", "password should be at least "+strconv.Itoa(minLen)+" characters")
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper {
		v.Add("password upper", "password should contain an uppercase letter")
	}
	if !hasLower {
		v.Add("password lower", "password should contain a lowercase letter")
	}
	if !hasDigit {
		v.Add("password digit", "password should contain a digit")
	}
}

