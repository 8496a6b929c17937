// Package validation holds the input rules applied at the HTTP boundary before any store access.
package validation

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/asaskevich/govalidator"

	"github.com/spec-kit/townhall-portal/internal/domain"
	apperrors "github.com/spec-kit/townhall-portal/pkg/util/errorutil"
)

const (
	msgRequired = "This field is required."

	// MaxDescriptionLength bounds the free-text request description, in runes.
	MaxDescriptionLength = 2000
	// MaxPasswordBytes is bcrypt's input limit.
	MaxPasswordBytes = 72
)

var (
	namePattern = regexp.MustCompile(`^[A-ZĄĆĘŁŃÓŚŻŹ]+$`)
	nonDigits   = regexp.MustCompile(`\D`)

	maxDescription = strconv.Itoa(MaxDescriptionLength)
	peselWeights   = [10]int{1, 3, 7, 9, 1, 3, 7, 9, 1, 3}
)

// ValidPESEL checks an 11-digit national id against its control digit.
func ValidPESEL(s string) bool {
	if len(s) != 11 {
		return false
	}
	sum := 0
	for i := 0; i < 11; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
		if i < 10 {
			sum += int(s[i]-'0') * peselWeights[i]
		}
	}
	control := (10 - sum%10) % 10
	return control == int(s[10]-'0')
}

// ValidEmail requires a local@domain.tld address of at most 254 characters.
func ValidEmail(s string) bool {
	return govalidator.StringLength(s, "1", "254") && govalidator.IsEmail(s)
}

// ValidPhone accepts Polish numbers: 9 digits, optionally prefixed by 48 or +48.
func ValidPhone(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	digits := nonDigits.ReplaceAllString(s, "")
	if strings.HasPrefix(s, "+") {
		return strings.HasPrefix(digits, "48") && len(digits) == 11
	}
	if strings.HasPrefix(digits, "48") {
		return len(digits) == 11
	}
	return len(digits) == 9
}

// ValidName accepts capital letters only, including Polish diacritics.
func ValidName(s string) bool {
	return namePattern.MatchString(s)
}

// StrongPassword requires 8+ characters with lower, upper, digit and one of !@#$%^&*.
func StrongPassword(s string) bool {
	if len(s) < 8 || len(s) > MaxPasswordBytes {
		return false
	}
	var lower, upper, digit, symbol bool
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune("!@#$%^&*", r):
			symbol = true
		}
	}
	return lower && upper && digit && symbol
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Validator accumulates per-field failures.
type Validator struct {
	fields map[string]any
}

// New returns an empty Validator.
func New() *Validator {
	return &Validator{fields: map[string]any{}}
}

func (v *Validator) fail(field, msg string) {
	if _, exists := v.fields[field]; !exists {
		v.fields[field] = msg
	}
}

// Name validates a person name field.
func (v *Validator) Name(field, value string, required bool) {
	switch {
	case value == "" && required:
		v.fail(field, msgRequired)
	case value != "" && !ValidName(value):
		v.fail(field, "Use ONLY CAPITAL LETTERS.")
	}
}

// NationalID validates a PESEL.
func (v *Validator) NationalID(field, value string) {
	switch {
	case value == "":
		v.fail(field, msgRequired)
	case !ValidPESEL(value):
		v.fail(field, "Invalid PESEL.")
	}
}

// Phone validates an optional phone number.
func (v *Validator) Phone(field, value string) {
	if value != "" && !ValidPhone(value) {
		v.fail(field, "Invalid Polish phone number.")
	}
}

// Email validates a required email address.
func (v *Validator) Email(field, value string) {
	switch {
	case value == "":
		v.fail(field, msgRequired)
	case !ValidEmail(value):
		v.fail(field, "Invalid email.")
	}
}

// Password validates a new password.
func (v *Validator) Password(field, value string) {
	switch {
	case value == "":
		v.fail(field, msgRequired)
	case !StrongPassword(value):
		v.fail(field, "Password must be 8+ chars, include upper/lowercase, a digit and a symbol.")
	}
}

// Required flags an empty value.
func (v *Validator) Required(field, value string) {
	if strings.TrimSpace(value) == "" {
		v.fail(field, msgRequired)
	}
}

// Profile validates the identity fields shared by registration and intake.
func (v *Validator) Profile(p domain.Profile) {
	v.Name("firstName", p.FirstName, true)
	v.Name("middleName", p.MiddleName, false)
	v.Name("lastName", p.LastName, true)
	v.NationalID("nationalId", p.NationalID)
	v.Phone("phone", p.Phone)
	v.Email("email", p.Email)
}

// Request validates category, subcategory and description of a service request.
func (v *Validator) Request(category domain.RequestCategory, subcategory, description string) {
	if category == "" {
		v.fail("requestType", msgRequired)
	} else if !category.Valid() {
		v.fail("requestType", "Unknown request type.")
	}
	if subcategory == "" {
		v.fail("subcategory", msgRequired)
	} else if category.Valid() && !category.AllowsSubcategory(subcategory) {
		v.fail("subcategory", "Subcategory does not match the request type.")
	}
	if strings.TrimSpace(description) == "" {
		v.fail("description", msgRequired)
	} else if !govalidator.RuneLength(description, "1", maxDescription) {
		v.fail("description", "Description is too long.")
	}
}

// Err returns a VALIDATION_FAILED DomainError when any field failed.
func (v *Validator) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return apperrors.NewValidationError("invalid input", v.fields)
}
