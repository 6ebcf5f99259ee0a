package middleware

import (
	"fmt"
	"regexp"
	"strings"
)

// Input validation and sanitization utilities

const (
	maxQueryLength = 200
	// ~8MB of raw image allows ~11MB of base64 text
	MaxImagePayloadBytes = 11 << 20
)

var profileIDPattern = regexp.MustCompile(`^[A-Za-z0-9-]{1,64}$`)

// ValidateProfileID checks the path segment used to scope every record
func ValidateProfileID(id string) error {
	if id == "" {
		return fmt.Errorf("profile id cannot be empty")
	}
	if !profileIDPattern.MatchString(id) {
		return fmt.Errorf("invalid profile id format")
	}
	return nil
}

// ValidateQuery checks a typed drug-name query
func ValidateQuery(query string) error {
	q := strings.TrimSpace(query)
	if q == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if len(q) > maxQueryLength {
		return fmt.Errorf("query too long (max %d characters)", maxQueryLength)
	}
	return nil
}

// ValidateImagePayload bounds the base64 scan payload before decoding
func ValidateImagePayload(payload string) error {
	if strings.TrimSpace(payload) == "" {
		return fmt.Errorf("image payload cannot be empty")
	}
	if len(payload) > MaxImagePayloadBytes {
		return fmt.Errorf("image payload too large")
	}
	return nil
}

// ValidateRelation checks the profile relation enum
func ValidateRelation(relation string) error {
	allowed := map[string]bool{
		"Me":      true,
		"Parent":  true,
		"Child":   true,
		"Partner": true,
		"Other":   true,
	}
	if !allowed[relation] {
		return fmt.Errorf("invalid relation: %s (allowed: Me, Parent, Child, Partner, Other)", relation)
	}
	return nil
}

// ValidateGender checks the profile gender enum
func ValidateGender(gender string) error {
	allowed := map[string]bool{
		"Male":   true,
		"Female": true,
		"Other":  true,
	}
	if !allowed[gender] {
		return fmt.Errorf("invalid gender: %s (allowed: Male, Female, Other)", gender)
	}
	return nil
}

// ValidateAge bounds the profile age
func ValidateAge(age int) error {
	if age < 0 || age > 130 {
		return fmt.Errorf("invalid age: %d", age)
	}
	return nil
}

var expiryDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateExpiryDate checks the optional user-set cabinet expiry date
func ValidateExpiryDate(date string) error {
	if date == "" {
		return nil // Optional field
	}
	if !expiryDatePattern.MatchString(date) {
		return fmt.Errorf("invalid expiry date format (expected YYYY-MM-DD)")
	}
	return nil
}
