package middleware

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateProfileID(t *testing.T) {
	assert.NoError(t, ValidateProfileID("p1"))
	assert.NoError(t, ValidateProfileID("550e8400-e29b-41d4-a716-446655440000"))
	assert.Error(t, ValidateProfileID(""))
	assert.Error(t, ValidateProfileID("has space"))
	assert.Error(t, ValidateProfileID("semi;colon"))
	assert.Error(t, ValidateProfileID(strings.Repeat("a", 65)))
}

func TestValidateQuery(t *testing.T) {
	assert.NoError(t, ValidateQuery("aspirin 500mg"))
	assert.Error(t, ValidateQuery(""))
	assert.Error(t, ValidateQuery("   "))
	assert.Error(t, ValidateQuery(strings.Repeat("a", 201)))
}

func TestValidateImagePayload(t *testing.T) {
	assert.NoError(t, ValidateImagePayload("aGVsbG8="))
	assert.Error(t, ValidateImagePayload(""))
	assert.Error(t, ValidateImagePayload(strings.Repeat("a", MaxImagePayloadBytes+1)))
}

func TestValidateEnums(t *testing.T) {
	assert.NoError(t, ValidateRelation("Me"))
	assert.NoError(t, ValidateRelation("Partner"))
	assert.Error(t, ValidateRelation("Cousin"))

	assert.NoError(t, ValidateGender("Female"))
	assert.Error(t, ValidateGender("female"))

	assert.NoError(t, ValidateAge(0))
	assert.NoError(t, ValidateAge(130))
	assert.Error(t, ValidateAge(-1))
	assert.Error(t, ValidateAge(131))
}

func TestValidateExpiryDate(t *testing.T) {
	assert.NoError(t, ValidateExpiryDate(""))
	assert.NoError(t, ValidateExpiryDate("2026-01-31"))
	assert.Error(t, ValidateExpiryDate("31-01-2026"))
	assert.Error(t, ValidateExpiryDate("2026/01/31"))
}

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(2, 0.0001)
	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}
