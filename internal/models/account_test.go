package models_test

import (
	"reflect"
	"testing"

	"blockfix/backend/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
)

// TestAccountBeforeCreate_GeneratesUUID verifies that the BeforeCreate hook generates a valid UUID.
func TestAccountBeforeCreate_GeneratesUUID(t *testing.T) {
	account := &models.Account{
		Email: "alice@test.com",
		Name:  "Alice",
		Role:  models.RoleStudent,
	}
	assert.Empty(t, account.ID)

	err := account.BeforeCreate(nil)

	assert.NoError(t, err)
	_, parseErr := uuid.Parse(account.ID)
	assert.NoError(t, parseErr, "Account ID must be a valid UUID string")
}

// TestAccountHasBadge covers badge membership.
func TestAccountHasBadge(t *testing.T) {
	account := &models.Account{Badges: pq.StringArray{"Silver Star"}}

	assert.True(t, account.HasBadge("Silver Star"))
	assert.False(t, account.HasBadge("Gold Star"))

	bare := &models.Account{}
	assert.False(t, bare.HasBadge("Silver Star"))
}

// TestAccountStructTags verifies the security-relevant tags: the password hash
// must never serialize, and email carries the unique index.
func TestAccountStructTags(t *testing.T) {
	accountType := reflect.TypeOf(models.Account{})

	hashField, found := accountType.FieldByName("PasswordHash")
	assert.True(t, found)
	assert.Equal(t, "-", hashField.Tag.Get("json"), "PasswordHash must be excluded from JSON")

	emailField, found := accountType.FieldByName("Email")
	assert.True(t, found)
	assert.Contains(t, emailField.Tag.Get("gorm"), "uniqueIndex")

	badgesField, found := accountType.FieldByName("Badges")
	assert.True(t, found)
	assert.Contains(t, badgesField.Tag.Get("gorm"), "type:text[]")
}
