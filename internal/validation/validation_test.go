package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("alice@acme.io"))
	assert.NoError(t, ValidateEmail("bob.smith+tag@sub.example.co"))
	assert.Error(t, ValidateEmail("not-an-email"))
	assert.Error(t, ValidateEmail("missing@tld"))
	assert.Error(t, ValidateEmail("@acme.io"))
}

func TestValidatePassword(t *testing.T) {
	assert.Error(t, ValidatePassword("short"))
	assert.NoError(t, ValidatePassword("longenough"))
}

func TestValidateTenantSlug(t *testing.T) {
	assert.NoError(t, ValidateTenantSlug("acme"))
	assert.NoError(t, ValidateTenantSlug("acme-corp-2"))
	assert.Error(t, ValidateTenantSlug("Acme"))
	assert.Error(t, ValidateTenantSlug("a"))
	assert.Error(t, ValidateTenantSlug("-acme"))
	assert.Error(t, ValidateTenantSlug("acme-"))
	assert.Error(t, ValidateTenantSlug("admin"), "reserved slug")
}
