// Package validation provides input validation utilities
package validation

import (
	"fmt"
	"regexp"
	"strings"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

var tenantSlugRegex = regexp.MustCompile(`^[a-z0-9-]{2,32}$`)

var reservedTenantSlugs = map[string]struct{}{
	"admin":   {},
	"api":     {},
	"auth":    {},
	"health":  {},
	"metrics": {},
	"posts":   {},
	"tenants": {},
	"users":   {},
}

// ValidateEmail checks basic email format
func ValidateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}

	if len(email) > 254 {
		return fmt.Errorf("email must not exceed 254 characters")
	}

	return nil
}

// ValidatePassword checks if a password meets security requirements
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	// Prevent unreasonable inputs (bcrypt also truncates beyond 72 bytes)
	if len(password) > 128 {
		return fmt.Errorf("password must not exceed 128 characters")
	}

	return nil
}

// ValidateTenantSlug validates tenant slug format and reserved names.
func ValidateTenantSlug(slug string) error {
	if !tenantSlugRegex.MatchString(slug) {
		return fmt.Errorf("slug must be 2-32 characters and contain only lowercase letters, numbers, and hyphens")
	}

	if strings.HasPrefix(slug, "-") || strings.HasSuffix(slug, "-") {
		return fmt.Errorf("slug cannot start or end with a hyphen")
	}

	if _, exists := reservedTenantSlugs[slug]; exists {
		return fmt.Errorf("slug is reserved")
	}

	return nil
}
