package service

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/school-portal-api/internal/models"
)

// CredentialVerifier checks a supplied password against one stored
// credential field. Verifiers are tried in order; retiring a legacy scheme
// means dropping its verifier from the chain.
type CredentialVerifier struct {
	Name  string
	Field func(models.Credentials) *string
}

// Verify reports whether password matches the field this verifier reads.
// Empty or missing fields never match.
func (v CredentialVerifier) Verify(creds models.Credentials, password string) bool {
	stored := v.Field(creds)
	if stored == nil || *stored == "" {
		return false
	}
	return comparePassword(*stored, password)
}

var (
	PrimaryPasswordVerifier = CredentialVerifier{Name: "password", Field: func(c models.Credentials) *string { return c.Password }}
	LegacyPasswordVerifier  = CredentialVerifier{Name: "legacy_password", Field: func(c models.Credentials) *string { return c.LegacyPassword }}
	TempPasswordVerifier    = CredentialVerifier{Name: "temp_password", Field: func(c models.Credentials) *string { return c.TempPassword }}
)

// VerifierChain is an ordered list of credential verifiers.
type VerifierChain []CredentialVerifier

// Match returns the name of the first verifier accepting password.
func (c VerifierChain) Match(creds models.Credentials, password string) (string, bool) {
	for _, v := range c {
		if v.Verify(creds, password) {
			return v.Name, true
		}
	}
	return "", false
}

// NewVerifierChain builds the chain: the primary field first, then the
// enabled legacy fields in their fixed priority order regardless of the order
// they are listed in.
func NewVerifierChain(enabledLegacy []string) (VerifierChain, error) {
	known := map[string]CredentialVerifier{
		LegacyPasswordVerifier.Name: LegacyPasswordVerifier,
		TempPasswordVerifier.Name:   TempPasswordVerifier,
	}
	enabled := make(map[string]bool, len(enabledLegacy))
	for _, name := range enabledLegacy {
		name = strings.TrimSpace(name)
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("unknown credential verifier %q", name)
		}
		enabled[name] = true
	}

	chain := VerifierChain{PrimaryPasswordVerifier}
	for _, v := range []CredentialVerifier{LegacyPasswordVerifier, TempPasswordVerifier} {
		if enabled[v.Name] {
			chain = append(chain, v)
		}
	}
	return chain, nil
}

func comparePassword(stored, supplied string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

func isBcryptHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
