package auth

import (
	"testing"

	"terratip_backend/internal/auth/service"
)

// The service must satisfy the public directory interface without the
// subpackages ever importing this wiring package back.
var _ Directory = (*service.Service)(nil)

func TestRoleConstantsMatchStorageVocabulary(t *testing.T) {
	// The users table CHECK constraint allows exactly these two values.
	if RoleManager != "manager" {
		t.Fatalf("RoleManager = %q", RoleManager)
	}
	if RoleAgent != "agent" {
		t.Fatalf("RoleAgent = %q", RoleAgent)
	}
}
