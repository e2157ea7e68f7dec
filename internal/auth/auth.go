// Package auth provides authentication and user administration.
// This file re-exports the public API of the auth bounded context; the
// shared types live in the transport leaf so subpackages can use them
// without importing the wiring package.
package auth

import "terratip_backend/internal/auth/transport"

// Roles. Managers administer users and see every lead; agents see only
// their own slice of the pipeline.
const (
	RoleManager = transport.RoleManager
	RoleAgent   = transport.RoleAgent
)

// Profile represents user information that can be shared with other domains.
type Profile = transport.Profile

// Directory is the interface other domains use to look up users without
// depending on auth internals.
type Directory = transport.Directory
