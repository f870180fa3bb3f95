package model

import "github.com/google/uuid"

// Principal is the identity attached to a single request.
// A zero ID means the caller is anonymous.
type Principal struct {
	ID          uuid.UUID
	Permissions PermissionSet
}

// Anonymous returns a principal with no identity and no permissions.
func Anonymous() Principal {
	return Principal{ID: uuid.Nil, Permissions: PermissionSet{}}
}

// IsAnonymous reports whether the principal carries no identity.
func (p Principal) IsAnonymous() bool {
	return p.ID == uuid.Nil
}

// Decision is the outcome of an authorization check.
type Decision struct {
	allowed  bool
	kind     ErrorKind
	required PermissionSet
}

// Allow returns a positive decision.
func Allow() Decision {
	return Decision{allowed: true}
}

// DenyAnonymous returns a decision denying an anonymous caller.
func DenyAnonymous() Decision {
	return Decision{kind: KindAuthenticationRequired}
}

// Deny returns a decision denying a caller that lacks all of the required permissions.
func Deny(required PermissionSet) Decision {
	return Decision{kind: KindAuthorizationDenied, required: required}
}

// Allowed reports whether the action may proceed.
func (d Decision) Allowed() bool {
	return d.allowed
}

// Err returns nil for a positive decision and a typed error otherwise.
func (d Decision) Err() error {
	switch {
	case d.allowed:
		return nil
	case d.kind == KindAuthenticationRequired:
		return NewErrAuthenticationRequired()
	default:
		return NewErrAuthorizationDenied(d.required)
	}
}
