package domain

import "strconv"

type actorKind int

const (
	actorAnonymous actorKind = iota
	actorCustomer
	actorAdmin
)

// Actor is the identity performing an operation. It is resolved at the
// request boundary and passed explicitly to every core operation.
//
// The zero value is the anonymous actor.
type Actor struct {
	kind       actorKind
	customerID uint
	nationalID string
	username   string
}

// Anonymous returns an actor without a session.
func Anonymous() Actor {
	return Actor{}
}

// CustomerActor returns an actor for a logged-in customer.
func CustomerActor(customerID uint, nationalID string) Actor {
	return Actor{kind: actorCustomer, customerID: customerID, nationalID: nationalID}
}

// AdminActor returns an actor for a logged-in administrator.
func AdminActor(username string) Actor {
	return Actor{kind: actorAdmin, username: username}
}

func (a Actor) IsAuthenticated() bool { return a.kind != actorAnonymous }
func (a Actor) IsAdmin() bool         { return a.kind == actorAdmin }
func (a Actor) IsCustomer() bool      { return a.kind == actorCustomer }

// CustomerID returns the customer id, or 0 for non-customers.
func (a Actor) CustomerID() uint { return a.customerID }

// NationalID returns the customer's national id, or "" for non-customers.
func (a Actor) NationalID() string { return a.nationalID }

// Username returns the admin username, or "" for non-admins.
func (a Actor) Username() string { return a.username }

// Owns reports whether the actor is the customer identified by nationalID.
func (a Actor) Owns(nationalID string) bool {
	return a.kind == actorCustomer && nationalID != "" && a.nationalID == nationalID
}

// Role returns the session role for the actor.
func (a Actor) Role() Role {
	switch a.kind {
	case actorAdmin:
		return RoleAdmin
	case actorCustomer:
		return RoleCustomer
	default:
		return ""
	}
}

// AuditID is the identifier recorded in audit logs: the national id for
// customers and the username for admins.
func (a Actor) AuditID() string {
	switch a.kind {
	case actorAdmin:
		return a.username
	case actorCustomer:
		if a.nationalID != "" {
			return a.nationalID
		}
		return strconv.FormatUint(uint64(a.customerID), 10)
	default:
		return "anonymous"
	}
}

// RequireAuthenticated fails with ErrUnauthenticated for anonymous actors.
func RequireAuthenticated(a Actor) error {
	if !a.IsAuthenticated() {
		return ErrUnauthenticated
	}
	return nil
}

// RequireAdmin allows only administrators.
func RequireAdmin(a Actor) error {
	if err := RequireAuthenticated(a); err != nil {
		return err
	}
	if !a.IsAdmin() {
		return ErrForbidden
	}
	return nil
}

// RequireOwnerOrAdmin allows administrators and the customer that owns
// the entity identified by ownerNationalID.
func RequireOwnerOrAdmin(a Actor, ownerNationalID string) error {
	if err := RequireAuthenticated(a); err != nil {
		return err
	}
	if a.IsAdmin() || a.Owns(ownerNationalID) {
		return nil
	}
	return ErrForbidden
}

// RequireCustomer allows only customers; admins carry no customer identity.
func RequireCustomer(a Actor) error {
	if err := RequireAuthenticated(a); err != nil {
		return err
	}
	if !a.IsCustomer() {
		return ErrForbidden
	}
	return nil
}
