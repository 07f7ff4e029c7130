// Package access holds the capability predicates of the reservation core.
// Cancellation is the only dual-authorized action: the reservation's
// customer OR the owning business's owner may cancel.
package access

import (
	"reservio/internal/domain"
	"reservio/internal/models"
)

// IsReservationCustomer reports whether the actor made the reservation.
func IsReservationCustomer(actor models.Actor, r *models.Reservation) bool {
	return actor.UserID != "" && actor.UserID == r.CustomerID
}

// IsBusinessOwner reports whether the actor owns the business.
func IsBusinessOwner(actor models.Actor, b *models.Business) bool {
	return actor.UserID != "" && actor.UserID == b.OwnerID
}

// RequireCustomer gates actions reserved for the customer capability.
func RequireCustomer(actor models.Actor) error {
	if actor.UserID == "" || actor.Role != models.RoleCustomer {
		return domain.ErrUnauthorized
	}
	return nil
}

// RequireBusinessOwner gates owner-only actions on a business.
func RequireBusinessOwner(actor models.Actor, b *models.Business) error {
	if !IsBusinessOwner(actor, b) {
		return domain.ErrUnauthorized
	}
	return nil
}

// RequireCancelRights allows either the reservation's customer or the
// owning business's owner.
func RequireCancelRights(actor models.Actor, r *models.Reservation, b *models.Business) error {
	if IsReservationCustomer(actor, r) || IsBusinessOwner(actor, b) {
		return nil
	}
	return domain.ErrUnauthorized
}
