package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"reservio/internal/domain"
	"reservio/internal/models"
)

var (
	reservation = &models.Reservation{ID: "res-1", CustomerID: "cust-1", BusinessID: "biz-1"}
	business    = &models.Business{ID: "biz-1", OwnerID: "owner-1"}

	customer = models.Actor{UserID: "cust-1", Role: models.RoleCustomer}
	owner    = models.Actor{UserID: "owner-1", Role: models.RoleBusinessOwner}
	stranger = models.Actor{UserID: "cust-2", Role: models.RoleCustomer}
	nobody   = models.Actor{}
)

func TestRequireCustomer(t *testing.T) {
	assert.NoError(t, RequireCustomer(customer))
	assert.ErrorIs(t, RequireCustomer(owner), domain.ErrUnauthorized)
	assert.ErrorIs(t, RequireCustomer(nobody), domain.ErrUnauthorized)
}

func TestRequireBusinessOwner(t *testing.T) {
	assert.NoError(t, RequireBusinessOwner(owner, business))
	assert.ErrorIs(t, RequireBusinessOwner(customer, business), domain.ErrUnauthorized)
	assert.ErrorIs(t, RequireBusinessOwner(nobody, business), domain.ErrUnauthorized)
}

func TestRequireCancelRights(t *testing.T) {
	assert.NoError(t, RequireCancelRights(customer, reservation, business))
	assert.NoError(t, RequireCancelRights(owner, reservation, business))
	assert.ErrorIs(t, RequireCancelRights(stranger, reservation, business), domain.ErrUnauthorized)
	assert.ErrorIs(t, RequireCancelRights(nobody, reservation, business), domain.ErrUnauthorized)
}
