package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "storefront/internal/errors"
)

func TestPolicy_Authorize(t *testing.T) {
	policy := DefaultPolicy()
	customer := &Identity{AccountID: 1}
	staff := &Identity{AccountID: 2, IsStaff: true}

	assert.NoError(t, policy.Authorize(OpPlaceOrder, nil))
	assert.NoError(t, policy.Authorize(OpPlaceOrder, customer))

	err := policy.Authorize(OpMe, nil)
	_, ok := apperrors.IsUnauthorizedError(err)
	assert.True(t, ok)
	assert.NoError(t, policy.Authorize(OpMe, customer))

	err = policy.Authorize(OpCreateProduct, customer)
	_, ok = apperrors.IsForbiddenError(err)
	assert.True(t, ok)
	assert.NoError(t, policy.Authorize(OpCreateProduct, staff))

	err = policy.Authorize(OpProfileByPhone, nil)
	_, ok = apperrors.IsUnauthorizedError(err)
	assert.True(t, ok)
}

func TestPolicy_UnknownOperationDenied(t *testing.T) {
	err := DefaultPolicy().Authorize(Operation("orders.export"), &Identity{IsStaff: true})
	_, ok := apperrors.IsForbiddenError(err)
	assert.True(t, ok)
}

func TestLevel_String(t *testing.T) {
	assert.Equal(t, "staff", LevelStaff.String())
	assert.Equal(t, "unknown", Level(9).String())
}
