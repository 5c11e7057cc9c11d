package auth

import (
	apperrors "storefront/internal/errors"
)

// Level is the minimum caller class an operation accepts.
type Level int

const (
	LevelPublic Level = iota
	LevelAuthenticated
	LevelStaff
)

func (l Level) String() string {
	switch l {
	case LevelPublic:
		return "public"
	case LevelAuthenticated:
		return "authenticated"
	case LevelStaff:
		return "staff"
	}
	return "unknown"
}

type Operation string

const (
	OpListProducts   Operation = "products.list"
	OpGetProduct     Operation = "products.get"
	OpSearchProducts Operation = "products.search"
	OpCreateProduct  Operation = "products.create"
	OpUpdateProduct  Operation = "products.update"
	OpDeleteProduct  Operation = "products.delete"
	OpListNewItems   Operation = "new_items.list"

	OpPlaceOrder        Operation = "orders.place"
	OpListOwnOrders     Operation = "orders.list_own"
	OpGetOrder          Operation = "orders.get"
	OpUpdateOrderStatus Operation = "orders.update_status"

	OpRegister Operation = "auth.register"
	OpLogin    Operation = "auth.login"
	OpLogout   Operation = "auth.logout"
	OpMe       Operation = "auth.me"

	OpGetOwnProfile    Operation = "profiles.get_own"
	OpUpdateOwnProfile Operation = "profiles.update_own"
	OpProfileByPhone   Operation = "profiles.by_phone"

	OpReadContent   Operation = "content.read"
	OpWriteContent  Operation = "content.write"
	OpDeleteContent Operation = "content.delete"
)

// Policy maps every routed operation to the level it requires.
type Policy map[Operation]Level

func DefaultPolicy() Policy {
	return Policy{
		OpListProducts:   LevelPublic,
		OpGetProduct:     LevelPublic,
		OpSearchProducts: LevelPublic,
		OpCreateProduct:  LevelStaff,
		OpUpdateProduct:  LevelStaff,
		OpDeleteProduct:  LevelStaff,
		OpListNewItems:   LevelPublic,

		OpPlaceOrder:        LevelPublic,
		OpListOwnOrders:     LevelAuthenticated,
		OpGetOrder:          LevelStaff,
		OpUpdateOrderStatus: LevelStaff,

		OpRegister: LevelPublic,
		OpLogin:    LevelPublic,
		OpLogout:   LevelAuthenticated,
		OpMe:       LevelAuthenticated,

		OpGetOwnProfile:    LevelAuthenticated,
		OpUpdateOwnProfile: LevelAuthenticated,
		OpProfileByPhone:   LevelStaff,

		OpReadContent:   LevelPublic,
		OpWriteContent:  LevelAuthenticated,
		OpDeleteContent: LevelAuthenticated,
	}
}

// Authorize checks id against the level registered for op. Operations
// missing from the table are denied.
func (p Policy) Authorize(op Operation, id *Identity) error {
	level, ok := p[op]
	if !ok {
		return apperrors.NewForbiddenError("operation " + string(op) + " is not permitted")
	}

	switch level {
	case LevelPublic:
		return nil
	case LevelAuthenticated:
		if id == nil {
			return apperrors.NewUnauthorizedError(apperrors.CodeAuthRequired, "authentication required")
		}
		return nil
	case LevelStaff:
		if id == nil {
			return apperrors.NewUnauthorizedError(apperrors.CodeAuthRequired, "authentication required")
		}
		if !id.IsStaff {
			return apperrors.NewForbiddenError("staff access required")
		}
		return nil
	}
	return apperrors.NewForbiddenError("operation " + string(op) + " is not permitted")
}
