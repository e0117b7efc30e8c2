package entity

type UserRole string

const (
	RoleCustomer  UserRole = "customer"
	RoleVenue     UserRole = "venue"
	RolePerformer UserRole = "performer"
	RoleAdmin     UserRole = "admin"
)

// User is owned by the account service; this service only reads it.
type User struct {
	Base
	Username string   `db:"username"`
	Role     UserRole `db:"role"`
	IsActive bool     `db:"is_active"`
	// QuotedPrice is a performer's fee for one booking. Nil for other roles.
	QuotedPrice *int64 `db:"quoted_price"`
}

// CanReceive reports whether the user can be the receiver of a booking of kind.
func (u *User) CanReceive(kind BookingKind) bool {
	switch kind {
	case KindTable:
		return u.Role == RoleVenue
	case KindPerformer:
		return u.Role == RolePerformer
	}
	return false
}
