package model

type Role string

const (
	RoleGuest  Role = "guest"
	RoleTenant Role = "tenant"
	RoleStaff  Role = "staff"
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
)

// Actor is the authenticated caller, extracted server-side from the signed
// token. Role claims in request bodies are never trusted.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}

// IsStaff reports whether the actor may perform management operations:
// confirming bookings, assigning tenants, editing catalog entries.
func (a Actor) IsStaff() bool {
	switch a.Role {
	case RoleStaff, RoleOwner, RoleAdmin:
		return true
	default:
		return false
	}
}

// MayCancel reports whether the actor may cancel the given booking. Staff
// cancel anything still active; a tenant only their own booking.
func (a Actor) MayCancel(b *Booking) bool {
	if a.IsStaff() {
		return true
	}
	return a.ID != "" && a.ID == b.TenantID
}
