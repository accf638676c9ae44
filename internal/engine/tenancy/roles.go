package tenancy

// Role is the caller's authorization level within one organization.
// Ordering: owner > manager > staff.
type Role string

const (
	RoleOwner   Role = "owner"
	RoleManager Role = "manager"
	RoleStaff   Role = "staff"
)

var roleRank = map[Role]int{
	RoleStaff:   1,
	RoleManager: 2,
	RoleOwner:   3,
}

func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// AtLeast reports whether r satisfies the required role.
func (r Role) AtLeast(required Role) bool {
	return roleRank[r] >= roleRank[required]
}

const (
	MembershipStatusActive   = "active"
	MembershipStatusDisabled = "disabled"
	MembershipStatusInvited  = "invited"
)
