package identity

// Claim types attached to issued tokens.
const (
	ClaimTypeName  = "name"
	ClaimTypeEmail = "email"
	ClaimTypeRole  = "role"
)

// NameClaim builds the name claim: full name, falling back to username.
func NameClaim(user *User) Claim {
	return Claim{Type: ClaimTypeName, Value: user.DisplayName()}
}

// EmailClaim builds the email claim.
func EmailClaim(user *User) Claim {
	return Claim{Type: ClaimTypeEmail, Value: user.Email}
}

// RoleClaim builds one role claim per membership.
func RoleClaim(role *Role) Claim {
	return Claim{Type: ClaimTypeRole, Value: role.Name}
}

// ClaimValues collects the values of every claim matching claimType,
// preserving insertion order.
func ClaimValues(claims []Claim, claimType string) []string {
	var values []string
	for _, c := range claims {
		if c.Type == claimType {
			values = append(values, c.Value)
		}
	}
	return values
}
