package constants

const (
	Creator  = "creator"
	Investor = "investor"
)

// ValidRoles is the set of profile roles a user can register with.
var ValidRoles = []string{Creator, Investor}

// IsValidRole returns true if role is one of the allowed values.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
