package constants

const (
	CreateProject    = "create_project"
	ManageProject    = "manage_project"
	OpenInvestment   = "open_investment"
	LockFunds        = "lock_funds"
	SettleInvestment = "settle_investment"
	ReleaseFunds     = "release_funds"
	ViewInvestments  = "view_investments"
	Negotiate        = "negotiate"
	UploadDocument   = "upload_document"
)

// PermissionRoles maps each permission to the roles allowed to perform it.
var PermissionRoles = map[string][]string{
	CreateProject:    {Creator},
	ManageProject:    {Creator},
	OpenInvestment:   {Investor},
	LockFunds:        {Investor},
	SettleInvestment: {Investor},
	ReleaseFunds:     {Investor},
	ViewInvestments:  {Creator, Investor},
	Negotiate:        {Creator, Investor},
	UploadDocument:   {Creator, Investor},
}

// AllowedRole returns true if role is in the list of allowed roles for the permission.
func AllowedRole(permission, role string) bool {
	roles, ok := PermissionRoles[permission]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
