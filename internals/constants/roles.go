package constants

import "fmt"

const (
	RoleUser  = "user"
	RoleStaff = "staff"
)

const (
	ErrOnlyStaffCanAccess = "❌ Only staff may access %s."
)

func RoleErrorStaff(feature string) string {
	return fmt.Sprintf(ErrOnlyStaffCanAccess, feature)
}

var (
	AllRoles = []string{
		RoleUser,
		RoleStaff,
	}

	StaffOnly = []string{
		RoleStaff,
	}
)
