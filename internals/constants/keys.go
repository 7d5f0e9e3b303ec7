package constants

// Fiber Locals keys shared by middleware and controllers.
const (
	LocalUserID   = "user_id"
	LocalUserRole = "userRole"
	LocalUserName = "user_name"
	LocalRequest  = "request_id"
)
