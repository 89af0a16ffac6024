package usercontext

// Session and Locals keys shared by the auth controller and middleware
const (
	KeyUserID   = "user_id"
	KeyRole     = "role"
	KeyFullName = "full_name"

	localsKey = "USER_CONTEXT"
)
