package usercontext

// Shared Locals keys used across controllers and middlewares
const (
	KeyUserContext   = "USER_CONTEXT"
	KeyUserID        = "user_id"
	KeyUsername      = "username"
	KeyIsAdmin       = "isAdmin"
	KeyFromProtected = "from_protected"
	KeyAuthMethod    = "auth_method"
)

const (
	AuthMethodJWT    = "jwt"
	AuthMethodAPIKey = "api_key"
)
