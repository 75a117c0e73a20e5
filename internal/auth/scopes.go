package auth

// Known OAuth scopes used by the focus service.
const (
	ScopeFocusRead  = "focus:read"
	ScopeFocusWrite = "focus:write"
)
