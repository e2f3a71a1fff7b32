package authsvc

// Credentials is the login request body
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// User represents the authenticated account
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// AuthResponse is the payload returned by login and check-auth
type AuthResponse struct {
	User      User   `json:"user"`
	Name      string `json:"name,omitempty"`
	Role      string `json:"role"`
	Token     string `json:"token"`
	ExpiresIn *int   `json:"expiresIn,omitempty"` // seconds
}
