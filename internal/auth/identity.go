package auth

// Identity is the authenticated user's client-visible record. ID is the
// backend-assigned identifier; Email is the login email.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}
