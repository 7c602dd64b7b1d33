package model

// User is an entry in the user list shown by the access gate.
//
// Password is stored in plaintext, exactly as typed; the access gate compares
// against it directly. It must never leave the process: use Profile.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Profile is the public view of a user: everything except the password.
// Anything that leaves the process (HTTP responses, logs) uses Profile.
type Profile struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

// Profile strips the password from the user record.
func (u User) Profile() Profile {
	return Profile{ID: u.ID, Username: u.Username}
}
