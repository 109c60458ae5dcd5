// Package session defines the authentication domain model.
package session

// UserProfile identifies the authenticated loyalty-program member.
type UserProfile struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Contact string `json:"contact"`
}

// Credentials carries a login request. Either Email/Password or PhoneNumber
// is populated depending on the sign-in method; the server decides which it
// accepts.
type Credentials struct {
	Email       string `json:"email,omitempty"`
	Password    string `json:"password,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// Registration carries a sign-up request.
type Registration struct {
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Password    string `json:"password,omitempty"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}
