package models

// User is an account allowed to log in. Admins may trigger ingestion,
// change the default keyword and create users; everyone else can browse.
type User struct {
	UserName     string
	PasswordHash string
	IsAdmin      bool
}
