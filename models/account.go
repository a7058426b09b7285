package models

// AdminAccount is one operator login. Usernames are unique within the
// credential file.
type AdminAccount struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}
