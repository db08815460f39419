package credentials

// UserType selects which kind of account the remote login endpoint checks.
type UserType string

const (
	UserTypeStaff   UserType = "staff"
	UserTypeStudent UserType = "student"
	UserTypeParent  UserType = "parent"
)

// Credentials is the login form submission. It is passed by value through the
// relay and never persisted.
type Credentials struct {
	Username string   `json:"username"`
	Password string   `json:"password"`
	Next     string   `json:"next"`
	UserType UserType `json:"userType"`
}

// New builds Credentials from the form values. No validation is applied, the
// remote endpoint is the authority on what is acceptable.
func New(username, password string, userType UserType, next string) Credentials {
	return Credentials{
		Username: username,
		Password: password,
		Next:     next,
		UserType: userType,
	}
}

// LogFields returns the parts of the credentials that may be logged.
func (c Credentials) LogFields() map[string]string {
	return map[string]string{
		"username": c.Username,
		"userType": string(c.UserType),
	}
}
