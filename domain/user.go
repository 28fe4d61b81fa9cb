package domain

import "time"

const (
	RoleAdmin      = "admin"
	RolePharmacist = "pharmacist"
)

type User struct {
	ID          string    `json:"id" db:"id"`
	Username    string    `json:"username" db:"username"`
	Password    string    `json:"-" db:"password"`
	Role        string    `json:"role" db:"role"`
	FullName    string    `json:"fullName" db:"full_name"`
	PhoneNumber string    `json:"phoneNumber" db:"phone_number"`
	Email       string    `json:"email" db:"email"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// DisplayName is the name written into audit entries and sales.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Username
}

// Actor is the verified caller identity carried through a request.
type Actor struct {
	ID       string
	Username string
	Name     string
	Role     string
}
