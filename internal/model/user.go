package model

type UserRole string

const (
	UserRolePatient UserRole = "patient"
	UserRoleDoctor  UserRole = "doctor"
)

// User is an account holder: either a patient or a doctor. Doctors carry an
// hourly consultation rate used to price bookings.
type User struct {
	Base
	Email        string   `db:"email" json:"email"`
	PasswordHash string   `db:"password_hash" json:"-"`
	FirstName    string   `db:"first_name" json:"first_name"`
	LastName     string   `db:"last_name" json:"last_name"`
	Role         UserRole `db:"role" json:"role"`
	Specialty    *string  `db:"specialty" json:"specialty,omitempty"`
	PricePerHour *float64 `db:"price_per_hour" json:"price_per_hour,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type UserFilters struct {
	Role       UserRole
	Specialty  string
	SearchTerm string
}

func (u *User) IsDoctor() bool {
	return u.Role == UserRoleDoctor
}
