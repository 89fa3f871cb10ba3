package storage

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID    string `json:"id"`
	Name  string `json:"userName"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
	Photo string `json:"photo,omitempty"`
	Phone string `json:"phone,omitempty"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// UserPatch carries the profile fields of an upsert. Nil fields are left untouched.
type UserPatch struct {
	Name  *string
	Photo *string
	Phone *string
}

func (p UserPatch) Apply(u *User) {
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Photo != nil {
		u.Photo = *p.Photo
	}
	if p.Phone != nil {
		u.Phone = *p.Phone
	}
}
