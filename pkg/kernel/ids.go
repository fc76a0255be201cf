package kernel

import "strconv"

// UserID identifies a principal. IDs are assigned by the user store.
type UserID int64

func NewUserID(id int64) UserID { return UserID(id) }

func (u UserID) Int64() int64   { return int64(u) }
func (u UserID) String() string { return strconv.FormatInt(int64(u), 10) }
func (u UserID) IsZero() bool   { return int64(u) == 0 }

// ParseUserID parses the decimal representation produced by String.
func ParseUserID(s string) (UserID, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return UserID(id), nil
}

// Role is the coarse permission tier of a principal.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

func (r Role) String() string { return string(r) }
