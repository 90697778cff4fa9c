package user

// User represents a user entity in the system.
type User struct {
	ID        int64   // ID is the unique identifier assigned by storage
	FirstName string  // FirstName is the given name of the user
	LastName  string  // LastName is the family name of the user
	Email     string  // Email is the unique email address of the user
	Avatar    *string // Avatar is an optional image URL
}

// Patch describes a partial update. Nil fields are left untouched.
type Patch struct {
	FirstName *string
	LastName  *string
	Email     *string

	// AvatarSet distinguishes an explicit null (clear the avatar) from an absent field.
	AvatarSet bool
	Avatar    *string
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.FirstName == nil && p.LastName == nil && p.Email == nil && !p.AvatarSet
}

// Apply overwrites the fields of u that are present in p.
func (u *User) Apply(p Patch) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.AvatarSet {
		if p.Avatar == nil {
			u.Avatar = nil
		} else {
			avatar := *p.Avatar
			u.Avatar = &avatar
		}
	}
}
