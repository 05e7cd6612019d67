package training

// Group is a staff role. Lower values carry more privileges.
type Group int

const (
	GroupAdministrator Group = 1
	GroupModerator     Group = 2
	GroupMentor        Group = 3
	GroupBuddy         Group = 4
)

// Permission grants a group within one area.
type Permission struct {
	Group  Group
	AreaID int64
}

// User is a network member known to the division.
type User struct {
	ID               int64
	Name             string
	Email            string
	Division         string
	Subdivision      *string
	Rating           int
	AtcActive        bool
	PersonalEmail    *string
	WorkEmail        *string
	NotifyNewRequest bool
	Permissions      []Permission
}

// PersonalNotificationEmail is where the member's own notifications go.
func (u *User) PersonalNotificationEmail() string {
	if u.PersonalEmail != nil && *u.PersonalEmail != "" {
		return *u.PersonalEmail
	}
	return u.Email
}

// WorkNotificationEmail is where staff notifications go.
func (u *User) WorkNotificationEmail() string {
	if u.WorkEmail != nil && *u.WorkEmail != "" {
		return *u.WorkEmail
	}
	return u.Email
}

// IsAdmin reports whether the user is an administrator in any area.
func (u *User) IsAdmin() bool {
	for _, p := range u.Permissions {
		if p.Group == GroupAdministrator {
			return true
		}
	}
	return false
}

// IsModeratorOrAbove reports whether the user holds moderator rights. With a
// nil area any area counts; otherwise administrators qualify everywhere and
// moderators only in their own area.
func IsModeratorOrAbove(u *User, area *Area) bool {
	if u == nil {
		return false
	}
	if area == nil {
		for _, p := range u.Permissions {
			if p.Group <= GroupModerator {
				return true
			}
		}
		return false
	}
	if u.IsAdmin() {
		return true
	}
	for _, p := range u.Permissions {
		if p.Group <= GroupModerator && p.AreaID == area.ID {
			return true
		}
	}
	return false
}
