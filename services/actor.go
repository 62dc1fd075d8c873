package services

import "github.com/yeremiapane/club-pos/models"

// Actor is the authenticated caller of a request. It is built by the auth
// middleware and passed explicitly into every service call that mutates state.
type Actor struct {
	UserID uint
	Role   string
}

// Can reports whether the actor holds one of roles. Admins can do everything.
func (a Actor) Can(roles ...string) bool {
	if a.Role == models.RoleAdmin {
		return true
	}
	for _, r := range roles {
		if a.Role == r {
			return true
		}
	}
	return false
}

func (a Actor) require(roles ...string) error {
	if a.UserID == 0 || !a.Can(roles...) {
		return ErrForbidden
	}
	return nil
}
