package models

import "time"

// AppUser is an admin-manageable account profile. Accounts are created
// elsewhere; the dashboard's only mutation is flipping IsApproved from
// false to true.
type AppUser struct {
	UserID     string    `json:"userId"`
	Email      string    `json:"email"`
	Username   string    `json:"username"`
	IsApproved bool      `json:"isApproved"`
	CreatedAt  time.Time `json:"createdAt"`
}

// PendingUsers filters the given list down to users awaiting approval,
// preserving order.
func PendingUsers(users []AppUser) []AppUser {
	var pending []AppUser
	for _, u := range users {
		if !u.IsApproved {
			pending = append(pending, u)
		}
	}
	return pending
}
