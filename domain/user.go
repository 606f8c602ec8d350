package domain

import "time"

// User is the account entity. PasswordHash never leaves the service layer;
// boundary handlers work with the Recipient projection instead.
type User struct {
	ID          string
	Username    string
	DisplayName string
	Avatar      []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (u User) AsRecipient() Recipient {
	return Recipient{
		ID:          u.ID,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		HasAvatar:   len(u.Avatar) > 0,
	}
}
