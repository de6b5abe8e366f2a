package users

import "time"

type User struct {
	ID         string    `json:"id"`
	Username   string    `json:"username,omitempty"`
	Email      string    `json:"email,omitempty"`
	FullName   string    `json:"fullName,omitempty"`
	PictureURL string    `json:"pictureUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ProfileUpdate carries the fields a user may change; nil leaves the field as is.
type ProfileUpdate struct {
	Username   *string `json:"username,omitempty"`
	FullName   *string `json:"fullName,omitempty"`
	PictureURL *string `json:"pictureUrl,omitempty"`
}
