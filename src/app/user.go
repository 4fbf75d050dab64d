package app

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is the local record of an identity provider subject.
type User struct {
	// Unique user ID in the application.
	ID string `gorm:"type:varchar(36);primaryKey" json:"id"`

	// User's email address, unique across users.
	Email string `gorm:"uniqueIndex;not null" json:"email"`

	// User's display name.
	Name *string `json:"name"`

	// Public handle derived from the email on first creation.
	Username *string `gorm:"uniqueIndex;size:64" json:"username"`

	// Subject of the identity provider token this user is linked to.
	IdentityProviderID string `gorm:"column:identity_provider_id;uniqueIndex;not null" json:"identityProviderId"`

	// Blob key of the profile image, resolved to a signed URL on read.
	ProfileImageKey *string `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Aquariums []Aquarium `gorm:"foreignKey:UserID" json:"-"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// Identity is what a verified bearer token tells about its caller.
type Identity struct {
	Subject string
	Email   string
	Name    string
	// EmailVerified mirrors the email_verified claim, nil when the token has none.
	EmailVerified *bool
}

// UserPatch holds the profile fields a user may change.
type UserPatch struct {
	Name *string `json:"name" binding:"omitempty,max=100"`
}

func (p UserPatch) Fields() map[string]any {
	fields := map[string]any{}
	if p.Name != nil {
		fields["name"] = *p.Name
	}
	return fields
}
