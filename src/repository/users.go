package repository

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"reefing/src/app"
	"reefing/src/logger"
)

const (
	maxResolveAttempts = 5
	maxUsernameLength  = 30
	defaultUsername    = "reefer"
)

var usernameUnsafeChars = regexp.MustCompile(`[^a-z0-9._-]`)

// Users is the resource service for app.User.
type Users struct {
	db          *gorm.DB
	seedSamples bool
}

// NewUsers returns the user service. With seedSamples set, every newly created user
// gets the sample aquariums.
func NewUsers(db *gorm.DB, seedSamples bool) *Users {
	return &Users{db: db, seedSamples: seedSamples}
}

func (r *Users) FindByID(ctx context.Context, id string) (*app.User, error) {
	return r.findBy(ctx, "users.FindByID", "id = ?", id)
}

func (r *Users) FindBySubject(ctx context.Context, subject string) (*app.User, error) {
	return r.findBy(ctx, "users.FindBySubject", "identity_provider_id = ?", subject)
}

func (r *Users) FindByEmail(ctx context.Context, email string) (*app.User, error) {
	return r.findBy(ctx, "users.FindByEmail", "email = ?", email)
}

func (r *Users) FindByUsername(ctx context.Context, username string) (*app.User, error) {
	return r.findBy(ctx, "users.FindByUsername", "username = ?", username)
}

func (r *Users) findBy(ctx context.Context, op, query string, arg any) (*app.User, error) {
	var user app.User
	if err := r.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		return nil, translate(op, "User", err)
	}
	return &user, nil
}

// Resolve returns the user linked to identity.Subject. A user known only by email is
// linked to the subject unless the provider says that email is unverified, and an
// unknown caller is created. Any write that loses a race
// against a concurrent request is followed by a fresh read instead of an error.
func (r *Users) Resolve(ctx context.Context, identity app.Identity) (*app.User, error) {
	log := logger.FromContext(ctx).WithField("subject", identity.Subject)
	var lastErr error

	for attempt := 1; attempt <= maxResolveAttempts; attempt++ {
		user, err := r.FindBySubject(ctx, identity.Subject)
		if err == nil {
			return user, nil
		}
		if !app.IsNotFound(err) {
			return nil, err
		}

		if identity.Email != "" {
			user, err = r.FindByEmail(ctx, identity.Email)
			switch {
			case err == nil:
				if identity.EmailVerified != nil && !*identity.EmailVerified {
					log.WithField("userId", user.ID).Warn("refusing to link user with unverified email")
					return nil, app.EmailNotVerified()
				}
				if err := r.link(ctx, user, identity); err != nil {
					log.WithError(err).WithField("attempt", attempt).Debug("linking user lost a race, re-reading")
					lastErr = err
					continue
				}
				log.WithField("userId", user.ID).Info("linked existing user to identity provider subject")
				return user, nil
			case !app.IsNotFound(err):
				return nil, err
			}
		}

		user, err = r.create(ctx, identity)
		if err != nil {
			log.WithError(err).WithField("attempt", attempt).Debug("creating user lost a race, re-reading")
			lastErr = err
			continue
		}
		log.WithField("userId", user.ID).Info("created user")

		if r.seedSamples {
			if err := SeedSampleAquariums(ctx, r.db, user.ID); err != nil {
				log.WithError(err).Warn("could not seed sample aquariums")
			}
		}
		return user, nil
	}
	return nil, app.Internal("users.Resolve", lastErr)
}

func (r *Users) link(ctx context.Context, user *app.User, identity app.Identity) error {
	fields := map[string]any{"identity_provider_id": identity.Subject}
	if user.Username == nil || *user.Username == "" {
		username, err := r.availableUsername(ctx, usernameBase(user.Email))
		if err != nil {
			return err
		}
		fields["username"] = username
	}
	if (user.Name == nil || *user.Name == "") && identity.Name != "" {
		fields["name"] = identity.Name
	}

	res := r.db.WithContext(ctx).Model(&app.User{}).
		Where("id = ? AND identity_provider_id = ?", user.ID, user.IdentityProviderID).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return app.NotFound("User")
	}

	user.IdentityProviderID = identity.Subject
	if username, ok := fields["username"].(string); ok {
		user.Username = &username
	}
	if name, ok := fields["name"].(string); ok {
		user.Name = &name
	}
	return nil
}

func (r *Users) create(ctx context.Context, identity app.Identity) (*app.User, error) {
	username, err := r.availableUsername(ctx, usernameBase(identity.Email))
	if err != nil {
		return nil, err
	}
	user := &app.User{
		Email:              identity.Email,
		Username:           &username,
		IdentityProviderID: identity.Subject,
	}
	if identity.Name != "" {
		user.Name = &identity.Name
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// availableUsername returns base when it is free, otherwise base followed by the
// smallest free positive number.
func (r *Users) availableUsername(ctx context.Context, base string) (string, error) {
	var taken []string
	err := r.db.WithContext(ctx).Model(&app.User{}).
		Where("username = ? OR username LIKE ?", base, base+"%").
		Pluck("username", &taken).Error
	if err != nil {
		return "", err
	}
	used := make(map[string]bool, len(taken))
	for _, u := range taken {
		used[u] = true
	}
	if !used[base] {
		return base, nil
	}
	for i := 1; ; i++ {
		candidate := base + strconv.Itoa(i)
		if !used[candidate] {
			return candidate, nil
		}
	}
}

// usernameBase derives a username from the local part of an email address.
func usernameBase(email string) string {
	local, _, _ := strings.Cut(strings.ToLower(email), "@")
	local = usernameUnsafeChars.ReplaceAllString(local, "")
	if len(local) > maxUsernameLength {
		local = local[:maxUsernameLength]
	}
	if local == "" {
		return defaultUsername
	}
	return local
}

func (r *Users) Update(ctx context.Context, id string, patch app.UserPatch) (*app.User, error) {
	if fields := patch.Fields(); len(fields) > 0 {
		res := r.db.WithContext(ctx).Model(&app.User{ID: id}).Updates(fields)
		if res.Error != nil {
			return nil, app.Internal("users.Update", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, app.NotFound("User")
		}
	}
	return r.FindByID(ctx, id)
}

// UpdateProfileImageKey stores key as the profile image, or clears it when key is nil.
func (r *Users) UpdateProfileImageKey(ctx context.Context, id string, key *string) (*app.User, error) {
	res := r.db.WithContext(ctx).Model(&app.User{ID: id}).Update("profile_image_key", key)
	if res.Error != nil {
		return nil, app.Internal("users.UpdateProfileImageKey", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, app.NotFound("User")
	}
	return r.FindByID(ctx, id)
}
