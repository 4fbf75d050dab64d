package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequireToken(t *testing.T) {
	env := newTestEnv(t)

	expired := claimsFor("auth0|late", "late@example.com")
	expired["exp"] = time.Now().Add(-time.Minute).Unix()
	wrongAudience := claimsFor("auth0|aud", "aud@example.com")
	wrongAudience["aud"] = []string{"https://someone.else"}
	wrongIssuer := claimsFor("auth0|iss", "iss@example.com")
	wrongIssuer["iss"] = "https://evil.example.com/"
	noSubject := claimsFor("", "nosub@example.com")
	delete(noSubject, "sub")

	tests := []struct {
		name   string
		header string
		want   string
	}{
		{"missing header", "", "No authorization token was found"},
		{"not bearer", "Basic dXNlcjpwYXNz", "No authorization token was found"},
		{"garbage", "Bearer not-a-jwt", "Invalid token"},
		{"foreign key", "Bearer " + signToken(t, otherKey, claimsFor("auth0|x", "x@example.com")), "Invalid token"},
		{"expired", "Bearer " + signToken(t, signingKey, expired), "Invalid token"},
		{"wrong audience", "Bearer " + signToken(t, signingKey, wrongAudience), "Invalid token"},
		{"wrong issuer", "Bearer " + signToken(t, signingKey, wrongIssuer), "Invalid token"},
		{"no subject", "Bearer " + signToken(t, signingKey, noSubject), "Unauthorized - missing auth0 ID"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newRequest(http.MethodGet, "/api/users/me")
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := serve(env, req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			resp := decode(t, rec)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.want, resp.Error)
		})
	}
}

func TestSyncCreatesAndReturnsUser(t *testing.T) {
	env := newTestEnv(t)
	bearer := token(t, "auth0|sync", "Coral.Keeper@example.com")

	rec := env.do(t, http.MethodPost, "/api/users/sync", bearer, map[string]string{"name": "Coral Keeper"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var user UserView
	decodeData(t, rec, &user)
	assert.Equal(t, "coral.keeper", *user.Username)
	assert.Equal(t, "Coral Keeper", *user.Name)
	assert.Equal(t, "auth0|sync", user.IdentityProviderID)
	assert.Nil(t, user.ProfileImageURL)

	rec = env.do(t, http.MethodGet, "/api/users/me", bearer, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me UserView
	decodeData(t, rec, &me)
	assert.Equal(t, user.ID, me.ID)

	name := "Renamed"
	rec = env.do(t, http.MethodPut, "/api/users/me", bearer, map[string]string{"name": name})
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &me)
	assert.Equal(t, name, *me.Name)
}

func TestSyncWithoutEmailUsesPlaceholder(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/users/sync", token(t, "auth0|noemail", ""), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var user UserView
	decodeData(t, rec, &user)
	assert.Equal(t, "auth0|noemail@auth0.placeholder", user.Email)

	claims := claimsFor("auth0|namespaced", "")
	claims["https://reefing.com/email"] = "namespaced@example.com"
	rec = env.do(t, http.MethodPost, "/api/users/sync", signToken(t, signingKey, claims), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeData(t, rec, &user)
	assert.Equal(t, "namespaced@example.com", user.Email)
}

func TestConcurrentFirstSync(t *testing.T) {
	env := newTestEnv(t)
	bearer := token(t, "auth0|burst", "burst@example.com")

	const callers = 6
	codes := make([]int, callers)
	ids := make([]string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rec := env.do(t, http.MethodPost, "/api/users/sync", bearer, nil)
			codes[i] = rec.Code
			var resp struct {
				Data UserView `json:"data"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err == nil && resp.Data.User != nil {
				ids[i] = resp.Data.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		assert.Equal(t, http.StatusOK, codes[i])
		assert.NotEmpty(t, ids[i])
		assert.Equal(t, ids[0], ids[i])
	}
}

func TestUnverifiedEmailCannotTakeOverAccount(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/users/sync", token(t, "auth0|first", "keeper@example.com"), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var first UserView
	decodeData(t, rec, &first)

	claims := claimsFor("github|second", "keeper@example.com")
	claims["email_verified"] = false
	rec = env.do(t, http.MethodGet, "/api/users/me", signToken(t, signingKey, claims), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "Email address must be verified to access this account", decode(t, rec).Error)

	rec = env.do(t, http.MethodGet, "/api/users/me", token(t, "auth0|first", "keeper@example.com"), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me UserView
	decodeData(t, rec, &me)
	assert.Equal(t, first.ID, me.ID)
	assert.Equal(t, "auth0|first", me.IdentityProviderID)
}
