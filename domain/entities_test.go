package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRole_Valid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleUser, true},
		{RoleModerator, true},
		{RoleAdmin, true},
		{Role("vendor"), false},
		{Role(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.Valid())
		})
	}
}

func TestUser_Public(t *testing.T) {
	created := time.Now().Add(-time.Hour)
	user := &User{
		ID:           7,
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$secret",
		Role:         RoleModerator,
		Provider:     ProviderEmail,
		IsVerified:   true,
		OTP:          &OTPState{CodeHash: "abc", Purpose: OTPPurposeForgotPassword},
		CreatedAt:    created,
	}

	pub := user.Public()
	assert.Equal(t, uint(7), pub.ID)
	assert.Equal(t, RoleModerator, pub.Role)
	assert.True(t, pub.IsVerified)

	raw, err := json.Marshal(pub)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "secret")
	assert.NotContains(t, string(raw), "abc")
}

func TestIssuedOTP_State(t *testing.T) {
	exp := time.Now().Add(10 * time.Minute)
	issued := &IssuedOTP{Code: "123456", Hash: "h", ExpiresAt: exp, Purpose: OTPPurposeSignup}

	state := issued.State()
	assert.Equal(t, "h", state.CodeHash)
	assert.Equal(t, exp, state.ExpiresAt)
	assert.Equal(t, OTPPurposeSignup, state.Purpose)
	assert.False(t, state.Verified)
}

func TestProfileKindFor(t *testing.T) {
	kind, ok := ProfileKindFor(RoleUser)
	assert.True(t, ok)
	assert.Equal(t, ProfileCustomer, kind)

	kind, ok = ProfileKindFor(RoleModerator)
	assert.True(t, ok)
	assert.Equal(t, ProfileModerator, kind)

	_, ok = ProfileKindFor(RoleAdmin)
	assert.False(t, ok)
}

func TestRoleProfile_Validate(t *testing.T) {
	tests := []struct {
		name    string
		profile RoleProfile
		wantErr bool
	}{
		{
			name:    "customer",
			profile: RoleProfile{Kind: ProfileCustomer, Customer: &CustomerProfile{}},
		},
		{
			name:    "moderator",
			profile: RoleProfile{Kind: ProfileModerator, Moderator: &ModeratorProfile{}},
		},
		{
			name:    "customer without payload",
			profile: RoleProfile{Kind: ProfileCustomer},
			wantErr: true,
		},
		{
			name: "both payloads",
			profile: RoleProfile{
				Kind:      ProfileModerator,
				Customer:  &CustomerProfile{},
				Moderator: &ModeratorProfile{},
			},
			wantErr: true,
		},
		{
			name:    "unknown kind",
			profile: RoleProfile{Kind: "vendor"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.profile.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidProfile)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestClientContext_RoundTrip(t *testing.T) {
	ctx := ContextWithClient(t.Context(), &ClientContext{IPAddress: "10.0.0.1", UserAgent: "curl"})

	cc := ClientFromContext(ctx)
	require.NotNil(t, cc)
	assert.Equal(t, "10.0.0.1", cc.IPAddress)

	assert.Nil(t, ClientFromContext(t.Context()))
}
