package models

import (
	"testing"
)

func TestUser_Validate(t *testing.T) {
	tests := []struct {
		name    string
		user    User
		wantErr bool
	}{
		{
			name: "Valid freelancer",
			user: User{
				Email:       "test@example.com",
				DisplayName: "Test User",
				Role:        RoleFreelancer,
			},
			wantErr: false,
		},
		{
			name: "Valid client",
			user: User{
				Email:       "client@example.com",
				DisplayName: "Test Client",
				Role:        RoleClient,
			},
			wantErr: false,
		},
		{
			name: "Empty email",
			user: User{
				Email:       "",
				DisplayName: "Test User",
				Role:        RoleFreelancer,
			},
			wantErr: true,
		},
		{
			name: "Invalid email",
			user: User{
				Email:       "invalid-email",
				DisplayName: "Test User",
				Role:        RoleFreelancer,
			},
			wantErr: true,
		},
		{
			name: "Empty display name",
			user: User{
				Email:       "test@example.com",
				DisplayName: "",
				Role:        RoleFreelancer,
			},
			wantErr: true,
		},
		{
			name: "Display name too short",
			user: User{
				Email:       "test@example.com",
				DisplayName: "A",
				Role:        RoleFreelancer,
			},
			wantErr: true,
		},
		{
			name: "Unknown role",
			user: User{
				Email:       "test@example.com",
				DisplayName: "Test User",
				Role:        "moderator",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.user.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("User.Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
