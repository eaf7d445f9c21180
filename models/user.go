// Package models holds the domain types of the service and the request
// payloads that arrive over HTTP.
//
// Request types carry a Validate method that normalizes input in place
// (trimming, lower-casing emails) and reports the first rule it breaks.
// Services wrap those errors with pkg.ErrBadRequest.
package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata" // member time zones must resolve on hosts without zoneinfo
	"unicode/utf8"
)

// UserRole is the access level of an account.
type UserRole string

const (
	UserRoleMember UserRole = "member"
	UserRoleAdmin  UserRole = "admin"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	return r == UserRoleMember || r == UserRoleAdmin
}

// User is a registered member. Accounts only exist for approved applicants
// and bootstrap admins.
type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"full_name"`
	PasswordHash  string    `json:"-"`
	Role          UserRole  `json:"role"`
	ApplicationID *string   `json:"application_id"`
	Timezone      string    `json:"timezone"`
	CreatedAt     time.Time `json:"created_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == UserRoleAdmin
}

// Location returns the user's time zone, falling back to UTC when the stored
// name does not load.
func (u *User) Location() *time.Location {
	if u.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(u.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// MemberListItem is a user row in the admin member list.
type MemberListItem struct {
	User
	GroupID   *string `json:"group_id"`
	GroupName *string `json:"group_name"`
}

var emailRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email looks like an address.
func ValidEmail(email string) bool {
	return len(email) <= 254 && emailRegex.MatchString(email)
}

func validatePassword(password string) error {
	n := utf8.RuneCountInString(password)
	if n < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}
	if n > 128 {
		return fmt.Errorf("password must be at most 128 characters")
	}
	return nil
}

func validateFullName(name string) error {
	n := utf8.RuneCountInString(name)
	if n < 2 || n > 100 {
		return fmt.Errorf("full name must be between 2 and 100 characters")
	}
	return nil
}

// EligibilityRequest asks whether an email may create an account.
type EligibilityRequest struct {
	Email string `json:"email"`
}

// Validate normalizes and checks the email.
func (r *EligibilityRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	if !ValidEmail(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// RegisterRequest is the signup payload.
type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// Validate normalizes and checks the signup payload.
func (r *RegisterRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	if !ValidEmail(r.Email) {
		return fmt.Errorf("invalid email format")
	}
	r.FullName = strings.TrimSpace(r.FullName)
	if err := validateFullName(r.FullName); err != nil {
		return err
	}
	return validatePassword(r.Password)
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks that both fields are present.
func (r *LoginRequest) Validate() error {
	r.Email = NormalizeEmail(r.Email)
	if r.Email == "" {
		return fmt.Errorf("email is required")
	}
	if r.Password == "" {
		return fmt.Errorf("password is required")
	}
	return nil
}

// ChangePasswordRequest is sent by a signed-in member.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Validate checks the new password rules.
func (r *ChangePasswordRequest) Validate() error {
	if r.CurrentPassword == "" {
		return fmt.Errorf("current password is required")
	}
	if err := validatePassword(r.NewPassword); err != nil {
		return err
	}
	if r.CurrentPassword == r.NewPassword {
		return fmt.Errorf("new password must be different from current password")
	}
	return nil
}

// UpdateProfileRequest updates the caller's own profile. Nil fields are left
// unchanged.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name"`
	Timezone *string `json:"timezone"`
}

// Validate checks the supplied fields. The time zone must be loadable.
func (r *UpdateProfileRequest) Validate() error {
	if r.FullName == nil && r.Timezone == nil {
		return fmt.Errorf("nothing to update")
	}
	if r.FullName != nil {
		name := strings.TrimSpace(*r.FullName)
		if err := validateFullName(name); err != nil {
			return err
		}
		r.FullName = &name
	}
	if r.Timezone != nil {
		tz := strings.TrimSpace(*r.Timezone)
		if tz == "" {
			return fmt.Errorf("timezone is required")
		}
		if _, err := time.LoadLocation(tz); err != nil {
			return fmt.Errorf("unknown timezone %q", tz)
		}
		r.Timezone = &tz
	}
	return nil
}

// SetRoleRequest changes a member's role.
type SetRoleRequest struct {
	Role UserRole `json:"role"`
}

// Validate checks the role value.
func (r *SetRoleRequest) Validate() error {
	if !r.Role.Valid() {
		return fmt.Errorf("role must be member or admin")
	}
	return nil
}
