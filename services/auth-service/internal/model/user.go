package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// PermissionLevel is the role of a user.
type PermissionLevel string

const (
	PermissionUser          PermissionLevel = "User"
	PermissionVerifiedUser  PermissionLevel = "VerifiedUser"
	PermissionAdministrator PermissionLevel = "Administrator"
)

// AccountStatus is the lifecycle state of an account.
type AccountStatus string

const (
	AccountActive      AccountStatus = "Active"
	AccountSuspended   AccountStatus = "Suspended"
	AccountDeactivated AccountStatus = "Deactivated"
)

// User represents a user of Athletic Spots. Field names follow the documents
// already stored in the shared "users" collection.
type User struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	Username    string        `bson:"username"`
	Email       string        `bson:"email"`
	Credentials *Credentials  `bson:"credentials,omitempty"`
	Profile     *Profile      `bson:"profile,omitempty"`
	Permissions *Permissions  `bson:"permissions,omitempty"`
	Meta        *Meta         `bson:"meta,omitempty"`
	CreatedAt   time.Time     `bson:"createdAt"`
	UpdatedAt   time.Time     `bson:"updatedAt"`
}

// Credentials is embedded in User. ResetToken and ResetTokenExpiry are either
// both set or both nil.
type Credentials struct {
	PasswordHash     string     `bson:"passwordHash,omitempty"`
	LastChanged      *time.Time `bson:"lastChanged,omitempty"`
	ResetToken       *string    `bson:"resetToken"`
	ResetTokenExpiry *time.Time `bson:"resetTokenExpiry"`
}

type Profile struct {
	FirstName   string     `bson:"firstName,omitempty"`
	LastName    string     `bson:"lastName,omitempty"`
	Bio         string     `bson:"bio,omitempty"`
	JoinDate    *time.Time `bson:"joinDate,omitempty"`
	PhoneNumber string     `bson:"phoneNumber,omitempty"`
}

type Permissions struct {
	Level        PermissionLevel `bson:"level,omitempty"`
	LastPromoted *time.Time      `bson:"lastPromoted,omitempty"`
}

type Meta struct {
	LastActive       *time.Time    `bson:"lastActive,omitempty"`
	AccountStatus    AccountStatus `bson:"accountStatus,omitempty"`
	VerificationDate *time.Time    `bson:"verificationDate,omitempty"`
}

// PasswordHash returns the stored hash, or "" if none was ever set.
func (u *User) PasswordHash() string {
	if u.Credentials == nil {
		return ""
	}
	return u.Credentials.PasswordHash
}

// Role returns the permission level, defaulting to PermissionUser.
func (u *User) Role() PermissionLevel {
	if u.Permissions == nil || u.Permissions.Level == "" {
		return PermissionUser
	}
	return u.Permissions.Level
}

// IsAdministrator reports whether the account has administrator permissions.
func (u *User) IsAdministrator() bool {
	return u.Role() == PermissionAdministrator
}
