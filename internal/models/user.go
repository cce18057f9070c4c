package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type User struct {
	ID                      primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Avatar                  string             `bson:"avatar" json:"avatar"`
	Username                string             `bson:"username" json:"username"`
	Email                   string             `bson:"email" json:"email"`
	Role                    Role               `bson:"role" json:"role"`
	LoginType               LoginType          `bson:"loginType" json:"loginType"`
	Password                string             `bson:"password" json:"-"`
	IsEmailVerified         bool               `bson:"isEmailVerified" json:"isEmailVerified"`
	ForgotPasswordToken     string             `bson:"forgotPasswordToken,omitempty" json:"-"`
	ForgotPasswordExpiry    *time.Time         `bson:"forgotPasswordExpiry,omitempty" json:"-"`
	EmailVerificationToken  string             `bson:"emailVerificationToken,omitempty" json:"-"`
	EmailVerificationExpiry *time.Time         `bson:"emailVerificationExpiry,omitempty" json:"-"`
	CreatedAt               time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt               time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

type Profile struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Owner       primitive.ObjectID `bson:"owner" json:"owner"`
	FirstName   string             `bson:"firstName" json:"firstName"`
	LastName    string             `bson:"lastName" json:"lastName"`
	CountryCode string             `bson:"countryCode" json:"countryCode"`
	PhoneNumber string             `bson:"phoneNumber" json:"phoneNumber"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
