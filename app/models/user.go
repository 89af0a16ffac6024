package models

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Role of an account
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// User is an account. Password always holds a bcrypt hash.
type User struct {
	Base
	FullName string `gorm:"type:varchar(150);not null" json:"full_name" validate:"required,min=2,max=150"`
	Email    string `gorm:"uniqueIndex:uniq_user_email;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin;not null" json:"email" validate:"required,email,max=200"`
	Password string `gorm:"type:varchar(100);not null" json:"password,omitempty" validate:"required"`
	Role     Role   `gorm:"type:varchar(20);not null;default:'customer'" json:"role" validate:"oneof=customer admin"`
}

func (User) TableName() string {
	return "users"
}

func (u *User) Validate() error {
	return validate.Struct(u)
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	u.ApplyDefaults()
	return nil
}

func (u *User) ApplyDefaults() {
	if u.Role == "" {
		u.Role = RoleCustomer
	}
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NewUser builds a validated account with a hashed password.
func NewUser(fullName, email, password string, role Role) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		FullName: strings.TrimSpace(fullName),
		Email:    NormalizeEmail(email),
		Password: pw,
		Role:     role,
	}
	u.ApplyDefaults()

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

// NormalizeEmail trims and lower-cases an address so lookups are case insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}
