package models

import (
	"time"
)

const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// ReservedUsername is routed to the profile endpoint and can never be registered.
const ReservedUsername = "me"

type User struct {
	ID                   int64     `json:"id"`
	Username             string    `json:"username"`
	Email                string    `json:"email"`
	Bio                  string    `json:"bio"`
	Role                 string    `json:"role"`
	IsSuperuser          bool      `json:"-"`
	IsActive             bool      `json:"-"`
	ConfirmationCodeHash []byte    `json:"-"`
	CreatedAt            time.Time `json:"-"`
	UpdatedAt            time.Time `json:"-"`
}

// AnonymousUser marks an unauthenticated request actor.
var AnonymousUser = &User{}

func (u *User) IsAnonymous() bool {
	return u == nil || u == AnonymousUser
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin || u.IsSuperuser
}

func (u *User) IsModerator() bool {
	return u.Role == RoleModerator
}

type Category struct {
	ID   int64  `json:"-"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Genre struct {
	ID   int64  `json:"-"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type Title struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Year        int32     `json:"year"`
	Description string    `json:"description"`
	CategoryID  *int64    `json:"-"`
	CreatedAt   time.Time `json:"-"`
}

type Review struct {
	ID        int64     `json:"id"`
	TitleID   int64     `json:"-"`
	UserID    int64     `json:"-"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"pub_date"`
}

type Comment struct {
	ID        int64     `json:"id"`
	ReviewID  int64     `json:"-"`
	UserID    int64     `json:"-"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"pub_date"`
}
