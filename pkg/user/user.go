package user

import "time"

type User struct {
	Id        int
	Uid       string
	Email     string
	Name      string
	CreatedAt time.Time
}

// Identity is what the identity provider tells us about the caller.
type Identity struct {
	Uid   string
	Email string
	Name  string
}

const defaultName = "No Name"
