package model

import "errors"

// Platform is a catalog entry for a shopping platform posts can reference.
type Platform struct {
	ID       int64   `db:"id" json:"id"`
	Name     string  `db:"name" json:"name"`
	Domain   string  `db:"domain" json:"domain"`
	LogoURL  *string `db:"logo_url" json:"logo_url"`
	Verified bool    `db:"verified" json:"verified"`
}

var ErrPlatformNotFound = errors.New("platform not found")
