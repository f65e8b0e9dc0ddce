package scraper

import (
	"errors"
)

var (
	ErrInvalidURL = errors.New("invalid Amazon URL")
	ErrBlocked    = errors.New("blocked by Amazon anti-bot")
	ErrNoResults  = errors.New("no search results")
)
