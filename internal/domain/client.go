// Package domain contains entities without logic, just meta-data
package domain

import (
	"errors"

	"github.com/google/uuid"
)

const MaxClientIDLen = 64

var (
	ErrEmptyClientID   = errors.New("client id empty")
	ErrClientIDTooLong = errors.New("client id too long")
)

// ClientID is the caller-supplied identifier. It is not unique: two
// connections may present the same one.
type ClientID string

// SessionID identifies a single connection for its whole lifetime.
type SessionID string

func ParseClientID(raw string) (ClientID, error) {
	if len(raw) == 0 {
		return "", ErrEmptyClientID
	}
	if len(raw) > MaxClientIDLen {
		return "", ErrClientIDTooLong
	}
	return ClientID(raw), nil
}

func NewSessionID() SessionID {
	return SessionID(uuid.NewString())
}
