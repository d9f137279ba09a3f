package serviceerr

import "errors"

var ErrConflict = errors.New("already exists")
var ErrNotFound = errors.New("not found")
var ErrNoSession = errors.New("no session")
var ErrNotOwner = errors.New("not the owner")
var ErrSessionExpired = errors.New("session expired")
var ErrStateMismatch = errors.New("state mismatch")
