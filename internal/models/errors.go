package models

import "errors"

var ErrNotFound = errors.New("requested resource not found")
var ErrConflict = errors.New("resource conflict, item already exists")
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrBadSignature indicates a webhook payload whose signature did not verify
// against the shared secret. Treated as hostile input and rejected outright.
var ErrBadSignature = errors.New("webhook signature verification failed")

// ErrAmountTooSmall indicates a donation below the minimum charge threshold.
var ErrAmountTooSmall = errors.New("donation amount below minimum")
