package types

import "errors"

// Store operation errors.
var (
	ErrNotFound     = errors.New("entity not found")
	ErrInvalidID    = errors.New("invalid entity ID")
	ErrInvalidData  = errors.New("invalid entity data")
	ErrInvalidPet   = errors.New("pet must have a non-empty id and name")
	ErrDuplicateID  = errors.New("record with this id already exists")
	ErrPetNotFound  = errors.New("pet not found")
	ErrStoreClosed  = errors.New("store is closed")
	ErrNoBackup     = errors.New("no backup available")

	ErrPetListUnusable = errors.New("pet list is unreadable; run pet repair first")
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidRange = errors.New("value out of range")
)

// Relationship errors.
var (
	ErrSelfRelation      = errors.New("a pet cannot be related to itself")
	ErrSlotOccupied      = errors.New("relationship slot is already filled by another pet")
	ErrIneligible        = errors.New("pet is not eligible for this relationship")
	ErrUnknownRelation   = errors.New("unknown relationship kind")
	ErrRelationNotLinked = errors.New("pets are not linked by this relationship")
)

// Auth errors. Messages are shown to the user verbatim.
var (
	ErrNoAccount         = errors.New("no account found with this email")
	ErrIncorrectPassword = errors.New("incorrect password")
	ErrEmailTaken        = errors.New("an account with this email already exists")
	ErrUsernameTaken     = errors.New("this username is already taken")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrMissingField      = errors.New("username, email and password are required")
	ErrNotAuthenticated  = errors.New("not logged in")
)

// Feed errors.
var (
	ErrEmptyPost    = errors.New("post title and content must not be empty")
	ErrEmptyComment = errors.New("comment must not be empty")
)

// Config errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrSecretsUnknown = errors.New("unknown secrets store")
	ErrDSNRequired    = errors.New("postgres backend requires a dsn")
)
