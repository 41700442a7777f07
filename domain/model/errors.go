package model

import "errors"

var (
	ErrUnitStateNotFound = errors.New("unit state not found")
	ErrConfigInvalid     = errors.New("config invalid")
	ErrNamespaceMissing  = errors.New("namespace not set")
	ErrImageResource     = errors.New("image resource invalid")
	ErrUnknownCharm      = errors.New("unknown charm")
	ErrUnknownEvent      = errors.New("unknown event")
	ErrEventMissing      = errors.New("no event given")
)
