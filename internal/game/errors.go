package game

import "errors"

var (
	ErrGameNotFound     = errors.New("game not found")
	ErrGameExists       = errors.New("game already exists")
	ErrGameStarted      = errors.New("game already started")
	ErrUnknownCommand   = errors.New("unknown command type")
	ErrMissingReference = errors.New("referenced entity not found")
	ErrUnknownGameType  = errors.New("unknown game type")
)
