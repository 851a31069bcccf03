package apperror

import (
	"errors"
	"fmt"
)

// Categories. Every error below wraps exactly one of them.
var (
	ErrValidation             = errors.New("validation error")
	ErrNotFound               = errors.New("not found")
	ErrIllegalStateTransition = errors.New("illegal state transition")
)

var (
	ErrEmptyPlayerName = fmt.Errorf("%w: player name is required", ErrValidation)
	ErrEmptyGameCode   = fmt.Errorf("%w: game code is required", ErrValidation)
	ErrInvalidSeat     = fmt.Errorf("%w: seat must be 1 or 2", ErrValidation)

	ErrGameNotFound = fmt.Errorf("%w: game not found", ErrNotFound)

	ErrGameFull           = fmt.Errorf("%w: game is full", ErrIllegalStateTransition)
	ErrGameAlreadyStarted = fmt.Errorf("%w: game already started", ErrIllegalStateTransition)
	ErrGameNotActive      = fmt.Errorf("%w: game is not active", ErrIllegalStateTransition)
	ErrNotYourTurn        = fmt.Errorf("%w: it's not your turn", ErrIllegalStateTransition)
	ErrInvalidCell        = fmt.Errorf("%w: invalid cell index", ErrIllegalStateTransition)
	ErrCellOccupied       = fmt.Errorf("%w: cell is already occupied", ErrIllegalStateTransition)
)

// ErrGameAlreadyExists is returned by stores when a code is taken. It is an
// internal signal for the registry to regenerate the code.
var ErrGameAlreadyExists = errors.New("game already exists")
