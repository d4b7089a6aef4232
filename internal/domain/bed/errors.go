package bed

import "errors"

// Sentinel errors returned by the action engine. Handlers map these to HTTP
// statuses; anything else is treated as an internal failure.
var (
	ErrBedNotFound     = errors.New("bed not found")
	ErrPatientNotFound = errors.New("patient not found")
	ErrBedOccupied     = errors.New("bed is already occupied")
	ErrBedNotOccupied  = errors.New("bed is not occupied")
	ErrTargetNotFound  = errors.New("target bed not found")
	ErrTargetOccupied  = errors.New("target bed is occupied")
	ErrSameBed         = errors.New("target bed must differ from source bed")
	ErrInvalidESI      = errors.New("esi level must be between 1 and 5")
	ErrMissingField    = errors.New("missing required field")
	ErrUnknownAction   = errors.New("unknown action")
)
