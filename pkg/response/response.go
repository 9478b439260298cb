package response

import (
	"errors"
	"fmt"
)

type Response struct {
	ResponseError `json:"error,omitzero"`
}

type ResponseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

//Error Codes
type ErrCode string

var (
	FAILED_REQUEST    ErrCode = "REQUEST_FAILED"
	BAD_REQUEST       ErrCode = "FAILED_TO_DECODE"
	VALIDATION        ErrCode = "VALIDATION_ERROR"
	NOT_FOUND         ErrCode = "NOT_FOUND"
	LOCKED            ErrCode = "LOCKED"
	SLOT_TAKEN        ErrCode = "SLOT_TAKEN"
	DATE_OUT_OF_RANGE ErrCode = "DATE_OUT_OF_RANGE"
)

var (
	ErrBadRequest     = errors.New("bad request")
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("resource not found")
	ErrLocked         = errors.New("resource is locked")
	ErrSlotTaken      = errors.New("slot is taken")
	ErrDateOutOfRange = errors.New("date is out of the bookable range")
)

// Conflict sources reported by SlotTakenError.
const (
	SourceOccupied = "occupied"
	SourceBlocked  = "blocked"
)

// SlotTakenError carries which kind of conflict rejected a write.
// errors.Is(err, ErrSlotTaken) matches it.
type SlotTakenError struct {
	Source string
}

func (e *SlotTakenError) Error() string {
	return fmt.Sprintf("slot is taken: %s", e.Source)
}

func (e *SlotTakenError) Is(target error) bool {
	return target == ErrSlotTaken
}

// TakenSource extracts the conflict source from an error chain. A bare
// ErrSlotTaken (the storage uniqueness backstop) counts as occupied.
func TakenSource(err error) string {
	var st *SlotTakenError
	if errors.As(err, &st) {
		return st.Source
	}
	return SourceOccupied
}

func Error(code, msg string) Response {
	return Response{
		ResponseError: ResponseError{
			Code:    code,
			Message: msg,
		},
	}
}
