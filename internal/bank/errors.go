package bank

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("entity not found")
	ErrValidation        = errors.New("validation failed")
	ErrIDPresentOnCreate = errors.New("a new entity cannot already have an id")
	ErrIDNullOnUpdate    = errors.New("invalid id")
	ErrIDMismatch        = errors.New("path id and payload id differ")
)

// EntityError ties one of the sentinel errors to the entity it concerns.
// Key carries the short alert code used by clients (idexists, idnull, ...).
type EntityError struct {
	Entity string
	Key    string
	ID     int64
	Field  string
	Msg    string
	Err    error
}

func (e *EntityError) Error() string {
	switch {
	case e.Msg != "":
		return fmt.Sprintf("%s: %s", e.Entity, e.Msg)
	case e.ID != 0:
		return fmt.Sprintf("%s %d: %v", e.Entity, e.ID, e.Err)
	default:
		return fmt.Sprintf("%s: %v", e.Entity, e.Err)
	}
}

func (e *EntityError) Unwrap() error { return e.Err }

func notFound(entity string, id int64) error {
	return &EntityError{Entity: entity, Key: "idnotfound", ID: id, Err: ErrNotFound}
}

func invalidField(entity, field, msg string) error {
	return &EntityError{Entity: entity, Key: "validation", Field: field, Msg: field + ": " + msg, Err: ErrValidation}
}

// checkPathID applies the update preconditions shared by replace and merge.
func checkPathID(entity string, pathID int64, payloadID *int64) error {
	if payloadID == nil || *payloadID == 0 {
		return &EntityError{Entity: entity, Key: "idnull", Err: ErrIDNullOnUpdate}
	}
	if *payloadID != pathID {
		return &EntityError{
			Entity: entity, Key: "idinvalid", ID: pathID,
			Msg: fmt.Sprintf("path id %d differs from payload id %d", pathID, *payloadID),
			Err: ErrIDMismatch,
		}
	}
	return nil
}
