package erm

import (
	"fmt"

	"github.com/google/uuid"
)

// NewEntity returns a fresh random entity. Only uuid.UUID and string entity
// types can be generated; strings hold the canonical UUID text.
func NewEntity[E any]() (E, error) {
	var e E
	switch p := any(&e).(type) {
	case *uuid.UUID:
		*p = uuid.New()
	case *string:
		*p = uuid.NewString()
	default:
		return e, fmt.Errorf("%w: cannot generate %T entities", ErrUnsupportedEntity, e)
	}
	return e, nil
}
