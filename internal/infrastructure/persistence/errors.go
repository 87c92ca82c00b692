package persistence

import (
	"errors"

	"gorm.io/gorm"

	"github.com/movr/backend/internal/domain/shared"
)

// sqlStateSerializationFailure is raised by CockroachDB and by PostgreSQL at
// SERIALIZABLE isolation when concurrent transactions overlap.
const sqlStateSerializationFailure = "40001"

type sqlStater interface {
	SQLState() string
}

// translate maps driver errors onto domain sentinels
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.ErrAlreadyExists
	}
	var st sqlStater
	if errors.As(err, &st) && st.SQLState() == sqlStateSerializationFailure {
		return shared.ErrConflict
	}
	return err
}
