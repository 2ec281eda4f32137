package database

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryError(t *testing.T) {
	cause := errors.New("socket closed")
	err := &QueryError{Query: "SELECT *\n\t\tFROM chat_message\n\t\tWHERE kind = 'public'", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "surrealdb: SELECT * FROM chat_message WHERE kind = 'public': socket closed", err.Error())
}

func TestQueryError_NoResult(t *testing.T) {
	var err error = &QueryError{Query: "CREATE chat_message CONTENT $data", Err: ErrNoResult}
	assert.ErrorIs(t, err, ErrNoResult)
}
