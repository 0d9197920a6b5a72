package mongo

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestTxConflict(t *testing.T) {
	require.True(t, txConflict(mongo.CommandError{Code: writeConflictCode, Name: "WriteConflict"}))
	require.True(t, txConflict(mongo.CommandError{Code: 251, Labels: []string{"TransientTransactionError"}}))
	require.False(t, txConflict(mongo.CommandError{Code: 11000, Name: "DuplicateKey"}))
	require.False(t, txConflict(errors.New("network down")))
	require.False(t, txConflict(nil))
}
