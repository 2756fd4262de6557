package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestUserIndexesEnforceUniqueness(t *testing.T) {
	indexes := userIndexes()
	require.Len(t, indexes, 2)

	fields := make(map[string]bool)
	for _, idx := range indexes {
		keys, ok := idx.Keys.(bson.D)
		require.True(t, ok)
		require.Len(t, keys, 1)

		require.NotNil(t, idx.Options)
		require.NotNil(t, idx.Options.Unique)
		assert.True(t, *idx.Options.Unique, "index on %s must be unique", keys[0].Key)

		fields[keys[0].Key] = true
	}

	assert.True(t, fields["username"])
	assert.True(t, fields["email"])
}
