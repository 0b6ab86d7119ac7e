package db

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vantage-sense/vantage/internal/config"
	"gorm.io/gorm"
)

func TestDialectSelection(t *testing.T) {
	for _, dbType := range []string{"mysql", "postgres", "sqlite"} {
		dialector, err := Dialect(config.Config{DBType: dbType})
		require.NoError(t, err, dbType)
		require.NotNil(t, dialector, dbType)
	}

	_, err := Dialect(config.Config{DBType: "oracle"})
	assert.Error(t, err)
}

func TestIsDuplicateKeyErr(t *testing.T) {
	assert.False(t, IsDuplicateKeyErr(nil))
	assert.False(t, IsDuplicateKeyErr(errors.New("connection refused")))

	assert.True(t, IsDuplicateKeyErr(gorm.ErrDuplicatedKey))
	assert.True(t, IsDuplicateKeyErr(errors.New(`duplicate key value violates unique constraint "threshold_profiles_user_id_key"`)))
	assert.True(t, IsDuplicateKeyErr(errors.New("Error 1062: Duplicate entry")))
	assert.True(t, IsDuplicateKeyErr(errors.New("UNIQUE constraint failed: api_tokens.token_hash")))
}
