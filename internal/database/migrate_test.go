package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrationsOrdered(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)
	require.Len(t, migrations, 2)
	assert.Equal(t, "0001_users", migrations[0].Version)
	assert.Equal(t, "0002_complaints", migrations[1].Version)
	assert.Contains(t, migrations[1].SQL, "assignments_one_active_idx")
}
