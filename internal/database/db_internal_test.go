package database

import (
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/require"
)

func TestBuilderForPlaceholders(t *testing.T) {
	t.Parallel()
	cases := []struct {
		provider Provider
		want     string
	}{
		{Postgres, "SELECT id FROM trips WHERE status = $1 AND driver_id = $2"},
		{MySQL, "SELECT id FROM trips WHERE status = ? AND driver_id = ?"},
		{SQLite, "SELECT id FROM trips WHERE status = ? AND driver_id = ?"},
	}
	for _, tc := range cases {
		t.Run(string(tc.provider), func(t *testing.T) {
			t.Parallel()
			query, args, err := builderFor(tc.provider).
				Select("id").From("trips").
				Where(sq.Eq{"status": "Planned"}).
				Where(sq.Eq{"driver_id": "d-1"}).
				ToSql()
			require.NoError(t, err)
			require.Equal(t, tc.want, query)
			require.Equal(t, []any{"Planned", "d-1"}, args)
		})
	}
}
