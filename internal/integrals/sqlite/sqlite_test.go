package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rodriguezariascarlos/tccm-homeworks/internal/domain"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/tensor"
	"github.com/rodriguezariascarlos/tccm-homeworks/internal/testutil"
)

func TestWriteThenLoad(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ints.db")
	want := testutil.FourOrbitalSystem()

	s := NewStore()
	require.NoError(t, s.Write(ctx, path, want))

	got, err := s.Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestWrite_Overwrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ints.db")

	s := NewStore()
	require.NoError(t, s.Write(ctx, path, testutil.FourOrbitalSystem()))
	require.NoError(t, s.Write(ctx, path, testutil.TwoOrbitalSystem()))

	got, err := s.Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, testutil.TwoOrbitalSystem(), got)
}

func TestWrite_RecordsArchiveID(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ints.db")
	require.NoError(t, NewStore().Write(ctx, path, testutil.TwoOrbitalSystem()))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var id string
	require.NoError(t, db.QueryRow(`SELECT value FROM meta WHERE key = ?`, keyArchiveID).Scan(&id))
	_, err = uuid.Parse(id)
	assert.NoError(t, err)
}

func TestLoad_PreservesRecordOrder(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ints.db")
	in := testutil.TwoOrbitalSystem()
	in.ERI = []domain.ERIRecord{
		{I: 1, J: 1, K: 1, L: 1, Value: 0.2},
		{I: 0, J: 0, K: 0, L: 0, Value: 0.3},
		{I: 1, J: 1, K: 1, L: 1, Value: 0.25},
	}
	require.NoError(t, NewStore().Write(ctx, path, in))

	got, err := NewStore().Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, in.ERI, got.ERI)
}

func TestLoad_WithoutOrbitalEnergies(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ints.db")
	in := testutil.TwoOrbitalSystem()
	in.OrbitalEnergies = nil
	require.NoError(t, NewStore().Write(ctx, path, in))

	got, err := NewStore().Load(ctx, path)
	require.NoError(t, err)
	assert.False(t, got.HasOrbitalEnergies())
}

func TestLoad_MissingMeta(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ints.db")
	require.NoError(t, NewStore().Write(ctx, path, testutil.TwoOrbitalSystem()))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM meta WHERE key = ?`, keyMOCount)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = NewStore().Load(ctx, path)
	require.ErrorIs(t, err, domain.ErrInvalidIntegrals)
	assert.Contains(t, err.Error(), "mo_count")
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := NewStore().Load(context.Background(), filepath.Join(t.TempDir(), "missing.db"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestWrite_RejectsInvalid(t *testing.T) {
	in := testutil.TwoOrbitalSystem()
	in.MOCount = 0
	err := NewStore().Write(context.Background(), filepath.Join(t.TempDir(), "x.db"), in)
	require.ErrorIs(t, err, domain.ErrInvalidIntegrals)
}

func TestLoad_HugeMOCount(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ints.db")
	require.NoError(t, NewStore().Write(ctx, path, testutil.TwoOrbitalSystem()))

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE meta SET value = ? WHERE key = ?`, "4000000000", keyMOCount)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	require.NotPanics(t, func() {
		_, err = NewStore().Load(ctx, path)
	})
	require.ErrorIs(t, err, domain.ErrInvalidIntegrals)
	require.ErrorIs(t, err, tensor.ErrTooLarge)
}

func TestOpenReadOnly_RejectsWrites(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "ints.db")
	require.NoError(t, NewStore().Write(ctx, path, testutil.TwoOrbitalSystem()))

	db, err := openReadOnly(path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM meta`).Scan(&n))
	assert.Positive(t, n)

	_, err = db.Exec(`INSERT INTO meta (key, value) VALUES ('extra', '1')`)
	require.Error(t, err)

	got, err := NewStore().Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, testutil.TwoOrbitalSystem(), got)
}
