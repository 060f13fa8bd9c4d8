package store_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oxhq/jsdeobf/internal/store"
)

func TestConnectMigrateAndRoundTrip(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "runs.db")
	db, err := store.Connect(dsn, false)
	require.NoError(t, err)

	s := store.New(db)
	inputDigest := store.Digest([]byte("var a = 1;"))
	optionsDigest := store.Digest([]byte("default"))

	rec, err := s.Lookup(inputDigest, optionsDigest)
	require.NoError(t, err)
	require.Nil(t, rec)

	err = s.Record(inputDigest, optionsDigest, "var a = 1;", "var a = 1;\n",
		[]store.PassStat{{Pass: "P6-expression-simplification", Rewrites: 0}}, 0, time.Millisecond)
	require.NoError(t, err)

	rec, err = s.Lookup(inputDigest, optionsDigest)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Equal(t, "var a = 1;\n", rec.Output)
}

func TestDigestIsDeterministic(t *testing.T) {
	require.Equal(t, store.Digest([]byte("abc")), store.Digest([]byte("abc")))
	require.NotEqual(t, store.Digest([]byte("abc")), store.Digest([]byte("abd")))
}
