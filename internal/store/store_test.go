package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r, err := InitRedis(mr.Addr())
	require.NoError(t, err)
	t.Cleanup(r.Close)
	return r, mr
}

func TestRedisReaderScoping(t *testing.T) {
	r, mr := setupRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("signals:u1:_pcrprs", `["a","b"]`))
	require.NoError(t, mr.Set("signals:_pprebid", `{"params":{}}`))

	raw, err := r.User("u1").Get(ctx, "_pcrprs")
	require.NoError(t, err)
	assert.JSONEq(t, `["a","b"]`, string(raw))

	// another user does not see u1's signals
	_, err = r.User("u2").Get(ctx, "_pcrprs")
	assert.ErrorIs(t, err, ErrNotFound)

	// the global reader hits the unscoped key space
	raw, err = r.Global().Get(ctx, "_pprebid")
	require.NoError(t, err)
	assert.JSONEq(t, `{"params":{}}`, string(raw))
}

func TestStringsCoercion(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{name: "strings", raw: `["a","b"]`, want: []string{"a", "b"}},
		{name: "numbers stringified", raw: `[1000001, 42]`, want: []string{"1000001", "42"}},
		{name: "mixed, non-scalars dropped", raw: `["x", 7, null, {"k":1}, ["y"]]`, want: []string{"x", "7"}},
		{name: "empty", raw: `[]`, want: []string{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m.SetString("k", tc.raw)
			got, err := Strings(ctx, m, "k")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestJSONErrors(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	var v []string
	err := JSON(ctx, m, "missing", &v)
	assert.ErrorIs(t, err, ErrNotFound)

	m.SetString("bad", `not-json`)
	err = JSON(ctx, m, "bad", &v)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
