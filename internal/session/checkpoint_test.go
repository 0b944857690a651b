package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckpointStore_CreateGetList(t *testing.T) {
	root := t.TempDir()
	cs, err := NewCheckpointStore(root, "/work/my-project")
	require.NoError(t, err)

	first, err := cs.Create("before-refactor", "S1P1P2P3", "abc123", "sess-1")
	require.NoError(t, err)
	second, err := cs.Create("after-refactor", "S1P1P2P3S2P1", "", "sess-1")
	require.NoError(t, err)

	got, err := cs.Get(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "before-refactor", got.Name)
	assert.Equal(t, "abc123", got.GitCommit)
	assert.Equal(t, "sess-1", got.SessionID)

	cps, err := cs.List()
	require.NoError(t, err)
	require.Len(t, cps, 2)
	ids := []string{cps[0].ID, cps[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)
}

func TestCheckpointStore_GetMissing(t *testing.T) {
	cs, err := NewCheckpointStore(t.TempDir(), "/p")
	require.NoError(t, err)
	_, err = cs.Get("nope")
	require.Error(t, err)
}

func TestProjectHash_StableAndDistinct(t *testing.T) {
	a := ProjectHash("/work/alpha")
	b := ProjectHash("/work/alpha")
	c := ProjectHash("/work/beta")
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 16)
}

func TestCheckpointStores_IsolatedPerProject(t *testing.T) {
	root := t.TempDir()
	csA, err := NewCheckpointStore(root, "/work/a")
	require.NoError(t, err)
	csB, err := NewCheckpointStore(root, "/work/b")
	require.NoError(t, err)

	_, err = csA.Create("cp", "S1", "", "s")
	require.NoError(t, err)

	cps, err := csB.List()
	require.NoError(t, err)
	assert.Empty(t, cps)
}
