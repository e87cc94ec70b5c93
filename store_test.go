package subspace_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andreyvit/subspace"
	"github.com/andreyvit/subspace/storetest"
)

func TestMemStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) subspace.Store {
		return subspace.NewMemStore()
	})
}

func TestBoltStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) subspace.Store {
		s, err := subspace.OpenBolt(filepath.Join(t.TempDir(), "test.db"), subspace.BoltOptions{
			IsTesting: true,
			Logger:    storetest.TestLogger(t),
		})
		require.NoError(t, err)
		return s
	})
}
