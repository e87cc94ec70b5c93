package levelstore_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andreyvit/subspace"
	"github.com/andreyvit/subspace/levelstore"
	"github.com/andreyvit/subspace/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) subspace.Store {
		s, err := levelstore.OpenMem()
		require.NoError(t, err)
		return s
	})
}

func TestConformance_file(t *testing.T) {
	storetest.Run(t, func(t *testing.T) subspace.Store {
		s, err := levelstore.Open(filepath.Join(t.TempDir(), "db"), false)
		require.NoError(t, err)
		return s
	})
}
