package badgerstore_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/andreyvit/subspace"
	"github.com/andreyvit/subspace/badgerstore"
	"github.com/andreyvit/subspace/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) subspace.Store {
		s, err := badgerstore.OpenMem()
		require.NoError(t, err)
		return s
	})
}
