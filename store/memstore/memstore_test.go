package memstore_test

import (
	"testing"

	"github.com/sky-flux/vocab/store"
	"github.com/sky-flux/vocab/store/memstore"
	"github.com/sky-flux/vocab/store/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		return memstore.New()
	})
}
