package services

import (
	"context"

	"github.com/dmitrijs2005/dealroom/internal/client/objectstore"
	"github.com/dmitrijs2005/dealroom/internal/logging"
)

// Verifier checks that a metadata row's object is really in the object
// store. It fails closed: a listing error means "does not exist".
type Verifier struct {
	store objectstore.Store
	log   logging.Logger
}

func NewVerifier(store objectstore.Store, log logging.Logger) *Verifier {
	return &Verifier{store: store, log: log.With("component", "verifier")}
}

// Exists lists the key's folder and looks for an exact name match.
func (v *Verifier) Exists(ctx context.Context, key string) bool {
	folder, name := objectstore.SplitKey(key)
	if name == "" {
		return false
	}

	keys, err := v.store.List(ctx, folder)
	if err != nil {
		v.log.Warn(ctx, "existence check failed", "key", key, "error", err)
		return false
	}

	for _, k := range keys {
		if _, n := objectstore.SplitKey(k); n == name {
			return true
		}
	}
	return false
}
