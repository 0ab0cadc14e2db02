// Package storage defines the snapshot store contract.
//
// Every mutation loads the whole snapshot, changes it and saves it back with
// exactly one Save call. Stores never merge: the last Save wins.
// A malformed or missing entry loads as its default value instead of an error;
// only transport failures are returned.
package storage

import (
	"context"

	"github.com/BearBump/CargoBox/internal/models"
)

type Store interface {
	Load(ctx context.Context) (models.Snapshot, error)
	Save(ctx context.Context, s models.Snapshot) error
}
