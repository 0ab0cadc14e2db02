package redissnapshot

import (
	"context"
	"encoding/json"

	"github.com/BearBump/CargoBox/internal/cache"
	"github.com/BearBump/CargoBox/internal/models"
	"github.com/pkg/errors"
)

// Раскладка ключей повторяет localStorage клиента: user, tracks, lang, theme
// плюс справочник users.
const (
	keyUser   = "user"
	keyUsers  = "users"
	keyTracks = "tracks"
	keyLang   = "lang"
	keyTheme  = "theme"
)

type Storage struct {
	kv     cache.KV
	prefix string
}

func New(kv cache.KV, prefix string) *Storage {
	if prefix == "" {
		prefix = "cargobox"
	}
	return &Storage{kv: kv, prefix: prefix}
}

func (s *Storage) key(name string) string {
	return s.prefix + ":" + name
}

func (s *Storage) Load(ctx context.Context) (models.Snapshot, error) {
	raw, err := s.kv.GetMany(ctx,
		s.key(keyUser), s.key(keyUsers), s.key(keyTracks), s.key(keyLang), s.key(keyTheme))
	if err != nil {
		return models.Snapshot{}, errors.Wrap(err, "load snapshot")
	}

	var snap models.Snapshot
	// Битые записи считаем отсутствующими.
	if b, ok := raw[s.key(keyUser)]; ok {
		var u *models.User
		if json.Unmarshal(b, &u) == nil {
			snap.User = u
		}
	}
	if b, ok := raw[s.key(keyUsers)]; ok {
		var us []*models.User
		if json.Unmarshal(b, &us) == nil {
			snap.Users = us
		}
	}
	if b, ok := raw[s.key(keyTracks)]; ok {
		var ts []*models.Shipment
		if json.Unmarshal(b, &ts) == nil {
			snap.Shipments = ts
		}
	}
	snap.Language = models.Language(raw[s.key(keyLang)])
	snap.Theme = models.Theme(raw[s.key(keyTheme)])
	snap.Normalize()
	return snap, nil
}

func (s *Storage) Save(ctx context.Context, snap models.Snapshot) error {
	snap.Normalize()
	user, err := json.Marshal(snap.User)
	if err != nil {
		return errors.Wrap(err, "marshal user")
	}
	users := snap.Users
	if users == nil {
		users = []*models.User{}
	}
	usersB, err := json.Marshal(users)
	if err != nil {
		return errors.Wrap(err, "marshal users")
	}
	tracks := snap.Shipments
	if tracks == nil {
		tracks = []*models.Shipment{}
	}
	tracksB, err := json.Marshal(tracks)
	if err != nil {
		return errors.Wrap(err, "marshal tracks")
	}

	if err := s.kv.SetAll(ctx, map[string][]byte{
		s.key(keyUser):   user,
		s.key(keyUsers):  usersB,
		s.key(keyTracks): tracksB,
		s.key(keyLang):   []byte(snap.Language),
		s.key(keyTheme):  []byte(snap.Theme),
	}); err != nil {
		return errors.Wrap(err, "save snapshot")
	}
	return nil
}
