package shipments

import (
	"context"
	"math"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/BearBump/CargoBox/internal/broker/messages"
	"github.com/BearBump/CargoBox/internal/i18n"
	"github.com/BearBump/CargoBox/internal/models"
	"github.com/BearBump/CargoBox/internal/notify"
	"github.com/BearBump/CargoBox/internal/services/lifecycle"
	"github.com/BearBump/CargoBox/internal/storage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Config struct {
	// AdminExternalID is the only external id with admin rights.
	AdminExternalID string
	// OperatorChatID receives registration, new track and payment claim alerts.
	OperatorChatID string
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func WithDeriver(d *lifecycle.Deriver) Option {
	return func(s *Service) { s.deriver = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// Service owns every read and write of the snapshot.
// Each mutation is one Load, one in-memory change and one Save.
type Service struct {
	mu sync.Mutex

	store    storage.Store
	notifier notify.Port
	cfg      Config

	deriver *lifecycle.Deriver
	now     func() time.Time
	newID   func() string
	log     *zap.Logger
}

func New(store storage.Store, notifier notify.Port, cfg Config, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: notifier,
		cfg:      cfg,
		deriver:  lifecycle.NewDeriver(lifecycle.DefaultDeriverConfig()),
		now:      time.Now,
		newID:    uuid.NewString,
		log:      zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Service) load(ctx context.Context) (models.Snapshot, error) {
	snap, err := s.store.Load(ctx)
	if err != nil {
		return snap, errors.Wrap(err, "load snapshot")
	}
	snap.Normalize()
	snap.RecomputeTotals()
	return snap, nil
}

func (s *Service) read(ctx context.Context) (models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// mutate runs fn on a freshly loaded snapshot and saves the result once.
// Nothing is saved when fn fails.
func (s *Service) mutate(ctx context.Context, fn func(snap *models.Snapshot) error) (models.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.load(ctx)
	if err != nil {
		return snap, err
	}
	if err := fn(&snap); err != nil {
		return snap, err
	}
	snap.RecomputeTotals()
	if err := s.store.Save(ctx, snap); err != nil {
		return snap, errors.Wrap(err, "save snapshot")
	}
	return snap, nil
}

// send is fire-and-forget: the result never reaches the caller.
func (s *Service) send(ctx context.Context, kind, recipient, text string) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(notify.WithKind(ctx, kind), recipient, text); err != nil {
		s.log.Warn("notification failed", zap.String("kind", kind), zap.Error(err))
	}
}

func (s *Service) isAdmin(u *models.User) bool {
	return u != nil && s.cfg.AdminExternalID != "" && u.ExternalID == s.cfg.AdminExternalID
}

func requireUser(snap *models.Snapshot) (*models.User, error) {
	if snap.User == nil {
		return nil, ErrNoUser
	}
	return snap.User, nil
}

func (s *Service) requireAdmin(snap *models.Snapshot) error {
	u, err := requireUser(snap)
	if err != nil {
		return err
	}
	if !s.isAdmin(u) {
		return ErrForbidden
	}
	return nil
}

type OnboardInput struct {
	Name       string
	ExternalID string
	Phone      string
}

// Onboard makes the user with this external id current, creating it on first login.
func (s *Service) Onboard(ctx context.Context, in OnboardInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.ExternalID = strings.TrimSpace(in.ExternalID)
	in.Phone = strings.TrimSpace(in.Phone)
	if in.Name == "" || in.ExternalID == "" || in.Phone == "" {
		return nil, errors.Wrap(ErrInvalidInput, "name, externalId and phone are required")
	}

	role := models.RoleUser
	if in.ExternalID == s.cfg.AdminExternalID {
		role = models.RoleAdmin
	}

	snap, err := s.mutate(ctx, func(snap *models.Snapshot) error {
		u := snap.FindUserByExternalID(in.ExternalID)
		if u == nil {
			u = &models.User{
				ID:         s.newID(),
				ExternalID: in.ExternalID,
				CreatedAt:  s.now().UTC(),
			}
			snap.Users = append(snap.Users, u)
		}
		u.Name = in.Name
		u.Phone = in.Phone
		u.Role = role

		c := *u
		snap.User = &c
		return nil
	})
	if err != nil {
		return nil, err
	}
	// копия после пересчёта агрегатов
	current := *snap.User

	s.send(ctx, messages.KindRegistration, s.cfg.OperatorChatID, i18n.RegistrationAlert(&current))
	s.log.Info("user onboarded", zap.String("user_id", current.ID), zap.String("role", string(current.Role)))
	return &current, nil
}

func (s *Service) CurrentUser(ctx context.Context) (*models.User, error) {
	snap, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	return requireUser(&snap)
}

// NormalizeTrackNumber trims and uppercases a carrier tracking number.
func NormalizeTrackNumber(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// CreateShipment registers a new shipment at the head of the collection.
// A too short track number changes nothing and returns a LocalizedError.
func (s *Service) CreateShipment(ctx context.Context, trackNumber string) (*models.Shipment, error) {
	tn := NormalizeTrackNumber(trackNumber)

	var (
		created models.Shipment
		owner   models.User
	)
	_, err := s.mutate(ctx, func(snap *models.Snapshot) error {
		u, err := requireUser(snap)
		if err != nil {
			return err
		}
		if utf8.RuneCountInString(tn) < models.MinTrackNumberLen {
			return &LocalizedError{Err: ErrInvalidTrackNumber, Message: i18n.InvalidTrack(snap.Language)}
		}
		now := s.now().UTC()
		sh := &models.Shipment{
			ID:            s.newID(),
			UserID:        u.ID,
			TrackNumber:   tn,
			Status:        models.TrackStatusCourier,
			PaymentStatus: models.PaymentNotAssigned,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		snap.Shipments = append([]*models.Shipment{sh}, snap.Shipments...)
		created = *sh
		owner = *u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.send(ctx, messages.KindNewShipment, s.cfg.OperatorChatID, i18n.NewTrackAlert(&owner, &created))
	return &created, nil
}

// ConfirmPayment is the owner's claim that the bank transfer was made.
func (s *Service) ConfirmPayment(ctx context.Context, shipmentID string) (*models.Shipment, error) {
	var (
		updated models.Shipment
		owner   models.User
	)
	_, err := s.mutate(ctx, func(snap *models.Snapshot) error {
		u, err := requireUser(snap)
		if err != nil {
			return err
		}
		sh := snap.FindShipment(shipmentID)
		if sh == nil {
			return ErrNotFound
		}
		if sh.UserID != u.ID {
			return ErrForbidden
		}
		if sh.PaymentStatus != models.PaymentPending {
			return errors.Wrapf(ErrInvalidTransition, "payment is %s", sh.PaymentStatus)
		}
		sh.PaymentStatus = models.PaymentAwaitingVerification
		sh.UpdatedAt = s.now().UTC()
		updated = *sh
		owner = *u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.send(ctx, messages.KindPaymentClaim, s.cfg.OperatorChatID, i18n.PaymentClaimAlert(&owner, &updated))
	return &updated, nil
}

type Settings struct {
	Language models.Language `json:"language"`
	Theme    models.Theme    `json:"theme"`
}

func (s *Service) Settings(ctx context.Context) (Settings, error) {
	snap, err := s.read(ctx)
	if err != nil {
		return Settings{}, err
	}
	return Settings{Language: snap.Language, Theme: snap.Theme}, nil
}

// UpdateSettings changes the non-empty fields only.
func (s *Service) UpdateSettings(ctx context.Context, lang models.Language, theme models.Theme) (Settings, error) {
	if lang != "" && !lang.Valid() {
		return Settings{}, errors.Wrapf(ErrInvalidInput, "unknown language %q", lang)
	}
	if theme != "" && !theme.Valid() {
		return Settings{}, errors.Wrapf(ErrInvalidInput, "unknown theme %q", theme)
	}
	snap, err := s.mutate(ctx, func(snap *models.Snapshot) error {
		if lang != "" {
			snap.Language = lang
		}
		if theme != "" {
			snap.Theme = theme
		}
		return nil
	})
	if err != nil {
		return Settings{}, err
	}
	return Settings{Language: snap.Language, Theme: snap.Theme}, nil
}

// Logout забывает всё локальное состояние: пользователя, каталог, отправления
// и настройки. Следующий вход начинается с онбординга.
func (s *Service) Logout(ctx context.Context) error {
	_, err := s.mutate(ctx, func(snap *models.Snapshot) error {
		*snap = models.Snapshot{}
		snap.Normalize()
		return nil
	})
	if err != nil {
		return err
	}
	s.log.Info("session cleared")
	return nil
}

func validAmount(v float64) bool {
	return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
}
