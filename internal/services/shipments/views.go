package shipments

import (
	"context"
	"time"

	"github.com/BearBump/CargoBox/internal/i18n"
	"github.com/BearBump/CargoBox/internal/models"
	"github.com/BearBump/CargoBox/internal/services/lifecycle"
)

// ShipmentView is a stored shipment plus what is derived from it at read time.
type ShipmentView struct {
	models.Shipment
	DisplayStatus models.TrackStatus `json:"displayStatus"`
	StatusLabel   string             `json:"statusLabel"`
	Progress      int                `json:"progress"`
	NeedsPayment  bool               `json:"needsPayment"`
	Owner         *models.User       `json:"owner,omitempty"`
}

func (s *Service) view(sh *models.Shipment, lang models.Language, now time.Time) ShipmentView {
	st := s.deriver.Derive(sh.CreatedAt, sh.Status, sh.Weight, now)
	return ShipmentView{
		Shipment:      *sh,
		DisplayStatus: st,
		StatusLabel:   i18n.StatusLabel(st, lang),
		Progress:      lifecycle.Progress(st),
		NeedsPayment:  sh.PaymentStatus == models.PaymentPending,
	}
}

func (s *Service) ownViews(snap *models.Snapshot, u *models.User) []ShipmentView {
	now := s.now()
	out := make([]ShipmentView, 0)
	for _, sh := range snap.Shipments {
		if sh.UserID == u.ID {
			out = append(out, s.view(sh, snap.Language, now))
		}
	}
	return out
}

// ListMyShipments returns the current user's shipments, newest first.
func (s *Service) ListMyShipments(ctx context.Context) ([]ShipmentView, error) {
	snap, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	u, err := requireUser(&snap)
	if err != nil {
		return nil, err
	}
	return s.ownViews(&snap, u), nil
}

type Home struct {
	User         *models.User   `json:"user"`
	Active       []ShipmentView `json:"active"`
	NeedsPayment []ShipmentView `json:"needsPayment"`
}

// Home lists shipments still on the way and those waiting for the user's transfer.
func (s *Service) Home(ctx context.Context) (Home, error) {
	snap, err := s.read(ctx)
	if err != nil {
		return Home{}, err
	}
	u, err := requireUser(&snap)
	if err != nil {
		return Home{}, err
	}
	h := Home{User: u, Active: []ShipmentView{}, NeedsPayment: []ShipmentView{}}
	for _, v := range s.ownViews(&snap, u) {
		if v.DisplayStatus != models.TrackStatusDelivered {
			h.Active = append(h.Active, v)
		}
		if v.NeedsPayment {
			h.NeedsPayment = append(h.NeedsPayment, v)
		}
	}
	return h, nil
}

// Пороги лояльности в кг.
const (
	friendKg  = 5
	dearKg    = 10
	partnerKg = 20
)

type Profile struct {
	User          *models.User `json:"user"`
	IsAdmin       bool         `json:"isAdmin"`
	ShipmentCount int          `json:"shipmentCount"`
	TotalKg       float64      `json:"totalKg"`
	TotalSpent    int64        `json:"totalSpent"`
	Tier          i18n.Tier    `json:"tier"`
	TierLabel     string       `json:"tierLabel"`
	NextTier      i18n.Tier    `json:"nextTier,omitempty"`
	KgToNextTier  float64      `json:"kgToNextTier"`
}

// TierFor maps the cumulative weight to a loyalty tier and the kg left to the next one.
func TierFor(kg float64) (tier, next i18n.Tier, left float64) {
	switch {
	case kg >= partnerKg:
		return i18n.TierPartner, "", 0
	case kg >= dearKg:
		return i18n.TierDear, i18n.TierPartner, partnerKg - kg
	case kg >= friendKg:
		return i18n.TierFriend, i18n.TierDear, dearKg - kg
	default:
		return i18n.TierNew, i18n.TierFriend, friendKg - kg
	}
}

func (s *Service) Profile(ctx context.Context) (Profile, error) {
	snap, err := s.read(ctx)
	if err != nil {
		return Profile{}, err
	}
	u, err := requireUser(&snap)
	if err != nil {
		return Profile{}, err
	}
	p := Profile{
		User:       u,
		IsAdmin:    s.isAdmin(u),
		TotalKg:    u.TotalKg,
		TotalSpent: u.TotalSpent,
	}
	for _, sh := range snap.Shipments {
		if sh.UserID == u.ID {
			p.ShipmentCount++
		}
	}
	p.Tier, p.NextTier, p.KgToNextTier = TierFor(u.TotalKg)
	p.TierLabel = i18n.TierLabel(p.Tier, snap.Language)
	return p, nil
}
