package shipments

import (
	"context"
	"strings"

	"github.com/BearBump/CargoBox/internal/broker/messages"
	"github.com/BearBump/CargoBox/internal/i18n"
	"github.com/BearBump/CargoBox/internal/models"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// AdminSearch returns shipments whose track number contains query (case-insensitive),
// optionally only those waiting for payment verification.
func (s *Service) AdminSearch(ctx context.Context, query string, awaitingOnly bool) ([]ShipmentView, error) {
	snap, err := s.read(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.requireAdmin(&snap); err != nil {
		return nil, err
	}

	q := strings.ToUpper(strings.TrimSpace(query))
	now := s.now()
	out := make([]ShipmentView, 0)
	for _, sh := range snap.Shipments {
		if awaitingOnly && sh.PaymentStatus != models.PaymentAwaitingVerification {
			continue
		}
		if q != "" && !strings.Contains(strings.ToUpper(sh.TrackNumber), q) {
			continue
		}
		v := s.view(sh, snap.Language, now)
		if owner := snap.FindUser(sh.UserID); owner != nil {
			c := *owner
			v.Owner = &c
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *Service) PendingVerificationCount(ctx context.Context) (int, error) {
	snap, err := s.read(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.requireAdmin(&snap); err != nil {
		return 0, err
	}
	n := 0
	for _, sh := range snap.Shipments {
		if sh.PaymentStatus == models.PaymentAwaitingVerification {
			n++
		}
	}
	return n, nil
}

// AssignWeightPrice overwrites weight and price. The first positive price opens payment.
func (s *Service) AssignWeightPrice(ctx context.Context, shipmentID string, weight float64, price int64) (*models.Shipment, error) {
	if !validAmount(weight) || price < 0 {
		return nil, errors.Wrap(ErrInvalidInput, "weight and price must be non-negative")
	}
	var updated models.Shipment
	_, err := s.mutate(ctx, func(snap *models.Snapshot) error {
		if err := s.requireAdmin(snap); err != nil {
			return err
		}
		sh := snap.FindShipment(shipmentID)
		if sh == nil {
			return ErrNotFound
		}
		sh.Weight = weight
		sh.Price = price
		if sh.PaymentStatus == models.PaymentNotAssigned && price > 0 {
			sh.PaymentStatus = models.PaymentPending
		}
		sh.UpdatedAt = s.now().UTC()
		updated = *sh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// VerifyPayment settles a claimed payment: approve -> paid, reject -> pending.
// The owner is told about the verdict in the snapshot language.
func (s *Service) VerifyPayment(ctx context.Context, shipmentID string, approve bool) (*models.Shipment, error) {
	var (
		updated   models.Shipment
		recipient string
		lang      models.Language
	)
	_, err := s.mutate(ctx, func(snap *models.Snapshot) error {
		if err := s.requireAdmin(snap); err != nil {
			return err
		}
		sh := snap.FindShipment(shipmentID)
		if sh == nil {
			return ErrNotFound
		}
		if sh.PaymentStatus != models.PaymentAwaitingVerification {
			return errors.Wrapf(ErrInvalidTransition, "payment is %s", sh.PaymentStatus)
		}
		if approve {
			sh.PaymentStatus = models.PaymentPaid
		} else {
			sh.PaymentStatus = models.PaymentPending
		}
		sh.UpdatedAt = s.now().UTC()
		updated = *sh

		// без записи о владельце пишем на его id
		recipient = sh.UserID
		if owner := snap.FindUser(sh.UserID); owner != nil && owner.ExternalID != "" {
			recipient = owner.ExternalID
		}
		lang = snap.Language
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.send(ctx, messages.KindPaymentVerdict, recipient, i18n.PaymentVerdict(approve, updated.TrackNumber, lang))
	s.log.Info("payment verified",
		zap.String("shipment_id", updated.ID), zap.Bool("approved", approve))
	return &updated, nil
}

// MarkDelivered is terminal and skips every check: status delivered, payment paid.
func (s *Service) MarkDelivered(ctx context.Context, shipmentID string) (*models.Shipment, error) {
	var updated models.Shipment
	_, err := s.mutate(ctx, func(snap *models.Snapshot) error {
		if err := s.requireAdmin(snap); err != nil {
			return err
		}
		sh := snap.FindShipment(shipmentID)
		if sh == nil {
			return ErrNotFound
		}
		sh.Status = models.TrackStatusDelivered
		sh.PaymentStatus = models.PaymentPaid
		sh.UpdatedAt = s.now().UTC()
		updated = *sh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}
