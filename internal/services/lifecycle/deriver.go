package lifecycle

import (
	"time"

	"github.com/BearBump/CargoBox/internal/models"
)

const day = 24 * time.Hour

type DeriverConfig struct {
	WeightPendingAfterDays  int // default: 4, only while weight is still 0
	ChinaWarehouseAfterDays int // default: 7
	SortingAfterDays        int // default: 14
	ShippedAfterDays        int // default: 19
}

func DefaultDeriverConfig() DeriverConfig {
	return DeriverConfig{
		WeightPendingAfterDays:  4,
		ChinaWarehouseAfterDays: 7,
		SortingAfterDays:        14,
		ShippedAfterDays:        19,
	}
}

// Deriver computes the display status of a shipment from its age.
// The result depends on "now", so it is never persisted.
type Deriver struct {
	cfg DeriverConfig
}

func NewDeriver(cfg DeriverConfig) *Deriver {
	def := DefaultDeriverConfig()
	if cfg.WeightPendingAfterDays <= 0 {
		cfg.WeightPendingAfterDays = def.WeightPendingAfterDays
	}
	if cfg.ChinaWarehouseAfterDays <= 0 {
		cfg.ChinaWarehouseAfterDays = def.ChinaWarehouseAfterDays
	}
	if cfg.SortingAfterDays <= 0 {
		cfg.SortingAfterDays = def.SortingAfterDays
	}
	if cfg.ShippedAfterDays <= 0 {
		cfg.ShippedAfterDays = def.ShippedAfterDays
	}
	// пороги должны идти по возрастанию, иначе порядок стадий ломается
	if cfg.ChinaWarehouseAfterDays < cfg.WeightPendingAfterDays {
		cfg.ChinaWarehouseAfterDays = cfg.WeightPendingAfterDays
	}
	if cfg.SortingAfterDays < cfg.ChinaWarehouseAfterDays {
		cfg.SortingAfterDays = cfg.ChinaWarehouseAfterDays
	}
	if cfg.ShippedAfterDays < cfg.SortingAfterDays {
		cfg.ShippedAfterDays = cfg.SortingAfterDays
	}
	return &Deriver{cfg: cfg}
}

// ElapsedDays returns whole days between createdAt and now, never negative.
func ElapsedDays(createdAt, now time.Time) int {
	d := now.Sub(createdAt)
	if d <= 0 {
		return 0
	}
	return int(d / day)
}

func (d *Deriver) Derive(createdAt time.Time, stored models.TrackStatus, weight float64, now time.Time) models.TrackStatus {
	if stored == models.TrackStatusDelivered {
		return stored
	}
	days := ElapsedDays(createdAt, now)
	switch {
	case days >= d.cfg.ShippedAfterDays:
		return models.TrackStatusShipped
	case days >= d.cfg.SortingAfterDays:
		return models.TrackStatusSorting
	case days >= d.cfg.ChinaWarehouseAfterDays:
		return models.TrackStatusChinaWarehouse
	case days >= d.cfg.WeightPendingAfterDays && weight == 0:
		return models.TrackStatusWeightPending
	default:
		return stored
	}
}

// Progress is the completion percentage shown next to a status.
func Progress(status models.TrackStatus) int {
	switch status {
	case models.TrackStatusDelivered:
		return 100
	case models.TrackStatusCourier:
		return 20
	case models.TrackStatusWeightPending:
		return 40
	case models.TrackStatusChinaWarehouse:
		return 60
	case models.TrackStatusSorting:
		return 80
	default:
		return 95
	}
}

var defaultDeriver = NewDeriver(DefaultDeriverConfig())

// Derive uses the default thresholds.
func Derive(createdAt time.Time, stored models.TrackStatus, weight float64, now time.Time) models.TrackStatus {
	return defaultDeriver.Derive(createdAt, stored, weight, now)
}
