package models

import "time"

// Стадии доставки. Порядок важен: статус только растёт.
type TrackStatus string

const (
	TrackStatusCourier        TrackStatus = "courier"
	TrackStatusWeightPending  TrackStatus = "weight_pending"
	TrackStatusChinaWarehouse TrackStatus = "china_warehouse"
	TrackStatusSorting        TrackStatus = "sorting"
	TrackStatusShipped        TrackStatus = "shipped"
	TrackStatusDelivered      TrackStatus = "delivered"
)

var trackStatusRank = map[TrackStatus]int{
	TrackStatusCourier:        0,
	TrackStatusWeightPending:  1,
	TrackStatusChinaWarehouse: 2,
	TrackStatusSorting:        3,
	TrackStatusShipped:        4,
	TrackStatusDelivered:      5,
}

// Rank returns the position of s in the delivery pipeline, or -1 for unknown values.
func (s TrackStatus) Rank() int {
	r, ok := trackStatusRank[s]
	if !ok {
		return -1
	}
	return r
}

func (s TrackStatus) Valid() bool { return s.Rank() >= 0 }

type PaymentStatus string

const (
	PaymentNotAssigned          PaymentStatus = "not_assigned"
	PaymentPending              PaymentStatus = "pending"
	PaymentAwaitingVerification PaymentStatus = "awaiting_verification"
	PaymentPaid                 PaymentStatus = "paid"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentNotAssigned, PaymentPending, PaymentAwaitingVerification, PaymentPaid:
		return true
	}
	return false
}

// MinTrackNumberLen is the shortest accepted carrier tracking number (after trim).
const MinTrackNumberLen = 5

type Shipment struct {
	ID            string        `json:"id"`
	UserID        string        `json:"userId"`
	TrackNumber   string        `json:"trackNumber"`
	Weight        float64       `json:"weight"` // kg
	Price         int64         `json:"price"`  // UZS
	Status        TrackStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"paymentStatus"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}
