package messages

import "time"

// Виды уведомлений; используются в логах воркера.
const (
	KindRegistration   = "registration"
	KindNewShipment    = "new_shipment"
	KindPaymentClaim   = "payment_claim"
	KindPaymentVerdict = "payment_verdict"
	KindUnclassified   = "unclassified"
)

type NotificationRequested struct {
	Recipient string    `json:"recipient"`
	Text      string    `json:"text"`
	Kind      string    `json:"kind,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
