package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSnapshot_Normalize(t *testing.T) {
	s := Snapshot{
		Language:  "de",
		Theme:     "",
		Users:     []*User{nil, {ID: "u1"}},
		Shipments: []*Shipment{
			{ID: "s1", Status: TrackStatusCourier, PaymentStatus: PaymentNotAssigned},
			nil,
			{ID: "lost", Status: "lost", PaymentStatus: PaymentPending},
			{ID: "refunded", Status: TrackStatusCourier, PaymentStatus: "refunded"},
		},
	}
	s.Normalize()
	require.Equal(t, LanguageUz, s.Language)
	require.Equal(t, ThemeLight, s.Theme)
	require.Len(t, s.Users, 1)
	require.Len(t, s.Shipments, 1)
	require.Equal(t, "s1", s.Shipments[0].ID)

	s = Snapshot{Language: LanguageRu, Theme: ThemeDark}
	s.Normalize()
	require.Equal(t, LanguageRu, s.Language)
	require.Equal(t, ThemeDark, s.Theme)
}

func TestSnapshot_Normalize_LeavesCallerSlicesIntact(t *testing.T) {
	a := &Shipment{ID: "a", Status: TrackStatusCourier, PaymentStatus: PaymentPending}
	b := &Shipment{ID: "b", Status: TrackStatusSorting, PaymentStatus: PaymentPaid}
	u := &User{ID: "u1"}
	orig := Snapshot{
		Users:     []*User{nil, u},
		Shipments: []*Shipment{nil, a, b},
	}

	// по значению, как в Save у хранилищ
	cp := orig
	cp.Normalize()

	require.Equal(t, []*Shipment{a, b}, cp.Shipments)
	require.Equal(t, []*Shipment{nil, a, b}, orig.Shipments)
	require.Equal(t, []*User{nil, u}, orig.Users)
}

func TestSnapshot_CloneIsDeep(t *testing.T) {
	now := time.Now().UTC()
	s := Snapshot{
		User:      &User{ID: "u1", Name: "Ali"},
		Users:     []*User{{ID: "u1", Name: "Ali"}},
		Shipments: []*Shipment{{ID: "s1", TrackNumber: "AB123", CreatedAt: now}},
		Language:  LanguageEn,
		Theme:     ThemeDark,
	}
	c := s.Clone()
	c.User.Name = "Vali"
	c.Users[0].Name = "Vali"
	c.Shipments[0].Price = 100

	require.Equal(t, "Ali", s.User.Name)
	require.Equal(t, "Ali", s.Users[0].Name)
	require.Zero(t, s.Shipments[0].Price)
	require.Equal(t, LanguageEn, c.Language)
}

func TestSnapshot_RecomputeTotals(t *testing.T) {
	s := Snapshot{
		User:  &User{ID: "u1"},
		Users: []*User{{ID: "u1"}, {ID: "u2", TotalKg: 99}},
		Shipments: []*Shipment{
			{UserID: "u1", Weight: 2.5, Price: 50000, PaymentStatus: PaymentPaid},
			{UserID: "u1", Weight: 1.5, Price: 30000, PaymentStatus: PaymentPending},
			{UserID: "u3", Weight: 7, Price: 1, PaymentStatus: PaymentPaid},
		},
	}
	s.RecomputeTotals()
	require.InDelta(t, 4.0, s.User.TotalKg, 1e-9)
	require.Equal(t, int64(50000), s.User.TotalSpent)
	require.InDelta(t, 4.0, s.Users[0].TotalKg, 1e-9)
	require.Zero(t, s.Users[1].TotalKg)
}

func TestSnapshot_Find(t *testing.T) {
	s := Snapshot{
		Users:     []*User{{ID: "u1", ExternalID: "777"}},
		Shipments: []*Shipment{{ID: "s1"}},
	}
	require.NotNil(t, s.FindShipment("s1"))
	require.Nil(t, s.FindShipment("nope"))
	require.NotNil(t, s.FindUser("u1"))
	require.Equal(t, "u1", s.FindUserByExternalID("777").ID)
	require.Nil(t, s.FindUserByExternalID("1"))
}

func TestTrackStatus_Rank(t *testing.T) {
	require.Less(t, TrackStatusCourier.Rank(), TrackStatusWeightPending.Rank())
	require.Less(t, TrackStatusShipped.Rank(), TrackStatusDelivered.Rank())
	require.Equal(t, -1, TrackStatus("lost").Rank())
	require.False(t, TrackStatus("lost").Valid())
	require.True(t, PaymentAwaitingVerification.Valid())
	require.False(t, PaymentStatus("refunded").Valid())
}
