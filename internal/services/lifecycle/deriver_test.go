package lifecycle

import (
	"testing"
	"time"

	"github.com/BearBump/CargoBox/internal/models"
	"github.com/stretchr/testify/suite"
)

type DeriverSuite struct {
	suite.Suite
	now time.Time
}

func (s *DeriverSuite) SetupTest() {
	s.now = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
}

func (s *DeriverSuite) ago(days int) time.Time {
	return s.now.Add(-time.Duration(days) * day)
}

func (s *DeriverSuite) TestThresholds() {
	cases := []struct {
		days   int
		weight float64
		want   models.TrackStatus
	}{
		{0, 0, models.TrackStatusCourier},
		{3, 0, models.TrackStatusCourier},
		{4, 0, models.TrackStatusWeightPending},
		{6, 0, models.TrackStatusWeightPending},
		{7, 0, models.TrackStatusChinaWarehouse},
		{13, 0, models.TrackStatusChinaWarehouse},
		{14, 0, models.TrackStatusSorting},
		{18, 0, models.TrackStatusSorting},
		{19, 0, models.TrackStatusShipped},
		{400, 0, models.TrackStatusShipped},
	}
	for _, c := range cases {
		got := Derive(s.ago(c.days), models.TrackStatusCourier, c.weight, s.now)
		s.Equal(c.want, got, "days=%d", c.days)
	}
}

func (s *DeriverSuite) TestWeightAssigned_SkipsWeightPending() {
	for days := 0; days < 7; days++ {
		got := Derive(s.ago(days), models.TrackStatusCourier, 1.2, s.now)
		s.Equal(models.TrackStatusCourier, got, "days=%d", days)
	}
}

func (s *DeriverSuite) TestTenDaysOld_WithAndWithoutWeight() {
	s.Equal(models.TrackStatusChinaWarehouse, Derive(s.ago(10), models.TrackStatusCourier, 0, s.now))
	s.Equal(models.TrackStatusChinaWarehouse, Derive(s.ago(10), models.TrackStatusCourier, 2.5, s.now))
}

func (s *DeriverSuite) TestDeliveredIsTerminal() {
	for _, days := range []int{0, 4, 7, 14, 19, 100} {
		s.Equal(models.TrackStatusDelivered, Derive(s.ago(days), models.TrackStatusDelivered, 0, s.now))
	}
}

func (s *DeriverSuite) TestMonotoneInElapsedDays() {
	for _, w := range []float64{0, 3.5} {
		prev := -1
		for days := 0; days <= 30; days++ {
			r := Derive(s.ago(days), models.TrackStatusCourier, w, s.now).Rank()
			s.GreaterOrEqual(r, prev, "weight=%v days=%d", w, days)
			prev = r
		}
	}
}

func (s *DeriverSuite) TestPartialDaysRoundDown_AndFutureClamps() {
	almostFour := s.now.Add(-(4*day - time.Minute))
	s.Equal(models.TrackStatusCourier, Derive(almostFour, models.TrackStatusCourier, 0, s.now))
	s.Equal(0, ElapsedDays(s.now.Add(time.Hour), s.now))
	s.Equal(models.TrackStatusCourier, Derive(s.now.Add(48*time.Hour), models.TrackStatusCourier, 0, s.now))
}

func (s *DeriverSuite) TestIdempotent() {
	created := s.ago(15)
	a := Derive(created, models.TrackStatusCourier, 0, s.now)
	b := Derive(created, models.TrackStatusCourier, 0, s.now)
	s.Equal(a, b)
}

func (s *DeriverSuite) TestNewDeriver_DefaultsAndOrdering() {
	d := NewDeriver(DeriverConfig{})
	s.Equal(DefaultDeriverConfig(), d.cfg)

	d = NewDeriver(DeriverConfig{WeightPendingAfterDays: 2, ChinaWarehouseAfterDays: 1, SortingAfterDays: 3, ShippedAfterDays: 5})
	s.Equal(2, d.cfg.ChinaWarehouseAfterDays)
	s.Equal(models.TrackStatusChinaWarehouse, d.Derive(s.ago(2), models.TrackStatusCourier, 0, s.now))
}

func (s *DeriverSuite) TestProgress() {
	s.Equal(20, Progress(models.TrackStatusCourier))
	s.Equal(40, Progress(models.TrackStatusWeightPending))
	s.Equal(60, Progress(models.TrackStatusChinaWarehouse))
	s.Equal(80, Progress(models.TrackStatusSorting))
	s.Equal(95, Progress(models.TrackStatusShipped))
	s.Equal(100, Progress(models.TrackStatusDelivered))
}

func TestDeriverSuite(t *testing.T) {
	suite.Run(t, new(DeriverSuite))
}
