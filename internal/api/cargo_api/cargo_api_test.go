package cargo_api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BearBump/CargoBox/internal/models"
	"github.com/BearBump/CargoBox/internal/notify"
	"github.com/BearBump/CargoBox/internal/services/shipments"
	"github.com/BearBump/CargoBox/internal/storage/memsnapshot"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const adminID = "777"

type envelope struct {
	Status  bool              `json:"status"`
	Message string            `json:"message"`
	Data    json.RawMessage   `json:"data"`
	Errors  map[string]string `json:"errors"`
}

type APISuite struct {
	suite.Suite
	now    time.Time
	sent   []string
	router chi.Router
}

func (s *APISuite) SetupTest() {
	s.now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	s.sent = nil
	port := notify.PortFunc(func(ctx context.Context, recipient, text string) error {
		s.sent = append(s.sent, recipient)
		return nil
	})
	svc := shipments.New(memsnapshot.New(), port,
		shipments.Config{AdminExternalID: adminID, OperatorChatID: "op"},
		shipments.WithClock(func() time.Time { return s.now }),
	)
	s.router = New(svc, zap.NewNop()).Routes()
}

func (s *APISuite) do(method, path string, body any) (int, envelope) {
	var rd *bytes.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = bytes.NewReader([]byte(b))
		default:
			raw, err := json.Marshal(b)
			s.Require().NoError(err)
			rd = bytes.NewReader(raw)
		}
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec.Code, env
}

func (s *APISuite) onboard(id string) models.User {
	code, env := s.do(http.MethodPost, "/v1/onboarding", map[string]string{
		"name": "Ali", "telegramId": id, "phone": "+998901112233",
	})
	s.Require().Equal(http.StatusCreated, code)
	var u models.User
	s.Require().NoError(json.Unmarshal(env.Data, &u))
	return u
}

func (s *APISuite) createShipment(tn string) models.Shipment {
	code, env := s.do(http.MethodPost, "/v1/shipments", map[string]string{"trackNumber": tn})
	s.Require().Equal(http.StatusCreated, code, env.Message)
	var sh models.Shipment
	s.Require().NoError(json.Unmarshal(env.Data, &sh))
	return sh
}

func (s *APISuite) TestHealthz() {
	code, env := s.do(http.MethodGet, "/healthz", nil)
	s.Require().Equal(http.StatusOK, code)
	s.Require().True(env.Status)
}

func (s *APISuite) TestNoUser_401() {
	for _, p := range []string{"/v1/me", "/v1/home", "/v1/profile", "/v1/shipments"} {
		code, env := s.do(http.MethodGet, p, nil)
		s.Require().Equal(http.StatusUnauthorized, code, p)
		s.Require().False(env.Status)
	}
}

func (s *APISuite) TestOnboarding_Validation() {
	code, env := s.do(http.MethodPost, "/v1/onboarding", map[string]string{"name": "Ali"})
	s.Require().Equal(http.StatusBadRequest, code)
	s.Require().Contains(env.Errors, "telegramId")
	s.Require().Contains(env.Errors, "phone")

	code, _ = s.do(http.MethodPost, "/v1/onboarding", "{broken")
	s.Require().Equal(http.StatusBadRequest, code)
}

func (s *APISuite) TestOnboardAndMe() {
	u := s.onboard("12345")
	s.Require().Equal("12345", u.ExternalID)
	s.Require().Equal([]string{"op"}, s.sent)

	code, env := s.do(http.MethodGet, "/v1/me", nil)
	s.Require().Equal(http.StatusOK, code)
	var me models.User
	s.Require().NoError(json.Unmarshal(env.Data, &me))
	s.Require().Equal(u.ID, me.ID)
}

func (s *APISuite) TestCreateShipment_ShortTrackLocalized() {
	s.onboard("12345")
	code, env := s.do(http.MethodPost, "/v1/shipments", map[string]string{"trackNumber": "ab1"})
	s.Require().Equal(http.StatusBadRequest, code)
	s.Require().Equal("Trek raqami noto'g'ri (kamida 5 ta belgi)", env.Message)

	code, env = s.do(http.MethodGet, "/v1/shipments", nil)
	s.Require().Equal(http.StatusOK, code)
	s.Require().JSONEq(`[]`, string(env.Data))
}

func (s *APISuite) TestShipmentFlow() {
	s.onboard("12345")
	sh := s.createShipment("ab123")
	s.Require().Equal("AB123", sh.TrackNumber)

	// до назначения цены оплата невозможна
	code, _ := s.do(http.MethodPost, "/v1/shipments/"+sh.ID+"/payment-claim", nil)
	s.Require().Equal(http.StatusConflict, code)

	// обычный пользователь не админ
	code, _ = s.do(http.MethodPut, "/v1/admin/shipments/"+sh.ID+"/weight-price", map[string]any{"weight": 2.5, "price": 50000})
	s.Require().Equal(http.StatusForbidden, code)

	s.onboard(adminID)
	code, env := s.do(http.MethodPut, "/v1/admin/shipments/"+sh.ID+"/weight-price", map[string]any{"weight": 2.5, "price": 50000})
	s.Require().Equal(http.StatusOK, code, env.Message)
	var out models.Shipment
	s.Require().NoError(json.Unmarshal(env.Data, &out))
	s.Require().Equal(models.PaymentPending, out.PaymentStatus)

	code, _ = s.do(http.MethodPut, "/v1/admin/shipments/missing/weight-price", map[string]any{"weight": 1, "price": 1})
	s.Require().Equal(http.StatusNotFound, code)

	s.onboard("12345")
	code, env = s.do(http.MethodPost, "/v1/shipments/"+sh.ID+"/payment-claim", nil)
	s.Require().Equal(http.StatusOK, code)
	s.Require().NoError(json.Unmarshal(env.Data, &out))
	s.Require().Equal(models.PaymentAwaitingVerification, out.PaymentStatus)

	s.onboard(adminID)
	code, env = s.do(http.MethodGet, "/v1/admin/pending-count", nil)
	s.Require().Equal(http.StatusOK, code)
	s.Require().JSONEq(`{"count":1}`, string(env.Data))

	code, env = s.do(http.MethodGet, "/v1/admin/shipments?q=ab1&awaiting=true", nil)
	s.Require().Equal(http.StatusOK, code)
	var found []shipments.ShipmentView
	s.Require().NoError(json.Unmarshal(env.Data, &found))
	s.Require().Len(found, 1)
	s.Require().Equal("12345", found[0].Owner.ExternalID)

	code, _ = s.do(http.MethodPost, "/v1/admin/shipments/"+sh.ID+"/verify", map[string]any{})
	s.Require().Equal(http.StatusBadRequest, code)

	code, env = s.do(http.MethodPost, "/v1/admin/shipments/"+sh.ID+"/verify", map[string]any{"approve": false})
	s.Require().Equal(http.StatusOK, code)
	s.Require().NoError(json.Unmarshal(env.Data, &out))
	s.Require().Equal(models.PaymentPending, out.PaymentStatus)
	s.Require().Equal("12345", s.sent[len(s.sent)-1])

	code, env = s.do(http.MethodPost, "/v1/admin/shipments/"+sh.ID+"/deliver", nil)
	s.Require().Equal(http.StatusOK, code)
	s.Require().NoError(json.Unmarshal(env.Data, &out))
	s.Require().Equal(models.TrackStatusDelivered, out.Status)
	s.Require().Equal(models.PaymentPaid, out.PaymentStatus)
}

func (s *APISuite) TestAdminSearch_BadAwaiting() {
	s.onboard(adminID)
	code, _ := s.do(http.MethodGet, "/v1/admin/shipments?awaiting=maybe", nil)
	s.Require().Equal(http.StatusBadRequest, code)
}

func (s *APISuite) TestWeightPrice_Validation() {
	s.onboard(adminID)
	code, env := s.do(http.MethodPut, "/v1/admin/shipments/x/weight-price", map[string]any{"weight": -1, "price": 10})
	s.Require().Equal(http.StatusBadRequest, code)
	s.Require().Contains(env.Errors, "weight")

	code, env = s.do(http.MethodPut, "/v1/admin/shipments/x/weight-price", map[string]any{"weight": 1})
	s.Require().Equal(http.StatusBadRequest, code)
	s.Require().Contains(env.Errors, "price")
}

func (s *APISuite) TestSettings() {
	code, env := s.do(http.MethodGet, "/v1/settings", nil)
	s.Require().Equal(http.StatusOK, code)
	s.Require().JSONEq(`{"language":"uz","theme":"light"}`, string(env.Data))

	code, env = s.do(http.MethodPut, "/v1/settings", map[string]string{"language": "ru", "theme": "dark"})
	s.Require().Equal(http.StatusOK, code)
	s.Require().JSONEq(`{"language":"ru","theme":"dark"}`, string(env.Data))

	code, env = s.do(http.MethodPut, "/v1/settings", map[string]string{"language": "de"})
	s.Require().Equal(http.StatusBadRequest, code)
	s.Require().Contains(env.Errors, "language")
}

func (s *APISuite) TestLogout() {
	s.onboard("12345")
	s.createShipment("CN000001")
	code, _ := s.do(http.MethodPut, "/v1/settings", map[string]string{"language": "en"})
	s.Require().Equal(http.StatusOK, code)

	code, env := s.do(http.MethodPost, "/v1/logout", nil)
	s.Require().Equal(http.StatusOK, code)
	s.Require().True(env.Status)

	code, _ = s.do(http.MethodGet, "/v1/me", nil)
	s.Require().Equal(http.StatusUnauthorized, code)
	code, _ = s.do(http.MethodGet, "/v1/shipments", nil)
	s.Require().Equal(http.StatusUnauthorized, code)

	code, env = s.do(http.MethodGet, "/v1/settings", nil)
	s.Require().Equal(http.StatusOK, code)
	s.Require().JSONEq(`{"language":"uz","theme":"light"}`, string(env.Data))
}

func (s *APISuite) TestHomeAndProfile() {
	s.onboard("12345")
	s.createShipment("CN000001")

	s.now = s.now.Add(10 * 24 * time.Hour)
	code, env := s.do(http.MethodGet, "/v1/home", nil)
	s.Require().Equal(http.StatusOK, code)
	var h shipments.Home
	s.Require().NoError(json.Unmarshal(env.Data, &h))
	s.Require().Len(h.Active, 1)
	s.Require().Equal(models.TrackStatusChinaWarehouse, h.Active[0].DisplayStatus)

	code, env = s.do(http.MethodGet, "/v1/profile", nil)
	s.Require().Equal(http.StatusOK, code)
	var p shipments.Profile
	s.Require().NoError(json.Unmarshal(env.Data, &p))
	s.Require().Equal(1, p.ShipmentCount)
	s.Require().Equal("new", string(p.Tier))
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

type failingService struct{ Service }

func (failingService) CurrentUser(ctx context.Context) (*models.User, error) {
	return nil, errors.New("pg down")
}

func (failingService) Home(ctx context.Context) (shipments.Home, error) {
	panic("boom")
}

func TestCargoAPI_InternalErrorsHidden(t *testing.T) {
	r := New(failingService{}, nil).Routes()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/me", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.NotContains(t, rec.Body.String(), "pg down")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/home", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Internal server error")
}
