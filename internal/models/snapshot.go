package models

type Language string

const (
	LanguageUz Language = "uz"
	LanguageRu Language = "ru"
	LanguageEn Language = "en"

	DefaultLanguage = LanguageUz
)

func (l Language) Valid() bool {
	return l == LanguageUz || l == LanguageRu || l == LanguageEn
}

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"

	DefaultTheme = ThemeLight
)

func (t Theme) Valid() bool { return t == ThemeLight || t == ThemeDark }

// Snapshot is the whole persisted state. Stores read and write it as one unit.
type Snapshot struct {
	User      *User       // текущий пользователь, nil до онбординга
	Users     []*User     // все, кто входил через этот снапшот
	Shipments []*Shipment // новые первыми
	Language  Language
	Theme     Theme
}

// Normalize replaces unknown preference values with defaults and drops nil
// users and shipments with an unknown status. The filtered slices are new,
// the caller's backing arrays are left untouched.
func (s *Snapshot) Normalize() {
	if !s.Language.Valid() {
		s.Language = DefaultLanguage
	}
	if !s.Theme.Valid() {
		s.Theme = DefaultTheme
	}
	if s.Users != nil {
		users := make([]*User, 0, len(s.Users))
		for _, u := range s.Users {
			if u != nil {
				users = append(users, u)
			}
		}
		s.Users = users
	}
	if s.Shipments != nil {
		shipments := make([]*Shipment, 0, len(s.Shipments))
		for _, sh := range s.Shipments {
			if sh != nil && sh.Status.Valid() && sh.PaymentStatus.Valid() {
				shipments = append(shipments, sh)
			}
		}
		s.Shipments = shipments
	}
}

// Clone returns a deep copy.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{Language: s.Language, Theme: s.Theme}
	if s.User != nil {
		u := *s.User
		out.User = &u
	}
	if s.Users != nil {
		out.Users = make([]*User, 0, len(s.Users))
		for _, u := range s.Users {
			if u == nil {
				continue
			}
			c := *u
			out.Users = append(out.Users, &c)
		}
	}
	if s.Shipments != nil {
		out.Shipments = make([]*Shipment, 0, len(s.Shipments))
		for _, sh := range s.Shipments {
			if sh == nil {
				continue
			}
			c := *sh
			out.Shipments = append(out.Shipments, &c)
		}
	}
	return out
}

func (s *Snapshot) FindShipment(id string) *Shipment {
	for _, sh := range s.Shipments {
		if sh.ID == id {
			return sh
		}
	}
	return nil
}

func (s *Snapshot) FindUser(id string) *User {
	for _, u := range s.Users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *Snapshot) FindUserByExternalID(externalID string) *User {
	for _, u := range s.Users {
		if u.ExternalID == externalID {
			return u
		}
	}
	return nil
}

// RecomputeTotals refreshes TotalKg and TotalSpent of every known user from the shipments.
// TotalSpent counts paid shipments only.
func (s *Snapshot) RecomputeTotals() {
	kg := make(map[string]float64)
	spent := make(map[string]int64)
	for _, sh := range s.Shipments {
		kg[sh.UserID] += sh.Weight
		if sh.PaymentStatus == PaymentPaid {
			spent[sh.UserID] += sh.Price
		}
	}
	for _, u := range s.Users {
		u.TotalKg = kg[u.ID]
		u.TotalSpent = spent[u.ID]
	}
	if s.User != nil {
		s.User.TotalKg = kg[s.User.ID]
		s.User.TotalSpent = spent[s.User.ID]
	}
}
