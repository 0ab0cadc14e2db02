// Package i18n holds the few user-visible strings the backend produces:
// status labels, validation messages, loyalty tiers and Telegram texts.
package i18n

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/BearBump/CargoBox/internal/models"
)

var statusLabels = map[models.TrackStatus]map[models.Language]string{
	models.TrackStatusCourier:        {models.LanguageUz: "Kuryer qabul qildi", models.LanguageRu: "Принято курьером", models.LanguageEn: "Courier picked up"},
	models.TrackStatusWeightPending:  {models.LanguageUz: "Omborga yetib keldi", models.LanguageRu: "Прибыло на склад", models.LanguageEn: "Arrived at warehouse"},
	models.TrackStatusChinaWarehouse: {models.LanguageUz: "Xitoydan yo'lga chiqdi", models.LanguageRu: "Выехало из Китая", models.LanguageEn: "Departed from China"},
	models.TrackStatusSorting:        {models.LanguageUz: "Saralanmoqda", models.LanguageRu: "Сортировка", models.LanguageEn: "Sorting"},
	models.TrackStatusShipped:        {models.LanguageUz: "Toshkentga keldi", models.LanguageRu: "Прибыло в Ташкент", models.LanguageEn: "Arrived in Tashkent"},
	models.TrackStatusDelivered:      {models.LanguageUz: "Topshirildi", models.LanguageRu: "Доставлено", models.LanguageEn: "Delivered"},
}

func lang(l models.Language) models.Language {
	if !l.Valid() {
		return models.DefaultLanguage
	}
	return l
}

// StatusLabel returns the localized label, or the raw status for unknown values.
func StatusLabel(s models.TrackStatus, l models.Language) string {
	byLang, ok := statusLabels[s]
	if !ok {
		return string(s)
	}
	return byLang[lang(l)]
}

var invalidTrack = map[models.Language]string{
	models.LanguageUz: "Trek raqami noto'g'ri (kamida 5 ta belgi)",
	models.LanguageRu: "Неверный трек-номер (минимум 5 символов)",
	models.LanguageEn: "Invalid tracking number (at least 5 characters)",
}

func InvalidTrack(l models.Language) string { return invalidTrack[lang(l)] }

type Tier string

const (
	TierNew     Tier = "new"
	TierFriend  Tier = "friend"
	TierDear    Tier = "dear"
	TierPartner Tier = "partner"
)

var tierLabels = map[Tier]map[models.Language]string{
	TierNew:     {models.LanguageUz: "Yangi", models.LanguageRu: "Новый", models.LanguageEn: "New"},
	TierFriend:  {models.LanguageUz: "Do'st", models.LanguageRu: "Друг", models.LanguageEn: "Friend"},
	TierDear:    {models.LanguageUz: "Qadrdon", models.LanguageRu: "Дорогой клиент", models.LanguageEn: "Valued client"},
	TierPartner: {models.LanguageUz: "Hamkor", models.LanguageRu: "Партнёр", models.LanguageEn: "Partner"},
}

func TierLabel(t Tier, l models.Language) string {
	byLang, ok := tierLabels[t]
	if !ok {
		return string(t)
	}
	return byLang[lang(l)]
}

// FormatSum prints an amount with space-separated thousands: 1250000 -> "1 250 000".
func FormatSum(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

// Тексты для операторского чата всегда на узбекском.

func RegistrationAlert(u *models.User) string {
	return fmt.Sprintf("🚀 YANGI KIRISH:\n👤 Ism: %s\n🆔 ID: %s\n📞 Tel: %s", u.Name, u.ExternalID, u.Phone)
}

func NewTrackAlert(u *models.User, sh *models.Shipment) string {
	return fmt.Sprintf("📦 YANGI TREK:\n👤 Mijoz: %s\n🆔 ID: %s\n🔢 Trek: %s\n📞 Tel: %s",
		u.Name, u.ExternalID, sh.TrackNumber, u.Phone)
}

func PaymentClaimAlert(u *models.User, sh *models.Shipment) string {
	return fmt.Sprintf("💳 TO'LOV TASDIQLASH:\n👤 Mijoz: %s\n🆔 ID: %s\n🔢 Trek: %s\n💰 Summa: %s UZS",
		u.Name, u.ExternalID, sh.TrackNumber, FormatSum(sh.Price))
}

var (
	approvedTmpl = map[models.Language]string{
		models.LanguageUz: "✅ To'lovingiz tasdiqlandi!\nTrek: %s\nYukingiz keyingi bosqichga o'tdi.",
		models.LanguageRu: "✅ Ваш платёж подтверждён!\nТрек: %s\nГруз переходит на следующий этап.",
		models.LanguageEn: "✅ Your payment has been confirmed!\nTrack: %s\nYour cargo moves to the next stage.",
	}
	rejectedTmpl = map[models.Language]string{
		models.LanguageUz: "❌ To'lovingiz bekor qilindi.\nTrek: %s\nIltimos to'lovni qaytadan tekshirib kiring.",
		models.LanguageRu: "❌ Ваш платёж отклонён.\nТрек: %s\nПожалуйста, проверьте оплату и отправьте заново.",
		models.LanguageEn: "❌ Your payment was rejected.\nTrack: %s\nPlease check the transfer and submit it again.",
	}
)

func PaymentVerdict(approved bool, trackNumber string, l models.Language) string {
	if approved {
		return fmt.Sprintf(approvedTmpl[lang(l)], trackNumber)
	}
	return fmt.Sprintf(rejectedTmpl[lang(l)], trackNumber)
}
