package entitlements

import (
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/CashFox/internal/pkg/env"
)

const (
	defaultPromoStart     = "2025-10-14T00:00:00Z"
	defaultPromoDays      = 10
	defaultPromoProductID = "diwali_offer_2025"
)

// PromoWindow grants every signed-in user premium access between Start and End.
type PromoWindow struct {
	Start        time.Time
	DurationDays int
	ProductID    string
}

// End is Start plus DurationDays whole days.
func (p PromoWindow) End() time.Time {
	return p.Start.AddDate(0, 0, p.DurationDays)
}

// Contains reports whether now lies inside the window, both bounds included.
func (p PromoWindow) Contains(now time.Time) bool {
	if p.DurationDays <= 0 {
		return false
	}
	return !now.Before(p.Start) && !now.After(p.End())
}

func DefaultPromoWindow() PromoWindow {
	start, _ := time.Parse(time.RFC3339, defaultPromoStart)
	return PromoWindow{Start: start, DurationDays: defaultPromoDays, ProductID: defaultPromoProductID}
}

// PromoWindowFromEnv reads PROMO_START, PROMO_DURATION_DAYS and PROMO_PRODUCT_ID.
func PromoWindowFromEnv() PromoWindow {
	w := DefaultPromoWindow()
	if raw := env.GetEnv("PROMO_START", ""); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			log.Warnf("[Entitlements] Invalid PROMO_START %q, using default: %v", raw, err)
		} else {
			w.Start = start
		}
	}
	w.DurationDays = env.GetInt("PROMO_DURATION_DAYS", w.DurationDays)
	w.ProductID = env.GetEnv("PROMO_PRODUCT_ID", w.ProductID)
	return w
}
