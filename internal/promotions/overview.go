package promotions

import (
	"storefront/internal/catalog/types"
	"strings"
	"time"
)

// Overview is the promotions page: one featured promotion plus every
// promotion grouped by status.
type Overview struct {
	Featured *types.Promotion  `json:"featured"`
	Current  []types.Promotion `json:"current"`
	Upcoming []types.Promotion `json:"upcoming"`
	Expired  []types.Promotion `json:"expired"`
}

// Group sorts promos into an Overview. Promotions without usable dates are
// left out of every group but can still be featured.
func Group(promos []types.Promotion, now time.Time) Overview {
	o := Overview{
		Current:  []types.Promotion{},
		Upcoming: []types.Promotion{},
		Expired:  []types.Promotion{},
	}
	for _, p := range promos {
		switch Classify(p, now) {
		case StatusCurrent:
			o.Current = append(o.Current, p)
		case StatusUpcoming:
			o.Upcoming = append(o.Upcoming, p)
		case StatusExpired:
			o.Expired = append(o.Expired, p)
		}
	}
	o.Featured = featured(promos, o.Current)
	return o
}

func featured(all, current []types.Promotion) *types.Promotion {
	for i := range all {
		if all[i].Featured {
			p := all[i]
			return &p
		}
	}
	if len(current) > 0 {
		p := current[0]
		return &p
	}
	if len(all) > 0 {
		p := all[0]
		return &p
	}
	return nil
}

// NormalizeBanner cleans a banner reference for display. Empty banners get
// fallback, spaces are escaped and bare relative paths are rooted.
func NormalizeBanner(banner, fallback string) string {
	banner = strings.TrimSpace(banner)
	if banner == "" {
		return fallback
	}
	banner = strings.ReplaceAll(banner, " ", "%20")
	if !strings.HasPrefix(banner, "http") && !strings.HasPrefix(banner, "/") {
		banner = "/" + banner
	}
	return banner
}
