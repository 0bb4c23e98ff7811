package orchestrator

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"
)

type DurationUnit string

const (
	DurationHours DurationUnit = "Hours"
	DurationDays  DurationUnit = "Days"
	DurationWeeks DurationUnit = "Weeks"
)

const (
	MinBounty = 5.0
	MaxBounty = 10000.0

	MinRadiusKM     = 0.5
	MaxRadiusKM     = 50.0
	DefaultRadiusKM = 5.0
)

var tagPattern = regexp.MustCompile(`^(@[A-Za-z0-9_]+)?$`)

// DareForm is the validated input of a dare creation run.
type DareForm struct {
	StreamerTag string  `json:"streamer_tag"` // "@handle", or empty / "@everyone" for an open bounty
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Amount      float64 `json:"amount"`

	DurationValue int          `json:"duration_value"`
	DurationUnit  DurationUnit `json:"duration_unit"`

	// Nearby dare fields, only honored when Nearby is set
	Nearby        bool     `json:"nearby"`
	Lat           *float64 `json:"lat,omitempty"`
	Lng           *float64 `json:"lng,omitempty"`
	LocationLabel string   `json:"location_label,omitempty"`
	RadiusKM      float64  `json:"radius_km,omitempty"`

	FunderWallet string `json:"funder_wallet"`
	ReferrerCode string `json:"referrer_code,omitempty"`
}

// ValidationError reports per-field problems found before any side effect.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return "invalid dare form — " + strings.Join(parts, "; ")
}

// Validate checks the form and normalizes defaults (nearby radius).
// Returns nil or a *ValidationError carrying every failing field.
func (f *DareForm) Validate() error {
	fields := map[string]string{}

	if !tagPattern.MatchString(f.StreamerTag) {
		fields["streamer_tag"] = "must be @ followed by letters, digits or underscores"
	}

	titleLen := utf8.RuneCountInString(strings.TrimSpace(f.Title))
	if titleLen < 3 || titleLen > 100 {
		fields["title"] = "must be 3-100 characters"
	}

	if f.Amount < MinBounty || f.Amount > MaxBounty {
		fields["amount"] = fmt.Sprintf("must be between %.0f and %.0f %s", MinBounty, MaxBounty, "USDC")
	} else if math.Abs(f.Amount*100-math.Round(f.Amount*100)) > 1e-6 {
		// sub-cent amounts cannot be represented exactly on chain
		fields["amount"] = "must have at most two decimal places"
	}

	switch f.DurationUnit {
	case DurationHours, DurationDays, DurationWeeks:
	default:
		fields["duration_unit"] = "must be Hours, Days or Weeks"
	}
	if f.DurationValue < 1 {
		fields["duration_value"] = "must be at least 1"
	}

	if f.Nearby {
		if f.Lat == nil || f.Lng == nil {
			fields["location"] = "coordinates are required for a nearby dare"
		}
		if utf8.RuneCountInString(f.LocationLabel) > 100 {
			fields["location_label"] = "must be at most 100 characters"
		}
		if f.RadiusKM == 0 {
			f.RadiusKM = DefaultRadiusKM
		}
		if f.RadiusKM < MinRadiusKM || f.RadiusKM > MaxRadiusKM {
			fields["radius_km"] = fmt.Sprintf("must be between %.1f and %.0f km", MinRadiusKM, MaxRadiusKM)
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Duration converts the value+unit pair into the dare's lifetime.
func (f *DareForm) Duration() time.Duration {
	switch f.DurationUnit {
	case DurationWeeks:
		return time.Duration(f.DurationValue) * 7 * 24 * time.Hour
	case DurationDays:
		return time.Duration(f.DurationValue) * 24 * time.Hour
	default:
		return time.Duration(f.DurationValue) * time.Hour
	}
}

// IsOpenBounty reports whether the dare targets nobody in particular.
func (f *DareForm) IsOpenBounty() bool {
	tag := strings.TrimSpace(f.StreamerTag)
	return tag == "" || strings.EqualFold(tag, "@everyone")
}
