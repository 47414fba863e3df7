// Package privacy enforces data minimization, display-safe masking,
// anonymization and the compliance operations (consent, export, deletion,
// retention) on top of the vault.
package privacy

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/yshyp/lifepulse-vault/internal/model"
)

// SanitizeUserData keeps only the allow-listed profile fields from a raw
// payload (API response, registration form) and drops everything else.
// Pure function, no side effects.
func SanitizeUserData(raw map[string]any) model.UserProfile {
	p := model.UserProfile{
		Name:       asString(raw["name"]),
		Phone:      asString(raw["phone"]),
		Email:      asString(raw["email"]),
		BloodGroup: asString(raw["bloodGroup"]),
		Role:       asString(raw["role"]),
	}
	if loc, ok := raw["location"].(map[string]any); ok {
		p.Location = &model.LocationRecord{
			Latitude:  asFloat(loc["latitude"]),
			Longitude: asFloat(loc["longitude"]),
			Address:   asString(loc["address"]),
			Timestamp: int64(asFloat(loc["timestamp"])),
		}
	}
	if avail, ok := raw["availability"].(bool); ok {
		p.Availability = &avail
	}
	return p
}

// MedicalRecordFromRaw extracts the medical subset of a raw payload.
// Used when a login/profile payload carries medical fields that must land
// under the dedicated medical key.
func MedicalRecordFromRaw(raw map[string]any) model.MedicalRecord {
	return model.MedicalRecord{
		BloodGroup:        asString(raw["bloodGroup"]),
		DonationHistory:   asStringSlice(raw["donationHistory"]),
		MedicalConditions: asStringSlice(raw["medicalConditions"]),
		LastDonationDate:  asString(raw["lastDonationDate"]),
		EligibilityStatus: asString(raw["eligibilityStatus"]),
	}
}

// HasMedicalFields reports whether a raw payload carries data that belongs
// in the medical record.
func HasMedicalFields(raw map[string]any) bool {
	if asString(raw["bloodGroup"]) != "" {
		return true
	}
	_, ok := raw["medicalHistory"]
	return ok
}

// MaskSensitiveData returns a copy with phone, email and name values
// redacted to display-safe forms. Applied to every payload before logging.
func MaskSensitiveData(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	masked := make(map[string]any, len(data))
	for k, v := range data {
		masked[k] = v
	}
	if s := asString(masked["phone"]); s != "" {
		masked["phone"] = MaskPhone(s)
	}
	if s := asString(masked["email"]); s != "" {
		masked["email"] = MaskEmail(s)
	}
	if s := asString(masked["name"]); s != "" {
		masked["name"] = MaskName(s)
	}
	return masked
}

// MaskPhone keeps the first and last three characters, masking the middle.
// Short values are fully masked.
func MaskPhone(phone string) string {
	if len(phone) < 7 {
		return strings.Repeat("*", len(phone))
	}
	return phone[:3] + strings.Repeat("*", len(phone)-6) + phone[len(phone)-3:]
}

// MaskEmail keeps the first two characters of the local part and the whole
// domain. A local part of two characters or fewer is fully masked.
func MaskEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" || domain == "" {
		return email
	}
	if len(local) <= 2 {
		return strings.Repeat("*", len(local)) + "@" + domain
	}
	return local[:2] + strings.Repeat("*", len(local)-2) + "@" + domain
}

// MaskName keeps the first name token and replaces the rest with ***.
func MaskName(name string) string {
	fields := strings.Fields(name)
	if len(fields) <= 1 {
		return name
	}
	return fields[0] + " ***"
}

// AnonymizeData projects a raw user payload into an analytics record with
// no way back to the individual: coordinates are bucketed, date of birth is
// banded. Pure function.
func AnonymizeData(raw map[string]any, now time.Time) model.AnalyticsRecord {
	rec := model.AnalyticsRecord{
		BloodGroup: asString(raw["bloodGroup"]),
		Role:       asString(raw["role"]),
		Region:     "unknown",
		AgeGroup:   AgeGroup(asString(raw["dateOfBirth"]), now),
		Timestamp:  now.UnixMilli(),
	}
	if loc, ok := raw["location"].(map[string]any); ok {
		rec.Region = Region(asFloat(loc["latitude"]), asFloat(loc["longitude"]))
	}
	return rec
}

// Region generalizes exact coordinates to one-decimal-degree buckets,
// roughly 11 km of resolution. Zero coordinates count as missing.
func Region(lat, lng float64) string {
	if lat == 0 || lng == 0 {
		return "unknown"
	}
	return fmt.Sprintf("region_%.1f_%.1f", math.Floor(lat*10)/10, math.Floor(lng*10)/10)
}

// Age bands reported to analytics.
const (
	AgeUnknown = "unknown"
	AgeUnder18 = "under_18"
	Age18to24  = "18_24"
	Age25to34  = "25_34"
	Age35to44  = "35_44"
	Age45to54  = "45_54"
	Age55Plus  = "55_plus"
)

// AgeGroup buckets a date of birth into a fixed band. Accepts RFC 3339 or
// plain YYYY-MM-DD; anything else is unknown.
func AgeGroup(dateOfBirth string, now time.Time) string {
	if dateOfBirth == "" {
		return AgeUnknown
	}
	dob, err := time.Parse(time.RFC3339, dateOfBirth)
	if err != nil {
		dob, err = time.Parse("2006-01-02", dateOfBirth)
		if err != nil {
			return AgeUnknown
		}
	}
	age := now.Year() - dob.Year()
	switch {
	case age < 18:
		return AgeUnder18
	case age < 25:
		return Age18to24
	case age < 35:
		return Age25to34
	case age < 45:
		return Age35to44
	case age < 55:
		return Age45to54
	default:
		return Age55Plus
	}
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	}
	return 0
}

func asStringSlice(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			if str, ok := e.(string); ok {
				out = append(out, str)
			}
		}
		return out
	}
	return nil
}
