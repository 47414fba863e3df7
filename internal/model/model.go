// Package model defines domain entities shared by the vault, privacy and session layers.
package model

import "time"

// Timestamps are epoch milliseconds to match the values the mobile client
// historically wrote; records produced by older app builds stay readable.

// NowMillis returns the current time as epoch milliseconds.
func NowMillis() int64 { return time.Now().UnixMilli() }

// AuthToken is the bearer credential issued by the backend on login/verification.
type AuthToken struct {
	Token     string `json:"token"`
	Timestamp int64  `json:"timestamp"`
}

// LocationRecord is the last known device position.
type LocationRecord struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// UserProfile is the non-medical subset of user data.
// Only allow-listed fields survive sanitization; everything else is dropped
// before storage.
type UserProfile struct {
	Name         string          `json:"name,omitempty"`
	Phone        string          `json:"phone,omitempty"`
	Email        string          `json:"email,omitempty"`
	BloodGroup   string          `json:"bloodGroup,omitempty"`
	Role         string          `json:"role,omitempty"`
	Location     *LocationRecord `json:"location,omitempty"`
	Availability *bool           `json:"availability,omitempty"`
	Timestamp    int64           `json:"timestamp"`
}

// MedicalRecord holds donor medical data. Stored under its own key, never
// sharing a storage key with UserProfile.
type MedicalRecord struct {
	BloodGroup        string   `json:"bloodGroup,omitempty"`
	DonationHistory   []string `json:"donationHistory,omitempty"`
	MedicalConditions []string `json:"medicalConditions,omitempty"`
	LastDonationDate  string   `json:"lastDonationDate,omitempty"`
	EligibilityStatus string   `json:"eligibilityStatus,omitempty"`
	Timestamp         int64    `json:"timestamp"`
}

// Consent types recognized by the privacy screens. Unknown types are still
// recorded; this list is not a validation gate.
const (
	ConsentDataProcessing   = "dataProcessing"
	ConsentMedicalData      = "medicalData"
	ConsentLocationTracking = "locationTracking"
	ConsentNotifications    = "notifications"
	ConsentAnalytics        = "analytics"
)

// ConsentEntry is one grant/denial, bound to the policy version current at
// the time of the grant.
type ConsentEntry struct {
	Granted   bool   `json:"granted"`
	Timestamp int64  `json:"timestamp"`
	Version   string `json:"version"`
}

// ConsentMap maps consent type to its latest entry. Overwritten per type on
// change; no history is kept.
type ConsentMap map[string]ConsentEntry

// SecurityEvent is a write-only audit record emitted to the telemetry sink.
// Details are masked before the event is constructed.
type SecurityEvent struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Timestamp  int64          `json:"timestamp"`
	Details    map[string]any `json:"details,omitempty"`
	AppVersion string         `json:"appVersion"`
}

// IntegrityReport is the result of a read-only consistency pass over the vault.
type IntegrityReport struct {
	IsValid        bool   `json:"isValid"`
	HasAuthToken   bool   `json:"hasAuthToken"`
	HasUserData    bool   `json:"hasUserData"`
	HasMedicalData bool   `json:"hasMedicalData"`
	HasFCMToken    bool   `json:"hasFCMToken"`
	Error          string `json:"error,omitempty"`
}

// ExportBundle aggregates all secure categories for a portability export.
type ExportBundle struct {
	Personal        *UserProfile    `json:"personal"`
	Medical         *MedicalRecord  `json:"medical"`
	Location        *LocationRecord `json:"location"`
	ExportTimestamp string          `json:"exportTimestamp"`
	DataFormat      string          `json:"dataFormat"`
	PrivacyVersion  string          `json:"privacyVersion"`
}

// AnalyticsRecord is the anonymized projection of a user. Irreversible:
// exact coordinates are bucketed and date of birth is banded.
type AnalyticsRecord struct {
	BloodGroup string `json:"bloodGroup,omitempty"`
	Role       string `json:"role,omitempty"`
	Region     string `json:"region"`
	AgeGroup   string `json:"ageGroup"`
	Timestamp  int64  `json:"timestamp"`
}
