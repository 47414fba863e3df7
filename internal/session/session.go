// Package session holds the current authenticated user for the process,
// with controlled mutation points. The manager is an explicit injected
// object, not a package-level singleton.
package session

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/yshyp/lifepulse-vault/internal/errs"
	"github.com/yshyp/lifepulse-vault/internal/model"
	"github.com/yshyp/lifepulse-vault/internal/privacy"
	"github.com/yshyp/lifepulse-vault/internal/vault"
)

// State is the session lifecycle state.
type State int32

const (
	StateUninitialized State = iota
	StateLoading
	StateAuthenticated
	StateAnonymous
)

// String returns the state name used in logs.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unknown"
	}
}

// Manager owns the in-memory current user. All operations serialize on the
// manager's mutex, so a mutation arriving while the session loads queues
// behind the load instead of interleaving with it. Cross-process flows still
// race last-write-wins; the keystore provides no conflict detection.
type Manager struct {
	mu      sync.Mutex
	state   State
	user    *model.UserProfile
	vault   *vault.Vault
	privacy *privacy.Service
	log     *zap.Logger
}

// New constructs an uninitialized manager; call Init before any mutation.
func New(v *vault.Vault, p *privacy.Service, log *zap.Logger) *Manager {
	return &Manager{vault: v, privacy: p, log: log}
}

// Init bootstraps the session from secure storage: integrity check, load,
// unconditional retention sweep. An invalid vault is cleared and the
// session starts anonymous; bootstrap never fails the caller on read
// problems.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateUninitialized {
		return errors.New("session already initialized")
	}
	return m.loadLocked(ctx)
}

// Reload re-runs the bootstrap path, refreshing the in-memory user from
// storage. Valid in any post-init state.
func (m *Manager) Reload(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateUninitialized {
		return errs.ErrNotInitialized
	}
	return m.loadLocked(ctx)
}

func (m *Manager) loadLocked(ctx context.Context) error {
	m.state = StateLoading

	report := m.vault.VerifyIntegrity(ctx)
	if !report.IsValid {
		m.log.Warn("data integrity check failed, clearing vault", zap.String("error", report.Error))
		if err := m.vault.ClearAll(ctx); err != nil {
			m.log.Warn("vault clear incomplete", zap.Error(err))
		}
		m.privacy.LogSecurityEvent("USER_DATA_LOAD_ERROR", map[string]any{"error": report.Error})
		m.user = nil
		m.state = StateAnonymous
		return nil
	}

	profile := m.vault.GetUserData(ctx)
	token := m.vault.GetAuthToken(ctx)
	if profile != nil && token != nil {
		m.user = profile
		m.state = StateAuthenticated
		dataAge := int64(0)
		if profile.Timestamp > 0 {
			dataAge = model.NowMillis() - profile.Timestamp
		}
		m.privacy.LogSecurityEvent("USER_DATA_LOADED", map[string]any{
			"hasToken": true,
			"dataAge":  dataAge,
		})
	} else {
		m.user = nil
		m.state = StateAnonymous
	}

	m.privacy.CleanupExpiredData(ctx)
	return nil
}

// SetUser stores a new authenticated user, or logs out when raw is nil.
// The raw payload is sanitized before persistence; medical fields are split
// off under the dedicated key. A failed profile or token write is fatal to
// the flow and leaves the session unchanged.
func (m *Manager) SetUser(ctx context.Context, raw map[string]any, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateUninitialized {
		return errs.ErrNotInitialized
	}

	if raw == nil {
		err := m.vault.ClearAll(ctx)
		m.user = nil
		m.state = StateAnonymous
		m.privacy.LogSecurityEvent("USER_LOGOUT", nil)
		return err
	}

	profile := privacy.SanitizeUserData(raw)
	profile.Timestamp = model.NowMillis()
	if err := m.vault.StoreUserData(ctx, profile); err != nil {
		m.privacy.LogSecurityEvent("USER_DATA_STORE_ERROR", map[string]any{"error": err.Error()})
		return err
	}

	if token != "" {
		if err := m.vault.StoreAuthToken(ctx, token); err != nil {
			m.privacy.LogSecurityEvent("USER_DATA_STORE_ERROR", map[string]any{"error": err.Error()})
			return err
		}
	}

	if privacy.HasMedicalFields(raw) {
		if err := m.vault.StoreMedicalData(ctx, privacy.MedicalRecordFromRaw(raw)); err != nil {
			m.privacy.LogSecurityEvent("USER_DATA_STORE_ERROR", map[string]any{"error": err.Error()})
			return err
		}
	}

	m.user = &profile
	m.state = StateAuthenticated
	m.privacy.LogSecurityEvent("USER_DATA_STORED", map[string]any{
		"hasToken":   token != "",
		"dataFields": profileFields(profile),
	})
	return nil
}

// UpdateLocation persists the new position and patches the in-memory user
// so the UI observes the change without a reload. Best effort: a failed
// write is logged and returned but should not abort the caller's flow.
func (m *Manager) UpdateLocation(ctx context.Context, loc model.LocationRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateUninitialized {
		return errs.ErrNotInitialized
	}
	if err := m.vault.StoreLocationData(ctx, loc); err != nil {
		m.privacy.LogSecurityEvent("LOCATION_UPDATE_ERROR", map[string]any{"error": err.Error()})
		return err
	}
	if m.user != nil {
		patched := loc
		m.user.Location = &patched
	}
	m.privacy.LogSecurityEvent("LOCATION_UPDATED", nil)
	return nil
}

// RecordConsent records a consent decision and audits it.
func (m *Manager) RecordConsent(ctx context.Context, consentType string, granted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateUninitialized {
		return errs.ErrNotInitialized
	}
	if err := m.privacy.RecordConsent(ctx, consentType, granted); err != nil {
		return err
	}
	m.privacy.LogSecurityEvent("CONSENT_RECORDED", map[string]any{
		"consentType": consentType,
		"granted":     granted,
	})
	return nil
}

// ExportUserData returns the portability bundle and audits the request.
func (m *Manager) ExportUserData(ctx context.Context) *model.ExportBundle {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateUninitialized {
		return nil
	}
	m.privacy.LogSecurityEvent("DATA_EXPORT_REQUESTED", nil)
	return m.privacy.ExportUserData(ctx)
}

// DeleteAllUserData erases the vault and drops the in-memory user.
func (m *Manager) DeleteAllUserData(ctx context.Context) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == StateUninitialized {
		return false
	}
	m.privacy.LogSecurityEvent("DATA_DELETION_REQUESTED", nil)
	if !m.privacy.DeleteAllUserData(ctx) {
		return false
	}
	m.user = nil
	m.state = StateAnonymous
	return true
}

// CurrentUser returns a copy of the in-memory user, or nil when anonymous.
func (m *Manager) CurrentUser() *model.UserProfile {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.user == nil {
		return nil
	}
	u := *m.user
	if m.user.Location != nil {
		loc := *m.user.Location
		u.Location = &loc
	}
	return &u
}

// State returns the current lifecycle state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func profileFields(p model.UserProfile) []string {
	fields := make([]string, 0, 7)
	if p.Name != "" {
		fields = append(fields, "name")
	}
	if p.Phone != "" {
		fields = append(fields, "phone")
	}
	if p.Email != "" {
		fields = append(fields, "email")
	}
	if p.BloodGroup != "" {
		fields = append(fields, "bloodGroup")
	}
	if p.Role != "" {
		fields = append(fields, "role")
	}
	if p.Location != nil {
		fields = append(fields, "location")
	}
	if p.Availability != nil {
		fields = append(fields, "availability")
	}
	return fields
}
