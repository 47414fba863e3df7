package privacy

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/yshyp/lifepulse-vault/internal/model"
	"github.com/yshyp/lifepulse-vault/internal/vault"
)

// EventSink receives masked security events. The telemetry backend provides
// the real implementation; the default sink only logs.
type EventSink interface {
	Emit(ev model.SecurityEvent)
}

// Service is the policy layer above the vault: consent, retention, export,
// deletion and security-event logging.
type Service struct {
	vault         *vault.Vault
	log           *zap.Logger
	sink          EventSink
	appVersion    string
	policyVersion string

	now func() time.Time // overridable in tests
}

// Option configures a Service.
type Option func(*Service)

// WithEventSink routes security events to an external sink.
func WithEventSink(s EventSink) Option {
	return func(svc *Service) { svc.sink = s }
}

// WithAppVersion tags security events with the host app version.
func WithAppVersion(v string) Option {
	return func(svc *Service) { svc.appVersion = v }
}

// WithPolicyVersion sets the privacy-policy version bound to new consents.
func WithPolicyVersion(v string) Option {
	return func(svc *Service) { svc.policyVersion = v }
}

// New constructs the privacy service over a vault.
func New(v *vault.Vault, log *zap.Logger, opts ...Option) *Service {
	svc := &Service{
		vault:         v,
		log:           log,
		appVersion:    "dev",
		policyVersion: "1.0",
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// RecordConsent merges one entry into the consent map. Unknown consent
// types are recorded as-is; validation is the caller's job. The entry is
// bound to the policy version current at grant time and is not updated
// retroactively when the policy changes.
func (s *Service) RecordConsent(ctx context.Context, consentType string, granted bool) error {
	consents := model.ConsentMap{}
	s.vault.GetSecureItem(ctx, vault.KeyConsent, &consents)

	consents[consentType] = model.ConsentEntry{
		Granted:   granted,
		Timestamp: s.now().UnixMilli(),
		Version:   s.policyVersion,
	}
	return s.vault.SetSecureItem(ctx, vault.KeyConsent, consents)
}

// GetConsent returns the latest entry for a consent type, or nil.
func (s *Service) GetConsent(ctx context.Context, consentType string) *model.ConsentEntry {
	consents := model.ConsentMap{}
	if !s.vault.GetSecureItem(ctx, vault.KeyConsent, &consents) {
		return nil
	}
	entry, ok := consents[consentType]
	if !ok {
		return nil
	}
	return &entry
}

// CleanupExpiredData sweeps the user profile when it is older than the
// retention threshold. Only the profile is swept: medical data follows
// donor-eligibility retention rules of its own and tokens carry their own
// expiry, so they are left to their dedicated flows.
func (s *Service) CleanupExpiredData(ctx context.Context) bool {
	profile := s.vault.GetUserData(ctx)
	if profile == nil || profile.Timestamp == 0 {
		return true
	}
	age := s.now().Sub(time.UnixMilli(profile.Timestamp))
	if age <= s.vault.MaxDataAge() {
		return true
	}
	s.log.Info("cleaning up expired user data", zap.Duration("age", age))
	if err := s.vault.RemoveSecureItem(ctx, vault.KeyUserData); err != nil {
		s.log.Warn("retention sweep failed", zap.Error(err))
		return false
	}
	return true
}

// ExportUserData aggregates all secure categories for a portability
// export. Read-only; absent categories export as null.
func (s *Service) ExportUserData(ctx context.Context) *model.ExportBundle {
	return &model.ExportBundle{
		Personal:        s.vault.GetUserData(ctx),
		Medical:         s.vault.GetMedicalData(ctx),
		Location:        s.vault.GetLocationData(ctx),
		ExportTimestamp: s.now().UTC().Format(time.RFC3339),
		DataFormat:      "JSON",
		PrivacyVersion:  s.policyVersion,
	}
}

// DeleteAllUserData clears the local vault. Local-only: remote deletion is
// triggered by the backend client, not here.
func (s *Service) DeleteAllUserData(ctx context.Context) bool {
	if err := s.vault.ClearAll(ctx); err != nil {
		s.log.Warn("data deletion incomplete", zap.Error(err))
		s.LogSecurityEvent("DATA_DELETION_FAILED", nil)
		return false
	}
	s.LogSecurityEvent("DATA_DELETED", nil)
	return true
}

// LogSecurityEvent masks details, stamps and emits an audit event. Never
// fails the caller; problems are swallowed and reported as false.
func (s *Service) LogSecurityEvent(eventType string, details map[string]any) bool {
	id, err := uuid.NewV4()
	if err != nil {
		s.log.Warn("security event id", zap.Error(err))
		return false
	}
	ev := model.SecurityEvent{
		ID:         id.String(),
		Type:       eventType,
		Timestamp:  s.now().UnixMilli(),
		Details:    MaskSensitiveData(details),
		AppVersion: s.appVersion,
	}
	s.log.Info("security event",
		zap.String("id", ev.ID),
		zap.String("type", ev.Type),
		zap.String("appVersion", ev.AppVersion),
		zap.Any("details", ev.Details),
	)
	if s.sink != nil {
		s.sink.Emit(ev)
	}
	return true
}
