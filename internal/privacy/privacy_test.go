package privacy

import (
	"bytes"
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/yshyp/lifepulse-vault/internal/crypto/codec"
	"github.com/yshyp/lifepulse-vault/internal/keystore/mem"
	"github.com/yshyp/lifepulse-vault/internal/model"
	"github.com/yshyp/lifepulse-vault/internal/vault"
)

type captureSink struct {
	events []model.SecurityEvent
}

func (c *captureSink) Emit(ev model.SecurityEvent) { c.events = append(c.events, ev) }

func newService(t *testing.T) (*Service, *vault.Vault, *captureSink) {
	t.Helper()
	store := mem.New()
	key := bytes.Repeat([]byte{0x33}, codec.KeyLen)
	v := vault.New(store, codec.New(key), zap.NewNop())
	sink := &captureSink{}
	s := New(v, zap.NewNop(), WithEventSink(sink), WithAppVersion("1.2.3"))
	return s, v, sink
}

func TestRecordConsent_MergesPerType(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _, _ := newService(t)

	if err := s.RecordConsent(ctx, model.ConsentAnalytics, true); err != nil {
		t.Fatalf("RecordConsent: %v", err)
	}
	if err := s.RecordConsent(ctx, model.ConsentLocationTracking, false); err != nil {
		t.Fatalf("RecordConsent: %v", err)
	}

	analytics := s.GetConsent(ctx, model.ConsentAnalytics)
	location := s.GetConsent(ctx, model.ConsentLocationTracking)
	if analytics == nil || !analytics.Granted {
		t.Fatalf("analytics consent lost: %+v", analytics)
	}
	if location == nil || location.Granted {
		t.Fatalf("location consent wrong: %+v", location)
	}
	if analytics.Version != "1.0" {
		t.Fatalf("consent must carry policy version: %+v", analytics)
	}
}

func TestRecordConsent_OverwritesSameType(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _, _ := newService(t)

	_ = s.RecordConsent(ctx, model.ConsentNotifications, true)
	_ = s.RecordConsent(ctx, model.ConsentNotifications, false)

	got := s.GetConsent(ctx, model.ConsentNotifications)
	if got == nil || got.Granted {
		t.Fatalf("latest decision must win: %+v", got)
	}
}

func TestRecordConsent_UnknownTypeAccepted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, _, _ := newService(t)

	if err := s.RecordConsent(ctx, "marketingEmails", true); err != nil {
		t.Fatalf("unknown type must still record: %v", err)
	}
	if got := s.GetConsent(ctx, "marketingEmails"); got == nil || !got.Granted {
		t.Fatalf("unknown type lost: %+v", got)
	}
}

func TestGetConsent_Absent(t *testing.T) {
	t.Parallel()
	s, _, _ := newService(t)
	if got := s.GetConsent(context.Background(), model.ConsentMedicalData); got != nil {
		t.Fatalf("absent consent: %+v", got)
	}
}

func TestCleanupExpiredData_SweepsOnlyProfile(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, v, _ := newService(t)

	stale := time.Now().Add(-31 * 24 * time.Hour).UnixMilli()
	_ = v.StoreUserData(ctx, model.UserProfile{Name: "J", Timestamp: stale})
	_ = v.StoreMedicalData(ctx, model.MedicalRecord{BloodGroup: "B+"})
	_ = v.StoreLocationData(ctx, model.LocationRecord{Latitude: 1, Longitude: 2})
	_ = v.StoreAuthToken(ctx, "tok")

	if !s.CleanupExpiredData(ctx) {
		t.Fatalf("cleanup reported failure")
	}
	if v.GetUserData(ctx) != nil {
		t.Fatalf("expired profile must be removed")
	}
	if v.GetMedicalData(ctx) == nil || v.GetLocationData(ctx) == nil || v.GetAuthToken(ctx) == nil {
		t.Fatalf("cleanup must leave other categories untouched")
	}
}

func TestCleanupExpiredData_FreshProfileKept(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, v, _ := newService(t)

	_ = v.StoreUserData(ctx, model.UserProfile{Name: "J"})
	if !s.CleanupExpiredData(ctx) {
		t.Fatalf("cleanup reported failure")
	}
	if v.GetUserData(ctx) == nil {
		t.Fatalf("fresh profile must survive the sweep")
	}
}

func TestExportUserData_Aggregates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, v, _ := newService(t)

	_ = v.StoreUserData(ctx, model.UserProfile{Name: "Jane"})
	_ = v.StoreMedicalData(ctx, model.MedicalRecord{BloodGroup: "O+"})

	bundle := s.ExportUserData(ctx)
	if bundle == nil {
		t.Fatalf("export nil")
	}
	if bundle.Personal == nil || bundle.Personal.Name != "Jane" {
		t.Fatalf("personal: %+v", bundle.Personal)
	}
	if bundle.Medical == nil || bundle.Medical.BloodGroup != "O+" {
		t.Fatalf("medical: %+v", bundle.Medical)
	}
	if bundle.Location != nil {
		t.Fatalf("absent category must export as nil")
	}
	if bundle.DataFormat != "JSON" || bundle.PrivacyVersion != "1.0" || bundle.ExportTimestamp == "" {
		t.Fatalf("bundle metadata: %+v", bundle)
	}
}

func TestDeleteAllUserData_Complete(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s, v, sink := newService(t)

	_ = v.StoreAuthToken(ctx, "tok")
	_ = v.StoreUserData(ctx, model.UserProfile{Name: "J"})
	_ = v.StoreMedicalData(ctx, model.MedicalRecord{BloodGroup: "O+"})
	_ = s.RecordConsent(ctx, model.ConsentAnalytics, true)

	if !s.DeleteAllUserData(ctx) {
		t.Fatalf("deletion reported failure")
	}
	if v.GetAuthToken(ctx) != nil || v.GetUserData(ctx) != nil || v.GetMedicalData(ctx) != nil {
		t.Fatalf("data survived deletion")
	}
	if s.GetConsent(ctx, model.ConsentAnalytics) != nil {
		t.Fatalf("consent survived deletion")
	}

	found := false
	for _, ev := range sink.events {
		if ev.Type == "DATA_DELETED" {
			found = true
		}
	}
	if !found {
		t.Fatalf("deletion must emit a security event")
	}
}

func TestLogSecurityEvent_MasksDetails(t *testing.T) {
	t.Parallel()
	s, _, sink := newService(t)

	if !s.LogSecurityEvent("USER_DATA_STORED", map[string]any{
		"phone": "9876543210",
		"email": "jane.doe@example.com",
	}) {
		t.Fatalf("event reported failure")
	}

	if len(sink.events) != 1 {
		t.Fatalf("events=%d, want 1", len(sink.events))
	}
	ev := sink.events[0]
	if ev.Type != "USER_DATA_STORED" || ev.AppVersion != "1.2.3" || ev.ID == "" || ev.Timestamp == 0 {
		t.Fatalf("event metadata: %+v", ev)
	}
	if ev.Details["phone"] != "987****210" {
		t.Fatalf("phone not masked: %+v", ev.Details)
	}
	if ev.Details["email"] != "ja******@example.com" {
		t.Fatalf("email not masked: %+v", ev.Details)
	}
}
