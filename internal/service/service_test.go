package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"dynroute53/internal/apperr"
	"dynroute53/internal/auth"
	"dynroute53/internal/memstore"
	"dynroute53/internal/model"
)

type fakeLister struct {
	mu    sync.Mutex
	zones map[int64][]model.Zone
	err   error
	calls int
}

func (f *fakeLister) ListZones(_ context.Context, a model.CredentialAccount) ([]model.Zone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]model.Zone(nil), f.zones[a.ID]...), nil
}

func (f *fakeLister) set(accountID int64, zones ...model.Zone) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.zones == nil {
		f.zones = make(map[int64][]model.Zone)
	}
	f.zones[accountID] = zones
}

type fakeUpdater struct {
	report IPReport
	err    error
	target *model.NotificationTarget
	called bool
}

func (f *fakeUpdater) UpdateIP(_ context.Context, _ model.Domain, _ model.CredentialAccount, t *model.NotificationTarget) (IPReport, error) {
	f.called = true
	f.target = t
	return f.report, f.err
}

type fakeProber struct{ err error }

func (f fakeProber) Probe(context.Context, model.NotificationTarget) error { return f.err }

type harness struct {
	store    *memstore.Store
	lister   *fakeLister
	updater  *fakeUpdater
	accounts *Accounts
	targets  *Targets
	zones    *ZoneCache
	domains  *Domains
	settings *Settings
	audit    *Auditor
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zap.NewNop().Sugar()
	st := memstore.New()
	h := &harness{store: st, lister: &fakeLister{}, updater: &fakeUpdater{}}
	h.audit = NewAuditor(st, log)
	h.accounts = NewAccounts(st, h.audit, log)
	h.targets = NewTargets(st, fakeProber{}, h.audit, log)
	h.zones = NewZoneCache(st, st, h.lister, h.audit, log)
	h.domains = NewDomains(st, st, st, NewResolver(st, st, h.zones), h.updater, h.audit, log)
	h.settings = NewSettings(st, DefaultSchema(), h.audit, log)
	if err := h.settings.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return h
}

func (h *harness) account(t *testing.T, name string) *model.CredentialAccount {
	t.Helper()
	a, err := h.accounts.Create(context.Background(), NewAccount{
		Name: name, AccessKeyID: "AKIA" + name, SecretAccessKey: "secret", Region: "eu-west-1",
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}
	return a
}

func (h *harness) target(t *testing.T, name string) *model.NotificationTarget {
	t.Helper()
	tg, err := h.targets.Create(context.Background(), name, "https://hooks.slack.com/services/T000/B000/XXX")
	if err != nil {
		t.Fatalf("create target: %v", err)
	}
	return tg
}

func (h *harness) refresh(t *testing.T, accountID int64, zones ...model.Zone) {
	t.Helper()
	h.lister.set(accountID, zones...)
	if _, err := h.zones.Refresh(context.Background(), accountID); err != nil {
		t.Fatalf("refresh: %v", err)
	}
}

func cachedReq(accountID int64, zoneID string) DomainRequest {
	return DomainRequest{
		DomainName:          "home.example.com",
		CredentialAccountID: accountID,
		Zone:                ZoneSelection{Mode: ZoneSelectionCached, CachedZoneID: zoneID},
		RecordType:          model.RecordTypeA,
		TTL:                 300,
		Active:              true,
	}
}

func wantKind(t *testing.T, err error, k apperr.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", k)
	}
	if got := apperr.KindOf(err); got != k {
		t.Fatalf("expected %v error, got %v (%v)", k, got, err)
	}
}

func ptr[T any](v T) *T { return &v }

func TestEndToEndScenario(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a := h.account(t, "prod")
	if a.ID != 1 {
		t.Fatalf("expected first account id 1, got %d", a.ID)
	}

	h.lister.set(a.ID, model.Zone{ID: "Z1", Name: "example.com.", RecordCount: 4})
	zones, err := h.zones.Refresh(ctx, a.ID)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(zones) != 1 || zones[0].ID != "Z1" || zones[0].CredentialAccountID != a.ID {
		t.Fatalf("unexpected zones %+v", zones)
	}

	d, err := h.domains.Create(ctx, cachedReq(a.ID, "Z1"))
	if err != nil {
		t.Fatalf("create domain: %v", err)
	}
	if d.ZoneID != "Z1" || d.LastIP != nil {
		t.Fatalf("unexpected domain %+v", d)
	}

	_, err = h.domains.Create(ctx, cachedReq(a.ID, "Z9"))
	wantKind(t, err, apperr.KindValidation)
}

func TestAccountsCreate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	a, err := h.accounts.Create(ctx, NewAccount{Name: " ops ", AccessKeyID: "AKIA", SecretAccessKey: "s"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if a.Name != "ops" || a.Region != DefaultRegion {
		t.Fatalf("unexpected account %+v", a)
	}

	bad := []NewAccount{
		{AccessKeyID: "AKIA", SecretAccessKey: "s"},
		{Name: "x", SecretAccessKey: "s"},
		{Name: "x", AccessKeyID: "AKIA"},
		{Name: "x", AccessKeyID: "AKIA", SecretAccessKey: "s", Region: "mars-1"},
	}
	for _, in := range bad {
		_, err := h.accounts.Create(ctx, in)
		wantKind(t, err, apperr.KindValidation)
	}
}

func TestDeleteReferencedAccountConflicts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.account(t, "prod")
	h.refresh(t, a.ID, model.Zone{ID: "Z1", Name: "example.com."})
	d, err := h.domains.Create(ctx, cachedReq(a.ID, "Z1"))
	if err != nil {
		t.Fatalf("create domain: %v", err)
	}

	wantKind(t, h.accounts.Delete(ctx, a.ID), apperr.KindConflict)

	if err := h.domains.Delete(ctx, d.ID); err != nil {
		t.Fatalf("delete domain: %v", err)
	}
	if err := h.accounts.Delete(ctx, a.ID); err != nil {
		t.Fatalf("delete account: %v", err)
	}
	zones, _ := h.zones.ListFor(ctx, a.ID)
	if len(zones) != 0 {
		t.Fatalf("zones survived account delete: %+v", zones)
	}
	wantKind(t, h.accounts.Delete(ctx, a.ID), apperr.KindNotFound)
}

func TestDeleteAccountRacesDomainCreate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		a := h.account(t, fmt.Sprintf("race%d", i))
		h.refresh(t, a.ID, model.Zone{ID: "Z1", Name: "example.com."})

		var (
			wg                sync.WaitGroup
			delErr, createErr error
			created           *model.Domain
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			delErr = h.accounts.Delete(ctx, a.ID)
		}()
		go func() {
			defer wg.Done()
			created, createErr = h.domains.Create(ctx, cachedReq(a.ID, "Z1"))
		}()
		wg.Wait()

		if (delErr == nil) == (createErr == nil) {
			t.Fatalf("round %d: delete err %v, create err %v; want exactly one to succeed", i, delErr, createErr)
		}
		if createErr == nil {
			wantKind(t, delErr, apperr.KindConflict)
			if got, _ := h.store.GetAccount(ctx, a.ID); got == nil {
				t.Fatalf("round %d: domain %d references a deleted account", i, created.ID)
			}
		}
	}
}

func TestTargets(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.targets.Create(ctx, "ops", "https://example.com/hook")
	wantKind(t, err, apperr.KindValidation)
	_, err = h.targets.Create(ctx, "", "https://hooks.slack.com/services/T/B/X")
	wantKind(t, err, apperr.KindValidation)

	tg := h.target(t, "ops")
	if !tg.Active {
		t.Fatal("new target should be active")
	}

	upd, err := h.targets.Update(ctx, tg.ID, TargetPatch{Active: ptr(false)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.Active || upd.Name != "ops" {
		t.Fatalf("unexpected target %+v", upd)
	}

	_, err = h.targets.Update(ctx, 999, TargetPatch{Name: ptr("x")})
	wantKind(t, err, apperr.KindNotFound)

	if err := h.targets.Test(ctx, tg.ID); err != nil {
		t.Fatalf("probe: %v", err)
	}
	wantKind(t, h.targets.Test(ctx, 999), apperr.KindNotFound)

	h.targets.prober = fakeProber{err: errors.New("410 gone")}
	wantKind(t, h.targets.Test(ctx, tg.ID), apperr.KindUpstream)
	h.targets.prober = nil
	wantKind(t, h.targets.Test(ctx, tg.ID), apperr.KindUpstream)
}

func TestDeleteReferencedTargetConflicts(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.account(t, "prod")
	tg := h.target(t, "ops")
	h.refresh(t, a.ID, model.Zone{ID: "Z1", Name: "example.com."})

	req := cachedReq(a.ID, "Z1")
	req.NotificationTargetID = &tg.ID
	d, err := h.domains.Create(ctx, req)
	if err != nil {
		t.Fatalf("create domain: %v", err)
	}

	wantKind(t, h.targets.Delete(ctx, tg.ID), apperr.KindConflict)

	if _, err := h.domains.Update(ctx, d.ID, DomainPatch{NotificationTargetID: ptr(int64(0))}); err != nil {
		t.Fatalf("clear target: %v", err)
	}
	if err := h.targets.Delete(ctx, tg.ID); err != nil {
		t.Fatalf("delete target: %v", err)
	}
}

func TestRefreshReplacesWholesale(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.account(t, "prod")
	b := h.account(t, "staging")

	h.refresh(t, a.ID, model.Zone{ID: "Z1", Name: "a.com."}, model.Zone{ID: "Z2", Name: "b.com."})
	h.refresh(t, b.ID, model.Zone{ID: "Z7", Name: "s.com."})
	h.refresh(t, a.ID, model.Zone{ID: "Z3", Name: "c.com."})

	zones, err := h.zones.ListFor(ctx, a.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(zones) != 1 || zones[0].ID != "Z3" {
		t.Fatalf("stale zones kept: %+v", zones)
	}
	other, _ := h.zones.ListFor(ctx, b.ID)
	if len(other) != 1 || other[0].ID != "Z7" {
		t.Fatalf("other account touched: %+v", other)
	}

	_, err = h.domains.Create(ctx, cachedReq(a.ID, "Z1"))
	wantKind(t, err, apperr.KindValidation)
	_, err = h.domains.Create(ctx, cachedReq(a.ID, "Z7"))
	wantKind(t, err, apperr.KindValidation)
}

type gatedLister struct {
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (g *gatedLister) ListZones(ctx context.Context, _ model.CredentialAccount) ([]model.Zone, error) {
	g.once.Do(func() { close(g.entered) })
	select {
	case <-g.release:
		return []model.Zone{{ID: "Z1", Name: "example.com."}}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestRefreshOutlivesFirstCaller(t *testing.T) {
	h := newHarness(t)
	a := h.account(t, "prod")
	gl := &gatedLister{entered: make(chan struct{}), release: make(chan struct{})}
	cache := NewZoneCache(h.store, h.store, gl, h.audit, zap.NewNop().Sugar())

	aliceCtx, cancel := context.WithCancel(auth.WithCaller(context.Background(), auth.Caller{Username: "alice"}))
	bobCtx := auth.WithCaller(context.Background(), auth.Caller{Username: "bob"})

	errs := make(chan error, 2)
	go func() {
		_, err := cache.Refresh(aliceCtx, a.ID)
		errs <- err
	}()
	<-gl.entered
	go func() {
		_, err := cache.Refresh(bobCtx, a.ID)
		errs <- err
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	close(gl.release)

	for i := 0; i < 2; i++ {
		if err := <-errs; err != nil {
			t.Fatalf("refresh: %v", err)
		}
	}
	zones, _ := cache.ListFor(context.Background(), a.ID)
	if len(zones) != 1 {
		t.Fatalf("cache not written: %+v", zones)
	}

	entries, _, _ := h.audit.Page(context.Background(), 1)
	who := map[string]int{}
	for _, e := range entries {
		if e.Action == "refresh_zones" {
			who[e.Username]++
		}
	}
	if who["alice"] != 1 || who["bob"] != 1 {
		t.Fatalf("refresh audit entries per caller = %v", who)
	}
}

func TestRefreshErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.zones.Refresh(ctx, 42)
	wantKind(t, err, apperr.KindNotFound)

	a := h.account(t, "prod")
	h.refresh(t, a.ID, model.Zone{ID: "Z1", Name: "a.com."})
	h.lister.err = errors.New("AccessDenied")
	_, err = h.zones.Refresh(ctx, a.ID)
	wantKind(t, err, apperr.KindUpstream)

	zones, _ := h.zones.ListFor(ctx, a.ID)
	if len(zones) != 1 {
		t.Fatalf("failed refresh changed the cache: %+v", zones)
	}
}

func TestResolverValidation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.account(t, "prod")
	h.refresh(t, a.ID, model.Zone{ID: "Z1", Name: "example.com."})

	tests := []struct {
		name string
		mod  func(*DomainRequest)
		want apperr.Kind
	}{
		{"ttl 59", func(r *DomainRequest) { r.TTL = 59 }, apperr.KindValidation},
		{"ttl 60", func(r *DomainRequest) { r.TTL = 60 }, apperr.KindUnknown},
		{"ttl 86400", func(r *DomainRequest) { r.TTL = 86400 }, apperr.KindUnknown},
		{"ttl 86401", func(r *DomainRequest) { r.TTL = 86401 }, apperr.KindValidation},
		{"aaaa ttl 59", func(r *DomainRequest) { r.RecordType, r.TTL = model.RecordTypeAAAA, 59 }, apperr.KindValidation},
		{"aaaa ttl 60", func(r *DomainRequest) { r.RecordType, r.TTL = model.RecordTypeAAAA, 60 }, apperr.KindUnknown},
		{"aaaa ttl 86400", func(r *DomainRequest) { r.RecordType, r.TTL = model.RecordTypeAAAA, 86400 }, apperr.KindUnknown},
		{"aaaa ttl 86401", func(r *DomainRequest) { r.RecordType, r.TTL = model.RecordTypeAAAA, 86401 }, apperr.KindValidation},
		{"record type", func(r *DomainRequest) { r.RecordType = "CNAME" }, apperr.KindValidation},
		{"empty name", func(r *DomainRequest) { r.DomainName = "  " }, apperr.KindValidation},
		{"unknown account", func(r *DomainRequest) { r.CredentialAccountID = 99 }, apperr.KindNotFound},
		{"unknown target", func(r *DomainRequest) { r.NotificationTargetID = ptr(int64(99)) }, apperr.KindNotFound},
		{"cached empty", func(r *DomainRequest) { r.Zone.CachedZoneID = "" }, apperr.KindValidation},
		{"manual empty", func(r *DomainRequest) { r.Zone = ZoneSelection{Mode: ZoneSelectionManual} }, apperr.KindValidation},
		{"bad mode", func(r *DomainRequest) { r.Zone.Mode = "GUESS" }, apperr.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := cachedReq(a.ID, "Z1")
			tt.mod(&req)
			_, err := h.domains.Create(ctx, req)
			if tt.want == apperr.KindUnknown {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			wantKind(t, err, tt.want)
		})
	}
}

func TestManualZoneIDStoredVerbatim(t *testing.T) {
	h := newHarness(t)
	a := h.account(t, "prod")

	req := cachedReq(a.ID, "")
	req.Zone = ZoneSelection{Mode: ZoneSelectionManual, ManualZoneID: "/hostedzone/ZNOTCACHED"}
	d, err := h.domains.Create(context.Background(), req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if d.ZoneID != "/hostedzone/ZNOTCACHED" {
		t.Fatalf("zone id rewritten: %q", d.ZoneID)
	}
}

func TestInactiveTargetAccepted(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.account(t, "prod")
	tg := h.target(t, "ops")
	if _, err := h.targets.Update(ctx, tg.ID, TargetPatch{Active: ptr(false)}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	h.refresh(t, a.ID, model.Zone{ID: "Z1", Name: "example.com."})

	req := cachedReq(a.ID, "Z1")
	req.NotificationTargetID = &tg.ID
	if _, err := h.domains.Create(ctx, req); err != nil {
		t.Fatalf("create with inactive target: %v", err)
	}
}

func TestUpdateKeepsUnsetFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.account(t, "prod")
	h.refresh(t, a.ID, model.Zone{ID: "Z1", Name: "example.com."})
	d, err := h.domains.Create(ctx, cachedReq(a.ID, "Z1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := h.domains.RecordIP(ctx, d.ID, "203.0.113.7", time.Time{}); err != nil {
		t.Fatalf("record ip: %v", err)
	}

	// The cache no longer holds Z1, yet an update that does not touch the
	// zone keeps working.
	h.refresh(t, a.ID)
	upd, err := h.domains.Update(ctx, d.ID, DomainPatch{TTL: ptr(int64(600))})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if upd.TTL != 600 || upd.ZoneID != "Z1" || upd.Name != d.Name || !upd.Active {
		t.Fatalf("unexpected domain %+v", upd)
	}

	upd, err = h.domains.Update(ctx, d.ID, DomainPatch{RecordType: ptr(model.RecordTypeAAAA)})
	if err != nil {
		t.Fatalf("update type: %v", err)
	}
	got, _ := h.domains.Get(ctx, d.ID)
	if got.RecordType != model.RecordTypeAAAA || got.LastIP == nil || *got.LastIP != "203.0.113.7" {
		t.Fatalf("last ip not kept: %+v", got)
	}

	_, err = h.domains.Update(ctx, d.ID, DomainPatch{Zone: &ZoneSelection{Mode: ZoneSelectionCached, CachedZoneID: "Z1"}})
	wantKind(t, err, apperr.KindValidation)
	_, err = h.domains.Update(ctx, 999, DomainPatch{})
	wantKind(t, err, apperr.KindNotFound)
}

func TestRecordIP(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.account(t, "prod")
	h.refresh(t, a.ID, model.Zone{ID: "Z1", Name: "example.com."})
	d, err := h.domains.Create(ctx, cachedReq(a.ID, "Z1"))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = h.domains.RecordIP(ctx, d.ID, "2001:db8::1", time.Time{})
	wantKind(t, err, apperr.KindValidation)
	_, err = h.domains.RecordIP(ctx, d.ID, "not-an-ip", time.Time{})
	wantKind(t, err, apperr.KindValidation)
	_, err = h.domains.RecordIP(ctx, 999, "203.0.113.7", time.Time{})
	wantKind(t, err, apperr.KindNotFound)

	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	got, err := h.domains.RecordIP(ctx, d.ID, "::ffff:198.51.100.4", at)
	if err != nil {
		t.Fatalf("record: %v", err)
	}
	if *got.LastIP != "198.51.100.4" || !got.LastUpdated.Equal(at) || got.LastUpdated.Location() != time.UTC {
		t.Fatalf("unexpected record %+v", got)
	}
}

func TestTriggerIPRefresh(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	a := h.account(t, "prod")
	tg := h.target(t, "ops")
	h.refresh(t, a.ID, model.Zone{ID: "Z1", Name: "example.com."})

	req := cachedReq(a.ID, "Z1")
	req.NotificationTargetID = &tg.ID
	d, err := h.domains.Create(ctx, req)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	h.updater.report = IPReport{IP: "192.0.2.10"}
	got, err := h.domains.TriggerIPRefresh(ctx, d.ID)
	if err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if got.LastIP == nil || *got.LastIP != "192.0.2.10" || got.LastUpdated == nil {
		t.Fatalf("ip not stored: %+v", got)
	}
	if h.updater.target == nil || h.updater.target.ID != tg.ID {
		t.Fatalf("active target not passed: %+v", h.updater.target)
	}

	if _, err := h.targets.Update(ctx, tg.ID, TargetPatch{Active: ptr(false)}); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	if _, err := h.domains.TriggerIPRefresh(ctx, d.ID); err != nil {
		t.Fatalf("trigger: %v", err)
	}
	if h.updater.target != nil {
		t.Fatal("inactive target passed to updater")
	}

	h.updater.report = IPReport{IP: "2001:db8::1"}
	_, err = h.domains.TriggerIPRefresh(ctx, d.ID)
	wantKind(t, err, apperr.KindUpstream)
	h.updater.report = IPReport{IP: "garbage"}
	_, err = h.domains.TriggerIPRefresh(ctx, d.ID)
	wantKind(t, err, apperr.KindUpstream)
	kept, _ := h.domains.Get(ctx, d.ID)
	if kept.LastIP == nil || *kept.LastIP != "192.0.2.10" {
		t.Fatalf("unusable report overwrote last ip: %+v", kept.LastIP)
	}

	h.updater.err = errors.New("route53 throttled")
	_, err = h.domains.TriggerIPRefresh(ctx, d.ID)
	wantKind(t, err, apperr.KindUpstream)

	if _, err := h.domains.Update(ctx, d.ID, DomainPatch{Active: ptr(false)}); err != nil {
		t.Fatalf("deactivate domain: %v", err)
	}
	h.updater.called = false
	_, err = h.domains.TriggerIPRefresh(ctx, d.ID)
	wantKind(t, err, apperr.KindValidation)
	if h.updater.called {
		t.Fatal("updater called for inactive domain")
	}

	h.domains.updater = nil
	if _, err := h.domains.Update(ctx, d.ID, DomainPatch{Active: ptr(true)}); err != nil {
		t.Fatalf("activate domain: %v", err)
	}
	_, err = h.domains.TriggerIPRefresh(ctx, d.ID)
	wantKind(t, err, apperr.KindUpstream)
}

func TestAuditTrail(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.account(t, "prod")
	h.target(t, "ops")

	entries, total, err := h.audit.Page(ctx, 1)
	if err != nil {
		t.Fatalf("page: %v", err)
	}
	if total != 2 || len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d/%d", len(entries), total)
	}
	if entries[0].Action != "create_target" || entries[0].Username != "system" {
		t.Fatalf("unexpected newest entry %+v", entries[0])
	}
}

func TestAuditPageBeyondRange(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.account(t, "prod")

	for _, page := range []int{2, 200000000000000000, math.MaxInt} {
		entries, total, err := h.audit.Page(ctx, page)
		if err != nil {
			t.Fatalf("page %d: %v", page, err)
		}
		if total != 1 || len(entries) != 0 {
			t.Errorf("page %d: got %d entries of %d", page, len(entries), total)
		}
	}
}
