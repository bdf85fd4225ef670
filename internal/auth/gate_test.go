package auth

import (
	"errors"
	"sync"
	"testing"

	"github.com/MrSnakeDoc/registry/internal/domain"
	"github.com/MrSnakeDoc/registry/internal/logger"
	"github.com/MrSnakeDoc/registry/internal/registry"
)

type notification struct {
	kind domain.EventKind
	svc  domain.Service
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (f *fakeNotifier) Notify(kind domain.EventKind, svc domain.Service) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, notification{kind: kind, svc: svc})
}

func (f *fakeNotifier) kinds() []domain.EventKind {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.EventKind, 0, len(f.sent))
	for _, n := range f.sent {
		out = append(out, n.kind)
	}
	return out
}

func newTestGate() (*Gate, *registry.Store, *fakeNotifier) {
	store := registry.NewStore(registry.NewCredentials("admin", "secret"))
	n := &fakeNotifier{}
	return NewGate(store, n, logger.Nop()), store, n
}

var webDraft = domain.ServiceDraft{ServiceType: "web", HealthcheckEndpoint: "/health", Port: 8080}

func TestLogin(t *testing.T) {
	g, store, _ := newTestGate()

	if _, err := g.Login("admin", "nope"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("Login(bad) error = %v, want ErrUnauthorized", err)
	}
	if store.PendingTokens() != 0 {
		t.Error("failed login must not issue a token")
	}

	token, err := g.Login("admin", "secret")
	if err != nil || token == "" {
		t.Fatalf("Login() = %q, %v", token, err)
	}
	if store.PendingTokens() != 1 {
		t.Errorf("PendingTokens() = %d, want 1", store.PendingTokens())
	}
}

func TestRegisterScenario(t *testing.T) {
	g, store, n := newTestGate()

	token, _ := g.Login("admin", "secret")

	svc, err := g.Register(token, webDraft, "1.2.3.4")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if svc.Address != "http://1.2.3.4:8080" {
		t.Errorf("Address = %q, want http://1.2.3.4:8080", svc.Address)
	}
	if svc.IsAccepted || svc.Available {
		t.Error("new service must be neither accepted nor available")
	}

	if _, err := g.Register(token, webDraft, "1.2.3.4"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("second Register() error = %v, want ErrUnauthorized", err)
	}

	if got := store.ListServices(domain.Filter{}); len(got) != 0 {
		t.Errorf("find before accept returned %d services", len(got))
	}

	if err := g.Accept("admin", "secret", svc.Identifier); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}

	got := store.ListServices(domain.Filter{})
	if len(got) != 1 || got[0].Identifier != svc.Identifier || got[0].Available {
		t.Errorf("find after accept = %+v", got)
	}

	kinds := n.kinds()
	if len(kinds) != 2 || kinds[0] != domain.EventRegistered || kinds[1] != domain.EventAccepted {
		t.Errorf("notifications = %v, want [registered accepted]", kinds)
	}
}

func TestRegisterDistinctIdentifiers(t *testing.T) {
	g, _, _ := newTestGate()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		token, _ := g.Login("admin", "secret")
		svc, err := g.Register(token, webDraft, "10.0.0.1")
		if err != nil {
			t.Fatalf("Register() error = %v", err)
		}
		if seen[svc.Identifier] {
			t.Fatalf("duplicate identifier %s", svc.Identifier)
		}
		seen[svc.Identifier] = true
	}
}

func TestRegisterUnknownToken(t *testing.T) {
	g, store, n := newTestGate()

	if _, err := g.Register("forged", webDraft, "1.2.3.4"); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("Register(forged) error = %v, want ErrUnauthorized", err)
	}
	if total, _, _ := store.Counts(); total != 0 {
		t.Error("failed registration created a service")
	}
	if len(n.kinds()) != 0 {
		t.Error("failed registration sent a notification")
	}
}

func TestRegisterInvalidInputKeepsToken(t *testing.T) {
	g, store, _ := newTestGate()
	token, _ := g.Login("admin", "secret")

	_, err := g.Register(token, domain.ServiceDraft{ServiceType: "web", Port: 0}, "1.2.3.4")
	if !errors.Is(err, domain.ErrInvalid) {
		t.Errorf("Register(port 0) error = %v, want ErrInvalid", err)
	}
	if store.PendingTokens() != 1 {
		t.Error("rejected input must not spend the token")
	}
}

func TestRegisterRejectsHostnameSource(t *testing.T) {
	g, store, _ := newTestGate()
	token, _ := g.Login("admin", "secret")

	if _, err := g.Register(token, webDraft, "metadata.google.internal"); !errors.Is(err, domain.ErrInvalid) {
		t.Errorf("Register(hostname) error = %v, want ErrInvalid", err)
	}
	if store.PendingTokens() != 1 {
		t.Error("rejected source must not spend the token")
	}
}

func TestAcceptAndDisable(t *testing.T) {
	g, store, n := newTestGate()
	token, _ := g.Login("admin", "secret")
	svc, _ := g.Register(token, webDraft, "1.2.3.4")

	tests := []struct {
		name    string
		op      func(login, password, id string) error
		login   string
		id      string
		wantErr error
	}{
		{name: "accept bad credentials", op: g.Accept, login: "root", id: svc.Identifier, wantErr: domain.ErrUnauthorized},
		{name: "accept unknown", op: g.Accept, login: "admin", id: "missing", wantErr: domain.ErrNotFound},
		{name: "disable bad credentials", op: g.Disable, login: "root", id: svc.Identifier, wantErr: domain.ErrUnauthorized},
		{name: "disable unknown", op: g.Disable, login: "admin", id: "missing", wantErr: domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.op(tt.login, "secret", tt.id); !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := g.Accept("admin", "secret", svc.Identifier); err != nil {
		t.Fatalf("Accept() error = %v", err)
	}
	if err := g.Disable("admin", "secret", svc.Identifier); err != nil {
		t.Fatalf("Disable() error = %v", err)
	}
	if got := store.ListServices(domain.Filter{}); len(got) != 0 {
		t.Errorf("disabled service still listed: %+v", got)
	}

	kinds := n.kinds()
	want := []domain.EventKind{domain.EventRegistered, domain.EventAccepted, domain.EventDisabled}
	if len(kinds) != len(want) {
		t.Fatalf("notifications = %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("notification[%d] = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestSubscribe(t *testing.T) {
	g, store, _ := newTestGate()
	token, _ := g.Login("admin", "secret")
	svc, _ := g.Register(token, webDraft, "1.2.3.4")

	sub := domain.Subscriber{TargetIdentifier: svc.Identifier, NotifyOnAcceptance: true, Endpoint: "/cb"}

	if err := g.Subscribe("admin", "bad", sub); !errors.Is(err, domain.ErrUnauthorized) {
		t.Errorf("Subscribe(bad creds) error = %v", err)
	}
	missing := sub
	missing.TargetIdentifier = "missing"
	if err := g.Subscribe("admin", "secret", missing); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Subscribe(missing) error = %v", err)
	}
	if err := g.Subscribe("admin", "secret", sub); err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}
	if store.SubscriberCount() != 1 {
		t.Errorf("SubscriberCount() = %d, want 1", store.SubscriberCount())
	}
}

func TestSourceAddress(t *testing.T) {
	tests := []struct {
		host    string
		port    uint16
		want    string
		wantErr bool
	}{
		{host: "1.2.3.4", port: 8080, want: "http://1.2.3.4:8080"},
		{host: "::1", port: 9000, want: "http://[::1]:9000"},
		{host: "", port: 80, wantErr: true},
		{host: "1.2.3.4", port: 0, wantErr: true},
		{host: "metadata.google.internal", port: 80, wantErr: true},
		{host: "localhost", port: 80, wantErr: true},
		{host: "::ffff:10.0.0.1", port: 80, want: "http://10.0.0.1:80"},
	}
	for _, tt := range tests {
		got, err := SourceAddress(tt.host, tt.port)
		if tt.wantErr && !errors.Is(err, domain.ErrInvalid) {
			t.Errorf("SourceAddress(%q, %d) error = %v, want ErrInvalid", tt.host, tt.port, err)
			continue
		}
		if (err != nil) != tt.wantErr {
			t.Errorf("SourceAddress(%q, %d) error = %v", tt.host, tt.port, err)
			continue
		}
		if got != tt.want {
			t.Errorf("SourceAddress(%q, %d) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}
