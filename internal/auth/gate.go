package auth

import (
	"fmt"
	"net/netip"
	"net/url"

	"github.com/MrSnakeDoc/registry/internal/domain"
	"github.com/MrSnakeDoc/registry/internal/logger"
	"github.com/MrSnakeDoc/registry/internal/registry"
	"github.com/MrSnakeDoc/registry/internal/utils"
)

// Notifier is the part of notify.Notifier the gate depends on.
type Notifier interface {
	Notify(kind domain.EventKind, subject domain.Service)
}

// Gate authenticates admin operations and drives the registration token
// lifecycle on top of the registry store.
type Gate struct {
	store    *registry.Store
	notifier Notifier
	logger   logger.Logger
}

// NewGate creates a gate over store. Events are handed to notifier.
func NewGate(store *registry.Store, notifier Notifier, log logger.Logger) *Gate {
	return &Gate{
		store:    store,
		notifier: notifier,
		logger:   log.With(logger.Component("auth")),
	}
}

// Login issues a new registration token for valid admin credentials.
func (g *Gate) Login(login, password string) (string, error) {
	if !g.store.CheckCredentials(login, password) {
		return "", domain.ErrUnauthorized
	}
	token := g.store.IssueToken()
	g.logger.Info("registration token issued")
	return token, nil
}

// Register spends token and creates a service at sourceHost:draft.Port.
// sourceHost comes from the connection, never from the client payload.
func (g *Gate) Register(token string, draft domain.ServiceDraft, sourceHost string) (domain.Service, error) {
	address, err := SourceAddress(sourceHost, draft.Port)
	if err != nil {
		return domain.Service{}, err
	}

	if !g.store.ConsumeToken(token) {
		return domain.Service{}, domain.ErrUnauthorized
	}

	svc := g.store.InsertService(domain.Service{
		ServiceType:         draft.ServiceType,
		HealthcheckEndpoint: draft.HealthcheckEndpoint,
		Address:             address,
	})

	g.logger.Info("service registered",
		logger.String("identifier", svc.Identifier),
		logger.String("service_type", svc.ServiceType),
		logger.String("address", svc.Address))

	g.notifier.Notify(domain.EventRegistered, svc)
	return svc, nil
}

// Accept marks a service as accepted and notifies its subscribers.
func (g *Gate) Accept(login, password, identifier string) error {
	if !g.store.CheckCredentials(login, password) {
		return domain.ErrUnauthorized
	}

	svc, err := g.store.SetAccepted(identifier, true)
	if err != nil {
		return err
	}

	g.logger.Info("service accepted", logger.String("identifier", identifier))
	g.notifier.Notify(domain.EventAccepted, svc)
	return nil
}

// Disable withdraws acceptance. Subscribers are not called back.
func (g *Gate) Disable(login, password, identifier string) error {
	if !g.store.CheckCredentials(login, password) {
		return domain.ErrUnauthorized
	}

	svc, err := g.store.SetAccepted(identifier, false)
	if err != nil {
		return err
	}

	g.logger.Info("service disabled", logger.String("identifier", identifier))
	g.notifier.Notify(domain.EventDisabled, svc)
	return nil
}

// Subscribe records a subscription to an existing service.
func (g *Gate) Subscribe(login, password string, sub domain.Subscriber) error {
	if !g.store.CheckCredentials(login, password) {
		return domain.ErrUnauthorized
	}
	if err := g.store.AddSubscriber(sub); err != nil {
		return err
	}

	g.logger.Info("subscriber added",
		logger.String("identifier", sub.TargetIdentifier),
		logger.Bool("on_registration", sub.NotifyOnRegistration),
		logger.Bool("on_acceptance", sub.NotifyOnAcceptance))
	return nil
}

// SourceAddress builds the http address of a registrant from the IP the
// request came from and the port it declared. host must be a literal IP.
func SourceAddress(host string, port uint16) (string, error) {
	ip, ok := utils.ParseIP(host)
	if !ok {
		return "", fmt.Errorf("%w: source host %q is not an IP", domain.ErrInvalid, host)
	}
	if port == 0 {
		return "", fmt.Errorf("%w: port 0", domain.ErrInvalid)
	}

	u := url.URL{Scheme: "http", Host: netip.AddrPortFrom(ip.WithZone(""), port).String()}
	return u.String(), nil
}
