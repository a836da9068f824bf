package puffin

import (
	"bufio"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"net"
	"os/user"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bidfx-oss/pricing-go/config"
	"github.com/bidfx-oss/pricing-go/pricing"
	"github.com/bidfx-oss/pricing-go/pricingerrors"
	"github.com/bidfx-oss/pricing-go/transport"
)

// currentProtocolVersion is the Puffin protocol version this client
// negotiates, ported from puffin_provider.py's CURRENT_PROTOCOL_VERSION.
const currentProtocolVersion = 8

var instanceCount int

// subscriptionSet tracks the subjects currently subscribed to, keyed by
// their string form so an inbound Subject attribute can be resolved back to
// the originating Subject, mirroring puffin_provider.py's SubscriptionSet.
type subscriptionSet struct {
	mu      sync.Mutex
	subject map[string]pricing.Subject
}

func newSubscriptionSet() *subscriptionSet {
	return &subscriptionSet{subject: make(map[string]pricing.Subject)}
}

func (s *subscriptionSet) subscribe(subject pricing.Subject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subject[subject.String()] = subject
}

func (s *subscriptionSet) unsubscribe(subject pricing.Subject) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subject, subject.String())
}

func (s *subscriptionSet) subjectFromString(str string) (pricing.Subject, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subject, ok := s.subject[str]
	return subject, ok
}

func (s *subscriptionSet) activeSubjects() []pricing.Subject {
	s.mu.Lock()
	defer s.mu.Unlock()
	subjects := make([]pricing.Subject, 0, len(s.subject))
	for _, subject := range s.subject {
		subjects = append(subjects, subject)
	}
	return subjects
}

// Provider is the Puffin protocol implementation of pricing.Provider,
// ported from puffin_provider.py's PuffinProvider.
type Provider struct {
	name      string
	cfg       config.Provider
	callbacks *pricing.Callbacks
	subs      *subscriptionSet
	logger    zerolog.Logger

	mu                sync.Mutex
	conn              net.Conn
	compressor        *MessageCompressor
	decompressor      *MessageDecompressor
	heartbeatInterval time.Duration
	running           bool
	cancel            context.CancelFunc
}

// NewProvider constructs a Puffin Provider from cfg, matching the
// construction signature session.New wires every protocol provider through.
func NewProvider(cfg config.Provider, callbacks *pricing.Callbacks) (pricing.Provider, error) {
	instanceCount++
	name := fmt.Sprintf("Puffin-%d", instanceCount)
	return &Provider{
		name:              name,
		cfg:               cfg,
		callbacks:         callbacks,
		subs:              newSubscriptionSet(),
		heartbeatInterval: cfg.HeartbeatInterval,
		logger:            log.With().Str("provider", name).Logger(),
	}, nil
}

// Start launches the background connection-and-reconnect loop, mirroring
// PuffinProvider.start's daemon reader thread.
func (p *Provider) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		p.logger.Warn().Msg("attempt to start provider ignored, already running")
		return nil
	}
	runCtx, cancel := context.WithCancel(ctx)
	p.running = true
	p.cancel = cancel
	p.mu.Unlock()

	p.publishProviderStatus(pricing.ProviderDown, "starting up")
	go p.connectionLoop(runCtx)
	return nil
}

// Stop ends the reconnect loop and closes any open connection.
func (p *Provider) Stop() {
	p.mu.Lock()
	p.running = false
	if p.cancel != nil {
		p.cancel()
	}
	conn := p.conn
	p.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	p.publishProviderStatus(pricing.ProviderClosed, "stopped")
}

// Subscribe records subject and, if connected, sends a Subscribe message.
func (p *Provider) Subscribe(subject pricing.Subject) {
	p.logger.Info().Str("subject", subject.String()).Msg("subscribe")
	p.subs.subscribe(subject)
	p.sendSubscribe(subject)
}

// Unsubscribe drops subject and, if connected, sends an Unsubscribe message.
func (p *Provider) Unsubscribe(subject pricing.Subject) {
	p.logger.Info().Str("subject", subject.String()).Msg("unsubscribe")
	p.subs.unsubscribe(subject)
	p.sendUnsubscribe(subject)
}

func (p *Provider) connectionLoop(ctx context.Context) {
	p.attemptSession(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.cfg.ReconnectInterval):
			if ctx.Err() != nil {
				return
			}
			p.attemptSession(ctx)
		}
	}
}

func (p *Provider) attemptSession(ctx context.Context) {
	conn, err := p.openConnection()
	if err != nil {
		p.logger.Warn().Err(err).Msg("connection attempt failed")
		return
	}
	p.mu.Lock()
	p.conn = conn
	p.mu.Unlock()

	if err := p.sendProtocolSignature(conn); err != nil {
		p.logger.Warn().Err(err).Msg("connection attempt failed")
		return
	}
	reader := bufio.NewReader(conn)
	if err := p.loginIntoServer(conn, reader); err != nil {
		p.logger.Warn().Err(err).Msg("connection attempt failed")
		return
	}

	p.mu.Lock()
	p.compressor = NewMessageCompressor(conn)
	p.decompressor = NewMessageDecompressor(reader)
	p.mu.Unlock()

	p.refreshSubscriptions()
	p.publishProviderStatus(pricing.ProviderReady, "")
	p.readLoop(ctx, conn)
}

func (p *Provider) openConnection() (net.Conn, error) {
	connector := transport.NewConnector(p.cfg.Host, p.cfg.Port, p.cfg.Username, p.cfg.Password, pricing.InstanceGUID, p.cfg.ValidCN, p.cfg.ValidRootCert)
	readTimeout := p.heartbeatInterval * 2
	if p.cfg.Tunnel {
		return connector.TunnelSocketToService(p.cfg.Service, readTimeout)
	}
	return connector.DirectSocketToService(readTimeout)
}

func (p *Provider) sendProtocolSignature(conn net.Conn) error {
	_, err := conn.Write([]byte("puffin://localhost?encrypt=false\n"))
	if err != nil {
		return pricingerrors.ErrTransport.Wrapf("failed to send protocol signature: %v", err)
	}
	return nil
}

func (p *Provider) loginIntoServer(conn net.Conn, reader *bufio.Reader) error {
	parser := NewPlainXMLParser(reader)

	welcome, err := parser.ParseElement()
	if err != nil {
		return err
	}
	p.logger.Debug().Str("message", welcome.String()).Msg("puffin sent message")
	version, err := strconv.Atoi(welcome.Get("Version", ""))
	if err != nil {
		return pricingerrors.ErrPricing.Wrapf("invalid Version attribute in welcome message: %v", err)
	}
	if version != currentProtocolVersion {
		return pricingerrors.ErrIncompatibleVersion.Wrapf(
			"a server negotiating Puffin protocol version %d is incompatible with this API client on version %d",
			version, currentProtocolVersion)
	}

	intervalMillis, err := strconv.Atoi(welcome.Get("Interval", ""))
	if err != nil {
		return pricingerrors.ErrPricing.Wrapf("invalid Interval attribute in welcome message: %v", err)
	}
	p.mu.Lock()
	p.heartbeatInterval = time.Duration(intervalMillis) * time.Millisecond
	p.mu.Unlock()

	if err := p.sendLoginMessage(conn, welcome.Get("PublicKey", "")); err != nil {
		return err
	}

	grant, err := parser.ParseElement()
	if err != nil {
		return err
	}
	p.logger.Debug().Str("message", grant.String()).Msg("puffin sent message")
	// Service description message is read and discarded.
	if _, err := parser.ParseElement(); err != nil {
		return err
	}

	if grant.Get("Access", "") != "true" {
		return pricingerrors.ErrPricing.Wrapf("login to %s rejected", p.name)
	}

	alias, _ := currentUsername()
	description := NewElement("ServiceDescription").
		Set("username", p.cfg.Username).
		Set("alias", alias).
		Set("server", "false").
		Set("discoverable", "false")
	_, err = conn.Write([]byte(description.String()))
	if err != nil {
		return pricingerrors.ErrTransport.Wrapf("failed to send service description: %v", err)
	}
	return nil
}

func (p *Provider) sendLoginMessage(conn net.Conn, publicKey string) error {
	password := p.cfg.Password
	if publicKey != "" {
		encrypted, err := encryptPassword(publicKey, password)
		if err != nil {
			return err
		}
		password = encrypted
	}
	alias, _ := currentUsername()
	login := NewElement("Login").
		Set("Name", p.cfg.Username).
		Set("Password", password).
		Set("Version", strconv.Itoa(currentProtocolVersion)).
		Set("Description", pricing.APIName+" "+pricing.APIVersion).
		Set("Alias", alias)
	if _, err := conn.Write([]byte(login.String())); err != nil {
		return pricingerrors.ErrTransport.Wrapf("failed to send login message: %v", err)
	}
	return nil
}

// encryptPassword RSA-encrypts password with the server's base64-encoded
// PKCS#1 public key, mirroring puffin_provider.py's _encrypted_password.
func encryptPassword(publicKeyB64, password string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(publicKeyB64)
	if err != nil {
		return "", pricingerrors.ErrPricing.Wrapf("invalid base64 public key: %v", err)
	}
	pub, err := x509.ParsePKCS1PublicKey(raw)
	if err != nil {
		return "", pricingerrors.ErrPricing.Wrapf("invalid RSA public key: %v", err)
	}
	encrypted, err := rsa.EncryptPKCS1v15(rand.Reader, pub, []byte(password))
	if err != nil {
		return "", pricingerrors.ErrPricing.Wrapf("failed to encrypt password: %v", err)
	}
	return base64.StdEncoding.EncodeToString(encrypted), nil
}

func currentUsername() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

func (p *Provider) readLoop(ctx context.Context, conn net.Conn) {
	for {
		if ctx.Err() != nil {
			return
		}
		message, err := p.decompressor.DecompressMessage()
		if err != nil {
			p.publishProviderStatus(pricing.ProviderDown, fmt.Sprintf("connection error due to: %v", err))
			p.notifyAllSubjectsAsStale(fmt.Sprintf("price provider %s is down", p.name))
			conn.Close()
			return
		}
		p.handleReceivedMessage(message)
	}
}

func (p *Provider) handleReceivedMessage(message *Element) {
	switch message.Tag {
	case "Update":
		p.handlePriceUpdateMessage(message, false)
	case "Set":
		p.handlePriceUpdateMessage(message, true)
	case "Status":
		p.handlePriceStatusMessage(message)
	case "Heartbeat":
		p.handleHeartbeatMessage()
	}
}

func (p *Provider) handlePriceUpdateMessage(message *Element, full bool) {
	subject, ok := p.subjectFromMessage(message)
	if !ok {
		return
	}
	price := pricing.Price(message.ExtractPrice())
	p.callbacks.FirePrice(pricing.PriceEvent{Subject: subject, Price: price, Full: full})
}

func (p *Provider) handlePriceStatusMessage(message *Element) {
	subject, ok := p.subjectFromMessage(message)
	if !ok {
		return
	}
	id, err := strconv.Atoi(message.Get("Id", ""))
	if err != nil {
		return
	}
	status := adaptStatus(id)
	p.publishSubscriptionStatus(subject, status, message.Get("Text", ""))
}

func (p *Provider) handleHeartbeatMessage() {
	p.sendMessage(NewElement("Heartbeat"), true)
}

func (p *Provider) subjectFromMessage(message *Element) (pricing.Subject, bool) {
	subjectStr, ok := message.Attribute("Subject")
	if !ok {
		return pricing.Subject{}, false
	}
	return p.subs.subjectFromString(subjectStr)
}

func (p *Provider) sendMessage(message *Element, compress bool) {
	p.mu.Lock()
	compressor := p.compressor
	conn := p.conn
	p.mu.Unlock()
	if conn == nil {
		return
	}
	p.logger.Debug().Str("message", message.String()).Msg("sending")
	var err error
	if compress && compressor != nil {
		err = compressor.CompressMessage(message)
	} else {
		_, err = conn.Write([]byte(message.String()))
	}
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to send message")
	}
}

func (p *Provider) publishProviderStatus(status pricing.ProviderStatus, reason string) {
	event := pricing.ProviderEvent{Provider: p.name, Status: status, Explanation: reason}
	p.logger.Info().Str("event", event.String()).Msg("provider status")
	p.callbacks.FireProvider(event)
}

func (p *Provider) publishSubscriptionStatus(subject pricing.Subject, status pricing.SubscriptionStatus, explanation string) {
	event := pricing.SubscriptionEvent{Subject: subject, Status: status, Explanation: explanation}
	p.logger.Info().Str("event", event.String()).Msg("subscription status")
	p.callbacks.FireSubscription(event)
}

func (p *Provider) notifyAllSubjectsAsStale(explanation string) {
	for _, subject := range p.subs.activeSubjects() {
		p.publishSubscriptionStatus(subject, pricing.SubStale, explanation)
	}
}

func (p *Provider) refreshSubscriptions() {
	for _, subject := range p.subs.activeSubjects() {
		p.sendSubscribe(subject)
	}
}

func (p *Provider) sendSubscribe(subject pricing.Subject) {
	p.mu.Lock()
	connected := p.conn != nil
	p.mu.Unlock()
	if connected {
		p.sendMessage(NewElement("Subscribe").Set("Subject", subject.String()), true)
	}
}

func (p *Provider) sendUnsubscribe(subject pricing.Subject) {
	p.mu.Lock()
	connected := p.conn != nil
	p.mu.Unlock()
	if connected {
		p.sendMessage(NewElement("Unsubscribe").Set("Subject", subject.String()), true)
	}
}
