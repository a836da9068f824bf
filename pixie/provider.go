package pixie

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os/user"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bidfx-oss/pricing-go/config"
	"github.com/bidfx-oss/pricing-go/codec"
	"github.com/bidfx-oss/pricing-go/pricing"
	"github.com/bidfx-oss/pricing-go/pricingerrors"
	"github.com/bidfx-oss/pricing-go/transport"
)

// currentProtocolVersion is the Pixie protocol version this client
// negotiates, ported from pixie_provider.py's CURRENT_PROTOCOL_VERSION.
const currentProtocolVersion = 4

var instanceCount int

// Provider is the Pixie protocol implementation of pricing.Provider, ported
// from pixie_provider.py's PixieProvider. Only level=1 subscriptions are
// supported, mirroring the source's subscribe() check.
type Provider struct {
	name      string
	cfg       config.Provider
	callbacks *pricing.Callbacks
	register  *SubscriptionRegister
	logger    zerolog.Logger

	mu           sync.Mutex
	conn         net.Conn
	decompressor *codec.DecompressorStream
	dictionary   DataDictionary
	lastWrite    time.Time
	running      bool
	cancel       context.CancelFunc
}

// NewProvider constructs a Pixie Provider from cfg, matching the
// construction signature session.New wires every protocol provider through.
func NewProvider(cfg config.Provider, callbacks *pricing.Callbacks) (pricing.Provider, error) {
	instanceCount++
	name := fmt.Sprintf("Pixie-%d", instanceCount)
	return &Provider{
		name:      name,
		cfg:       cfg,
		callbacks: callbacks,
		register:  NewSubscriptionRegister(),
		logger:    log.With().Str("provider", name).Logger(),
	}, nil
}

// Start launches the background connection-and-reconnect loop, mirroring
// PixieProvider.start's daemon reader thread.
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

// Subscribe queues subject for the next subscription sync. Only level=1
// subscriptions are supported by Pixie.
func (p *Provider) Subscribe(subject pricing.Subject) {
	p.logger.Info().Str("subject", subject.String()).Msg("subscribe")
	level := subject.Get(pricing.KeyLevel, "1")
	if level != "1" {
		p.logger.Warn().Str("subject", subject.String()).Msgf("the Pixie protocol does not yet support level=%s subscriptions", level)
		return
	}
	p.register.Subscribe(subject)
}

// Unsubscribe queues subject's removal for the next subscription sync.
func (p *Provider) Unsubscribe(subject pricing.Subject) {
	p.logger.Info().Str("subject", subject.String()).Msg("unsubscribe")
	p.register.Unsubscribe(subject)
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
	p.decompressor = codec.NewDecompressorStream()
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

	p.sendMessage(conn, TagSubscriptionSync, NewSubscriptionSyncMessage(1, nil).Encode())

	p.publishProviderStatus(pricing.ProviderReady, "")
	p.readLoop(ctx, conn, reader)
}

func (p *Provider) openConnection() (net.Conn, error) {
	connector := transport.NewConnector(p.cfg.Host, p.cfg.Port, p.cfg.Username, p.cfg.Password, pricing.InstanceGUID, p.cfg.ValidCN, p.cfg.ValidRootCert)
	readTimeout := p.cfg.HeartbeatInterval * 2
	if p.cfg.Tunnel {
		return connector.TunnelSocketToService(p.cfg.Service, readTimeout)
	}
	return connector.DirectSocketToService(readTimeout)
}

func (p *Provider) sendProtocolSignature(conn net.Conn) error {
	signature := fmt.Sprintf("pixie://localhost?version=%d&heartbeat=%d&idle=120&minti=%d\n",
		currentProtocolVersion, int64(p.cfg.HeartbeatInterval/time.Second), int64(p.cfg.MinInterval/time.Millisecond))
	if _, err := conn.Write([]byte(signature)); err != nil {
		return pricingerrors.ErrTransport.Wrapf("failed to send protocol signature: %v", err)
	}
	return nil
}

func (p *Provider) loginIntoServer(conn net.Conn, reader *bufio.Reader) error {
	tag, body, err := ReadFrame(reader)
	if err != nil {
		return err
	}
	if tag != TagWelcome {
		return pricingerrors.ErrPricing.Wrapf("%s expected a Welcome message but got %q", p.name, tag)
	}
	welcome, err := DecodeWelcomeMessage(body)
	if err != nil {
		return err
	}
	p.logger.Debug().Uint64("version", welcome.Version).Msg("received welcome message")
	if welcome.Version != currentProtocolVersion {
		return pricingerrors.ErrIncompatibleVersion.Wrapf(
			"a server negotiating Pixie protocol version %d is incompatible with this API client on version %d",
			welcome.Version, currentProtocolVersion)
	}

	alias, _ := currentUsername()
	login := &LoginMessage{
		Username:           p.cfg.Username,
		Password:           p.cfg.Password,
		Alias:              alias,
		APIName:            pricing.APIName,
		APIVersion:         pricing.APIVersion,
		ApplicationName:    pricing.APIName,
		ApplicationVersion: pricing.APIVersion,
		Product:            "",
		ProductSerial:      p.cfg.ProductSerial,
	}
	if err := p.sendMessage(conn, TagLogin, login.Encode()); err != nil {
		return err
	}

	tag, body, err = ReadFrame(reader)
	if err != nil {
		return err
	}
	if tag != TagGrant {
		return pricingerrors.ErrPricing.Wrapf("%s expected a Grant message but got %q", p.name, tag)
	}
	grant, err := DecodeGrantMessage(body)
	if err != nil {
		return err
	}
	p.logger.Debug().Bool("granted", grant.Granted).Msg("received grant message")
	if !grant.Granted {
		return pricingerrors.ErrPricing.Wrapf("login to %s rejected due to %s", p.name, grant.Reason)
	}

	tag, body, err = ReadFrame(reader)
	if err != nil {
		return err
	}
	if tag != TagDataDictionary {
		return pricingerrors.ErrPricing.Wrapf("%s expected a Data Dictionary message but got %q", p.name, tag)
	}
	return p.handleDataDictionaryMessage(body)
}

func currentUsername() (string, error) {
	u, err := user.Current()
	if err != nil {
		return "", err
	}
	return u.Username, nil
}

func (p *Provider) readLoop(ctx context.Context, conn net.Conn, reader *bufio.Reader) {
	for {
		if ctx.Err() != nil {
			return
		}
		tag, body, err := ReadFrame(reader)
		if err != nil {
			p.publishProviderStatus(pricing.ProviderDown, fmt.Sprintf("connection error due to: %v", err))
			p.notifyAllSubjectsAsStale(fmt.Sprintf("price provider %s is down", p.name))
			conn.Close()
			return
		}
		p.handleReceivedMessage(conn, tag, body)
	}
}

func (p *Provider) handleReceivedMessage(conn net.Conn, tag Tag, body []byte) {
	switch tag {
	case TagPriceSync:
		p.handlePriceSyncMessage(conn, body)
	case TagDataDictionary:
		if err := p.handleDataDictionaryMessage(body); err != nil {
			p.logger.Warn().Err(err).Msg("failed to handle data dictionary message")
		}
	case TagHeartbeat:
		p.logger.Debug().Msg("received heartbeat")
	}
}

func (p *Provider) handlePriceSyncMessage(conn net.Conn, body []byte) {
	priceReceivedTime := uint64(time.Now().UnixMilli())
	p.mu.Lock()
	decompressor := p.decompressor
	dict := p.dictionary
	p.mu.Unlock()

	priceSync, err := DecodePriceSyncMessage(body, decompressor)
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to decode price sync message")
		return
	}
	subjects, err := p.register.SubjectsForEdition(priceSync.Edition)
	if err != nil {
		p.logger.Warn().Err(err).Msg("failed to resolve subjects for price sync edition")
		return
	}
	if err := priceSync.VisitUpdates(subjects, dict, p.callbacks); err != nil {
		p.logger.Warn().Err(err).Msg("failed to visit price sync updates")
		return
	}

	ack := NewAckMessage(priceSync.Revision, priceSync.RevisionTime, priceReceivedTime, uint64(time.Now().UnixMilli()))
	if err := p.sendMessage(conn, TagAck, ack.Encode()); err != nil {
		p.logger.Warn().Err(err).Msg("failed to send ack message")
	}
	p.afterPriceSync(conn, priceSync.Edition)
}

func (p *Provider) afterPriceSync(conn net.Conn, edition uint64) {
	p.register.PurgeEditionsBefore(edition)
	subscriptionSync := p.register.SubscriptionSync()
	if subscriptionSync != nil {
		if err := p.sendMessage(conn, TagSubscriptionSync, subscriptionSync.Encode()); err != nil {
			p.logger.Warn().Err(err).Msg("failed to send subscription sync message")
		}
		return
	}
	p.checkHeartbeat(conn)
}

func (p *Provider) handleDataDictionaryMessage(body []byte) error {
	p.mu.Lock()
	decompressor := p.decompressor
	p.mu.Unlock()

	msg, err := DecodeDataDictionaryMessage(body, decompressor)
	if err != nil {
		return err
	}
	p.logger.Debug().Int("fields", len(msg.Fields)).Bool("updated", msg.Updated).Msg("received data dictionary message")

	p.mu.Lock()
	defer p.mu.Unlock()
	if msg.Updated && p.dictionary != nil {
		p.dictionary.Merge(msg.ToDict())
	} else {
		p.dictionary = msg.ToDict()
	}
	return nil
}

func (p *Provider) sendMessage(conn net.Conn, tag Tag, body []byte) error {
	p.logger.Debug().Str("tag", string(tag)).Msg("sending")
	frame := EncodeFrame(tag, body)
	if _, err := conn.Write(frame); err != nil {
		return pricingerrors.ErrTransport.Wrapf("failed to write to socket: %v", err)
	}
	p.mu.Lock()
	p.lastWrite = time.Now()
	p.mu.Unlock()
	return nil
}

func (p *Provider) checkHeartbeat(conn net.Conn) {
	p.mu.Lock()
	lastWrite := p.lastWrite
	p.mu.Unlock()
	if time.Since(lastWrite) > p.cfg.HeartbeatInterval {
		if err := p.sendMessage(conn, TagHeartbeat, HeartbeatMessage{}.Encode()); err != nil {
			p.logger.Warn().Err(err).Msg("failed to send heartbeat message")
		}
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
	subjects := p.register.ResetAndGetSubjects()
	for _, subject := range subjects {
		p.publishSubscriptionStatus(subject, pricing.SubStale, explanation)
	}
}
