// Package transport implements the TLS-secured, optionally tunnelled socket
// connection used by both pricing providers, grounded on
// bidfx/pricing/_service_connector.py's ServiceConnector and adapted to the
// teacher's connect/dial idiom (explicit error returns, context-bounded
// dialing, zerolog sub-loggers).
package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bidfx-oss/pricing-go/pricingerrors"
)

// cipherSuites mirrors the source's restricted CIPHER_SUITES list, translated
// to Go's crypto/tls identifiers. Go's tls package only exposes the modern
// ECDHE AEAD and CBC suites it still supports for TLS 1.2; the source's
// legacy DHE/EDH-RSA entries have no crypto/tls equivalent and are omitted
// since the stdlib refuses to configure them.
var cipherSuites = []uint16{
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_ECDSA_WITH_AES_256_CBC_SHA,
	tls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384,
	tls.TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA,
}

// Connector opens a TLS-secured, optionally tunnelled connection to a
// pricing service, the Go analogue of ServiceConnector.
type Connector struct {
	Host          string
	Port          int
	Username      string
	Password      string
	GUID          string
	ValidCN       string
	ValidRootCert string

	logger zerolog.Logger
}

// NewConnector constructs a Connector for the given endpoint and
// credentials.
func NewConnector(host string, port int, username, password, guid, validCN, validRootCert string) *Connector {
	return &Connector{
		Host:          host,
		Port:          port,
		Username:      username,
		Password:      password,
		GUID:          guid,
		ValidCN:       validCN,
		ValidRootCert: validRootCert,
		logger:        log.With().Str("component", "transport").Str("host", host).Logger(),
	}
}

// DirectSocketToService opens a secure socket straight to the service,
// without an HTTP CONNECT tunnel.
func (c *Connector) DirectSocketToService(readTimeout time.Duration) (net.Conn, error) {
	conn, err := c.openSecureSocket(readTimeout)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// TunnelSocketToService opens a secure socket and then performs an HTTP
// CONNECT tunnel handshake to reach service.
func (c *Connector) TunnelSocketToService(service string, readTimeout time.Duration) (net.Conn, error) {
	conn, err := c.openSecureSocket(readTimeout)
	if err != nil {
		return nil, err
	}
	if err := tunnelToService(conn, service, c.Username, c.Password, c.GUID, c.logger); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

func (c *Connector) address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *Connector) openSecureSocket(readTimeout time.Duration) (*tls.Conn, error) {
	c.logger.Info().Str("user", c.Username).Msg("opening a secure connection")

	tlsConfig, err := c.buildTLSConfig()
	if err != nil {
		return nil, err
	}

	dialer := net.Dialer{Timeout: readTimeout}
	rawConn, err := dialer.Dial("tcp", c.address())
	if err != nil {
		return nil, pricingerrors.ErrTransport.Wrapf("could not open socket to %s: %v", c.address(), err)
	}

	conn := tls.Client(rawConn, tlsConfig)
	if err := conn.Handshake(); err != nil {
		rawConn.Close()
		return nil, pricingerrors.ErrTransport.Wrapf("TLS handshake with %s failed: %v", c.address(), err)
	}
	if err := validateCertificate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// buildTLSConfig constructs the restricted-cipher TLS 1.2 configuration,
// loading a custom root CA when one has been configured.
func (c *Connector) buildTLSConfig() (*tls.Config, error) {
	hostName := c.ValidCN
	if hostName == "" {
		hostName = c.Host
	}
	c.logger.Info().Str("server_name", hostName).Msg("wrapping socket with TLS")

	cfg := &tls.Config{
		MinVersion:   tls.VersionTLS12,
		MaxVersion:   tls.VersionTLS12,
		CipherSuites: cipherSuites,
		ServerName:   hostName,
	}

	if c.ValidRootCert != "" {
		c.logger.Info().Str("path", c.ValidRootCert).Msg("loading custom root certificate")
		pem, err := os.ReadFile(c.ValidRootCert)
		if err != nil {
			return nil, pricingerrors.ErrTransport.Wrapf("could not read root certificate %s: %v", c.ValidRootCert, err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, pricingerrors.ErrTransport.Wrapf("no valid certificates found in %s", c.ValidRootCert)
		}
		cfg.RootCAs = pool
	}

	return cfg, nil
}

// validateCertificate checks the peer certificate's validity window, the
// Go analogue of the source's explicit notBefore/notAfter check (crypto/tls
// already verified the chain and hostname during Handshake).
func validateCertificate(conn *tls.Conn) error {
	state := conn.ConnectionState()
	if len(state.PeerCertificates) == 0 {
		return pricingerrors.ErrTransport.Wrap("no peer certificate presented")
	}
	cert := state.PeerCertificates[0]
	now := time.Now()
	if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
		return pricingerrors.ErrTransport.Wrap("certificate expired")
	}
	return nil
}
