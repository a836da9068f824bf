package transport

import (
	"bufio"
	"net"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTLSConfigDefaultsHostnameToHost(t *testing.T) {
	c := NewConnector("pricing.example.com", 443, "trader1", "secret", "guid-1", "", "")
	cfg, err := c.buildTLSConfig()
	require.NoError(t, err)
	assert.Equal(t, "pricing.example.com", cfg.ServerName)
	assert.NotEmpty(t, cfg.CipherSuites)
}

func TestBuildTLSConfigUsesValidCN(t *testing.T) {
	c := NewConnector("10.0.0.1", 443, "trader1", "secret", "guid-1", "pricing.example.com", "")
	cfg, err := c.buildTLSConfig()
	require.NoError(t, err)
	assert.Equal(t, "pricing.example.com", cfg.ServerName)
}

func TestBuildTLSConfigRejectsMissingRootCert(t *testing.T) {
	c := NewConnector("pricing.example.com", 443, "trader1", "secret", "guid-1", "", "/no/such/file.pem")
	_, err := c.buildTLSConfig()
	assert.Error(t, err)
}

func TestTunnelToServiceSucceedsOn200(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		reader := bufio.NewReader(server)
		reader.ReadString('\n')
		for {
			line, err := reader.ReadString('\n')
			if err != nil || line == "\r\n" {
				break
			}
		}
		server.Write([]byte("HTTP/1.1 200 OK\r\n\r\n"))
	}()

	err := tunnelToService(client, "highway", "trader1", "secret", "guid-1", zerolog.Nop())
	assert.NoError(t, err)
}

func TestTunnelToServiceFailsOnNon200(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		reader := bufio.NewReader(server)
		reader.ReadString('\n')
		for {
			line, err := reader.ReadString('\n')
			if err != nil || line == "\r\n" {
				break
			}
		}
		server.Write([]byte("HTTP/1.1 403 Forbidden\r\n\r\n"))
	}()

	err := tunnelToService(client, "highway", "trader1", "secret", "guid-1", zerolog.Nop())
	assert.Error(t, err)
}
