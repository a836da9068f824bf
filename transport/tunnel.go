package transport

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"net"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bidfx-oss/pricing-go/pricingerrors"
)

// tunnelToService performs the HTTP/1.1 CONNECT handshake described in the
// design: a pseudo-host of "static://<service>", Basic auth from
// username/password, and a GUID header identifying the client. The response
// must contain "200 OK".
func tunnelToService(conn net.Conn, service, username, password, guid string, logger zerolog.Logger) error {
	logger.Info().Str("service", service).Msg("tunnelling to service")

	credentials := base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%s:%s", username, password)))
	request := fmt.Sprintf(
		"CONNECT static://%s HTTP/1.1\r\nAuthorization: Basic %s\r\nGUID: %s\r\n\r\n",
		service, credentials, guid,
	)

	if _, err := conn.Write([]byte(request)); err != nil {
		return pricingerrors.ErrTransport.Wrapf("failed to send tunnel request: %v", err)
	}

	reader := bufio.NewReader(conn)
	statusLine, err := reader.ReadString('\n')
	if err != nil {
		return pricingerrors.ErrTransport.Wrapf("failed to read tunnel response: %v", err)
	}
	// Drain the remaining header lines up to the blank line terminator.
	for {
		line, err := reader.ReadString('\n')
		if err != nil || strings.TrimRight(line, "\r\n") == "" {
			break
		}
	}

	logger.Debug().Str("status_line", strings.TrimSpace(statusLine)).Msg("received tunnel response")
	if !strings.Contains(statusLine, "200 OK") {
		logger.Warn().Str("status_line", strings.TrimSpace(statusLine)).Msg("tunnel returned non-200 status")
		return pricingerrors.ErrTransport.Wrapf("tunnel returned non-200 status: %s", strings.TrimSpace(statusLine))
	}
	return nil
}
