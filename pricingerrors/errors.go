// Package pricingerrors defines the abstract error taxonomy from the design
// (ConfigError, InvalidSubjectError, PricingError, IncompatibleVersionError,
// TransportError) as cosmossdk.io/errors registries, following the pattern
// in the teacher's oracle/types/errors.go.
package pricingerrors

import (
	"cosmossdk.io/errors"
)

const ModuleName = "pricing"

var (
	// ErrConfig signals missing or invalid configuration; fatal at
	// construction.
	ErrConfig = errors.Register(ModuleName, 2, "configuration error")

	// ErrInvalidSubject signals a SubjectBuilder validation failure. It never
	// crosses a provider's reader goroutine; it is returned synchronously
	// from CreateSubject.
	ErrInvalidSubject = errors.Register(ModuleName, 3, "invalid subject")

	// ErrPricing is the general protocol/decode failure kind; it aborts the
	// current connection.
	ErrPricing = errors.Register(ModuleName, 4, "pricing protocol error")

	// ErrIncompatibleVersion signals a protocol version mismatch; fatal for
	// the session, reported, then the reconnect loop continues.
	ErrIncompatibleVersion = errors.Register(ModuleName, 5, "incompatible protocol version")

	// ErrTransport wraps socket-level failures: TLS handshake, certificate
	// validation, tunnel rejection, end-of-stream.
	ErrTransport = errors.Register(ModuleName, 6, "transport error")
)
