package pricing

import "github.com/google/uuid"

// APIName and APIVersion identify this client to upstream pricing services,
// ported from bidfx/_bidfx_api.py's _BidFxAPI.
const (
	APIName    = "pricing-go"
	APIVersion = "1.0.0"
)

// InstanceGUID uniquely identifies this running process to a tunnelling
// proxy, the Go analogue of _BidFxAPI's per-process uuid4 guid.
var InstanceGUID = uuid.New().String()
