package application

import (
	"sort"

	"github.com/vigil-network/vigil-daemon/internal/core/domain"
	"github.com/vigil-network/vigil-daemon/internal/core/ports"
)

// CipherInput pairs the sealed blob of a confidential value with the proof
// binding it to the party that submits it. Blobs are produced off-system by
// the party's client, the daemon never sees the plaintext.
type CipherInput struct {
	Blob  []byte
	Proof []byte
}

// EntityInfo contains the public metadata of a stored watchlist entity.
type EntityInfo struct {
	ID        uint64
	CreatedAt int64
}

// CheckInfo contains the public metadata of a recorded screening check.
// Status is the handle of the confidential verdict, decryptable only by
// parties holding a capability for it.
type CheckInfo struct {
	ID        uint64
	Submitter string
	Status    string
	CreatedAt int64
}

func newCheckInfo(check *domain.Check) *CheckInfo {
	return &CheckInfo{
		ID:        check.ID,
		Submitter: check.Submitter.String(),
		Status:    check.Status.Handle,
		CreatedAt: check.CreatedAt,
	}
}

// AccessInfo contains the public view of the access registry roles. The
// curator list holds the explicit entries only, the owner is a curator
// whether or not it appears there.
type AccessInfo struct {
	Owner    string
	Curators []string
}

func newAccessInfo(state *domain.AccessState) *AccessInfo {
	curators := make([]string, 0, len(state.Curators))
	for curator := range state.Curators {
		curators = append(curators, curator.String())
	}
	sort.Strings(curators)

	return &AccessInfo{
		Owner:    state.Owner.String(),
		Curators: curators,
	}
}

// GrantInfo contains the public metadata of a verdict visibility grant.
type GrantInfo struct {
	CheckID   uint64
	Grantee   string
	CreatedAt int64
}

// WebhookInfo contains the info of a registered webhook.
type WebhookInfo struct {
	ID       string
	Topic    string
	Endpoint string
	Secured  bool
}

func newWebhookInfo(sub ports.Subscription) WebhookInfo {
	return WebhookInfo{
		ID:       sub.Id(),
		Topic:    sub.Topic(),
		Endpoint: sub.NotifyAt(),
		Secured:  sub.IsSecured(),
	}
}

// RegistryInfo is the public summary of the registry state.
type RegistryInfo struct {
	Owner       string
	EntityCount uint64
	CheckCount  uint64
	BuildInfo   BuildInfo
}

// BuildInfo holds the daemon version infos injected at build time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}
