package signing

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/quaxyz/checkout/internal/clock"
	"github.com/quaxyz/checkout/internal/domain"
)

// Domain scopes a signature to one application surface so a message
// signed for checkout cannot be replayed against store setup.
type Domain struct {
	Name    string
	Version string
}

// Message is a timestamped, domain-scoped, typed payload together with
// the signature produced over it. Messages are ephemeral and never
// persisted.
type Message struct {
	Domain         Domain
	Payload        json.RawMessage
	Timestamp      time.Time
	Signature      []byte
	ClaimedAddress string
}

// AddressRecoverer recovers the signer address from payload and
// signature. The cryptographic primitive is an injected capability; the
// verifier owns only the window, domain, and address checks.
type AddressRecoverer interface {
	RecoverAddress(ctx context.Context, msg Message) (string, error)
}

// DefaultMaxSkew bounds how far a message timestamp may drift from the
// server clock in either direction.
const DefaultMaxSkew = 180 * time.Second

// Verifier validates signed messages for every signature-authenticated
// flow: checkout, order cancellation, store setup, and signing-key
// registration. Each flow supplies its own expected domain; the
// algorithm is shared.
type Verifier struct {
	recoverer AddressRecoverer
	clock     clock.Clock
	maxSkew   time.Duration
}

func NewVerifier(recoverer AddressRecoverer, clk clock.Clock, opts ...VerifierOption) *Verifier {
	v := &Verifier{
		recoverer: recoverer,
		clock:     clk,
		maxSkew:   DefaultMaxSkew,
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

type VerifierOption func(*Verifier)

// WithMaxSkew overrides the timestamp validity window.
func WithMaxSkew(d time.Duration) VerifierOption {
	return func(v *Verifier) {
		if d > 0 {
			v.maxSkew = d
		}
	}
}

// Verify checks the message timestamp window, the signing domain, and
// that the recovered signer matches expectedAddress. When
// expectedAddress is empty the claimed address inside the message is
// used instead, which is the wallet-login case where the payload itself
// names the signer.
func (v *Verifier) Verify(ctx context.Context, msg Message, expected Domain, expectedAddress string) error {
	drift := msg.Timestamp.Sub(v.clock.Now())
	if drift > v.maxSkew || drift < -v.maxSkew {
		return domain.ErrStaleTimestamp
	}

	if msg.Domain.Name != expected.Name || msg.Domain.Version != expected.Version {
		return domain.ErrWrongDomain
	}

	signer, err := v.recoverer.RecoverAddress(ctx, msg)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidSignature, err)
	}

	want := expectedAddress
	if want == "" {
		want = msg.ClaimedAddress
	}
	if want == "" || !strings.EqualFold(signer, want) {
		return domain.ErrInvalidSignature
	}
	return nil
}
