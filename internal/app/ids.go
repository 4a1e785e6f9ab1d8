package app

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/quaxyz/checkout/internal/domain"
)

// publicIDAlphabet is the restricted set used for URL-facing order
// identifiers. Ambiguous characters (0, O, I, l) are excluded.
const publicIDAlphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

const publicIDLength = 12

type orderDigest struct {
	Items     []domain.LineItem       `json:"items"`
	Breakdown domain.PricingBreakdown `json:"breakdown"`
	Timestamp int64                   `json:"timestamp"`
	StoreID   string                  `json:"store_id"`
}

// contentHash digests an order's priced contents at creation time. The
// digest doubles as the idempotency key: a byte-identical resubmission
// produces the same hash and therefore the same order.
func contentHash(items []domain.LineItem, breakdown domain.PricingBreakdown, ts time.Time, storeID string) (string, error) {
	payload, err := json.Marshal(orderDigest{
		Items:     items,
		Breakdown: breakdown,
		Timestamp: ts.Unix(),
		StoreID:   storeID,
	})
	if err != nil {
		return "", fmt.Errorf("marshal order digest: %w", err)
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

// publicIDFromHash derives the public order identifier from the content
// hash. Deterministic on purpose: the upsert keyed on this identifier
// is what makes duplicate submissions collapse into one order.
func publicIDFromHash(hash string) string {
	raw, err := hex.DecodeString(hash)
	if err != nil || len(raw) < publicIDLength {
		raw = []byte(hash)
	}
	id := make([]byte, publicIDLength)
	for i := 0; i < publicIDLength; i++ {
		id[i] = publicIDAlphabet[int(raw[i])%len(publicIDAlphabet)]
	}
	return string(id)
}
