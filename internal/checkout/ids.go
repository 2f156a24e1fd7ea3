package checkout

import (
	"crypto/rand"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"
)

const orderIDPrefix = "KS"

// NewOrderID returns KS-<yyyymmdd>-<8 hex>.
func NewOrderID(now time.Time) string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		id := uuid.New()
		copy(buf, id[:4])
	}
	return orderIDPrefix + "-" + now.UTC().Format("20060102") + "-" + hex.EncodeToString(buf)
}

// NewPaymentReference returns a Paystack transaction reference.
func NewPaymentReference() string {
	return "ks_" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
