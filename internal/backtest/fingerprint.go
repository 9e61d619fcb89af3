package backtest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/openquant/hindsight/internal/core"
)

// fingerprintLen is the number of hex characters kept from the digest.
const fingerprintLen = 16

// Fingerprint returns a deterministic digest of a price series used to
// detect when cached results are stale. It covers the series length and
// the last bar's date and close, so both an appended bar and a historical
// correction that shifts the tail produce a new fingerprint.
func Fingerprint(bars []core.PriceBar) string {
	h := sha256.New()
	fmt.Fprintf(h, "n=%d", len(bars))
	if len(bars) > 0 {
		last := bars[len(bars)-1]
		fmt.Fprintf(h, "|%s|%.6f", last.Date.UTC().Format("2006-01-02"), last.Close)
	}
	return hex.EncodeToString(h.Sum(nil))[:fingerprintLen]
}
