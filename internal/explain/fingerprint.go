package explain

import (
	"crypto/sha256"
	"encoding/hex"
	"io"

	"github.com/suhasramanand/homefit-sub000/internal/types"
)

// Fingerprint derives a stable cache key from a listing identity and a
// normalized preference snapshot. Two preference sets that differ only in
// the ordering of their amenity or neighborhood lists fingerprint
// identically; any change to a scorable field produces a new fingerprint.
func Fingerprint(listing types.Listing, prefs types.PreferenceSet) string {
	h := sha256.New()
	io.WriteString(h, listing.ID.String())        //nolint:errcheck // hash writes cannot fail
	io.WriteString(h, "|")                        //nolint:errcheck
	io.WriteString(h, prefs.NormalizedSnapshot()) //nolint:errcheck
	return hex.EncodeToString(h.Sum(nil))
}
