// Package fingerprint derives stable cache keys for narration requests.
package fingerprint

import "strconv"

// keyPrefix namespaces narration keys so they can share a bucket or cache
// directory with other object types.
const keyPrefix = "tts_"

// DeriveKey returns a short, deterministic fingerprint for a (text, voice)
// pair. The same pair always yields the same key; distinct pairs yield
// distinct keys with high probability.
//
// The hash is a djb2-style rolling hash folded into 32 bits and rendered in
// base 36. It is intentionally non-cryptographic: a collision means two
// narrations share a cache slot, which is a cache-correctness risk we accept,
// not a security boundary.
func DeriveKey(text, voice string) string {
	var h int32
	for _, r := range text + ":" + voice {
		h = (h << 5) - h + int32(r)
	}

	v := int64(h)
	if v < 0 {
		v = -v
	}
	return keyPrefix + strconv.FormatInt(v, 36)
}
