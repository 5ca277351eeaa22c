package domain

import "github.com/awnumar/memguard"

// Zero wipes b in place. Plaintext data keys are zeroed this way once an
// encrypt or decrypt call is done with them.
func Zero(b []byte) {
	if len(b) > 0 {
		memguard.WipeBytes(b)
	}
}
