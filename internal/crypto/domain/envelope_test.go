package domain

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/allisson/billvault/internal/errors"
)

func TestEnvelopePayload(t *testing.T) {
	iv := bytes.Repeat([]byte{1}, IVSize)
	ct := bytes.Repeat([]byte{2}, 32)
	env := &Envelope{IV: iv, Ciphertext: ct, WrappedKey: []byte("wk")}

	payload := env.Payload()
	require.Len(t, payload, IVSize+32)

	parsed, err := EnvelopeFromPayload(payload, []byte("wk"))
	require.NoError(t, err)
	assert.Equal(t, iv, parsed.IV)
	assert.Equal(t, ct, parsed.Ciphertext)
	assert.Equal(t, []byte("wk"), parsed.WrappedKey)
}

func TestEnvelopeFromPayload_TooShort(t *testing.T) {
	_, err := EnvelopeFromPayload(make([]byte, IVSize), nil)
	assert.ErrorIs(t, err, ErrMalformedEnvelope)
	assert.True(t, apperrors.Is(err, apperrors.ErrIntegrity))
}

func TestStoredField_ValueScan(t *testing.T) {
	t.Run("Success_RoundTrip", func(t *testing.T) {
		field := StoredField{Data: "ZGF0YQ==", Key: "a2V5"}

		v, err := field.Value()
		require.NoError(t, err)
		assert.JSONEq(t, `{"data":"ZGF0YQ==","key":"a2V5"}`, v.(string))

		var scanned StoredField
		require.NoError(t, scanned.Scan([]byte(v.(string))))
		assert.Equal(t, field, scanned)
	})

	t.Run("Success_ZeroIsNull", func(t *testing.T) {
		v, err := StoredField{}.Value()
		require.NoError(t, err)
		assert.Nil(t, v)

		scanned := StoredField{Data: "x"}
		require.NoError(t, scanned.Scan(nil))
		assert.True(t, scanned.IsZero())
	})

	t.Run("Error_UnsupportedType", func(t *testing.T) {
		var scanned StoredField
		assert.Error(t, scanned.Scan(42))
	})
}
