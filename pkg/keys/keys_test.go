package keys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKey_BothAlgorithms(t *testing.T) {
	for _, alg := range []Algorithm{P256SHA256, P384SHA384} {
		t.Run(string(alg), func(t *testing.T) {
			priv, err := GenerateKey(alg)
			require.NoError(t, err)
			assert.Equal(t, "EC", priv.KTY)
			assert.NotEmpty(t, priv.Kid)
			assert.NotEmpty(t, priv.D)

			pub := priv.ExportPublic()
			assert.Equal(t, priv.Kid, pub.Kid, "exporting the public key preserves kid")
			assert.Equal(t, priv.X, pub.X)
			assert.Equal(t, priv.Y, pub.Y)
		})
	}
}

func TestThumbprint_IsFunctionOfPublicComponentsOnly(t *testing.T) {
	priv, err := GenerateKey(P256SHA256)
	require.NoError(t, err)

	kid1, err := Thumbprint(priv.ExportPublic())
	require.NoError(t, err)

	// Same x/y/crv/kty with Kid cleared must produce the same thumbprint:
	// Kid is not one of the thumbprinted members.
	other := priv.ExportPublic()
	other.Kid = ""
	kid2, err := Thumbprint(other)
	require.NoError(t, err)

	assert.Equal(t, kid1, kid2)
}

func TestThumbprint_DiffersAcrossKeys(t *testing.T) {
	k1, err := GenerateKey(P256SHA256)
	require.NoError(t, err)
	k2, err := GenerateKey(P256SHA256)
	require.NoError(t, err)

	assert.NotEqual(t, k1.Kid, k2.Kid)
}

func TestSignVerify_Roundtrip(t *testing.T) {
	for _, alg := range []Algorithm{P256SHA256, P384SHA384} {
		t.Run(string(alg), func(t *testing.T) {
			priv, err := GenerateKey(alg)
			require.NoError(t, err)

			signer, err := NewSigner(priv)
			require.NoError(t, err)
			verifier, err := NewVerifier(priv.ExportPublic())
			require.NoError(t, err)

			msg := []byte("header.payload")
			sig, err := signer.Sign(msg)
			require.NoError(t, err)

			ok, err := verifier.Verify(string(alg), msg, sig)
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}

func TestVerify_SignatureSoundness(t *testing.T) {
	priv1, err := GenerateKey(P256SHA256)
	require.NoError(t, err)
	priv2, err := GenerateKey(P256SHA256)
	require.NoError(t, err)

	signer, err := NewSigner(priv1)
	require.NoError(t, err)
	verifier, err := NewVerifier(priv2.ExportPublic())
	require.NoError(t, err)

	msg := []byte("payload")
	sig, err := signer.Sign(msg)
	require.NoError(t, err)

	ok, err := verifier.Verify(string(P256SHA256), msg, sig)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerify_AlgorithmBindingNeverSilentlySucceeds(t *testing.T) {
	privP256, err := GenerateKey(P256SHA256)
	require.NoError(t, err)
	privP384, err := GenerateKey(P384SHA384)
	require.NoError(t, err)

	signer, err := NewSigner(privP256)
	require.NoError(t, err)
	sig, err := signer.Sign([]byte("data"))
	require.NoError(t, err)

	verifier, err := NewVerifier(privP384.ExportPublic())
	require.NoError(t, err)

	ok, err := verifier.Verify(string(P256SHA256), []byte("data"), sig)
	require.Error(t, err)
	assert.False(t, ok)
}

func TestMultikeyRoundtrip(t *testing.T) {
	for _, alg := range []Algorithm{P256SHA256, P384SHA384} {
		t.Run(string(alg), func(t *testing.T) {
			priv, err := GenerateKey(alg)
			require.NoError(t, err)
			pub := priv.ExportPublic()

			mk, err := ToMultikey(pub)
			require.NoError(t, err)
			assert.True(t, len(mk) > 0 && mk[0] == 'z')

			decoded, err := FromMultikey(mk)
			require.NoError(t, err)
			assert.Equal(t, pub.X, decoded.X)
			assert.Equal(t, pub.Y, decoded.Y)
			assert.Equal(t, pub.Kid, decoded.Kid)
		})
	}
}

func TestExportJWKComponents(t *testing.T) {
	priv, err := GenerateKey(P256SHA256)
	require.NoError(t, err)

	m, err := ExportJWKComponents(priv.ExportPublic())
	require.NoError(t, err)
	assert.Equal(t, "EC", m["kty"])
	assert.Equal(t, "P-256", m["crv"])
	assert.NotEmpty(t, m["x"])
	assert.NotEmpty(t, m["y"])
}
