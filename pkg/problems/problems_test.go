package problems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResult_AccumulatesAndFilters(t *testing.T) {
	var r Result
	assert.True(t, r.OK())

	r.Addf(CategorySignature, "invalid_signature", 400, "signature does not verify for kid %s", "kid-1")
	r.Addf(CategoryTimeClaims, "expired", 422, "token expired at %d", 1700000000)

	require.False(t, r.OK())
	require.Len(t, r.Problems, 2)

	sigProblems := r.ByCategory(CategorySignature)
	require.Len(t, sigProblems, 1)
	assert.Equal(t, TypeBase+"signature", sigProblems[0].Type)
	assert.Contains(t, sigProblems[0].Detail, "kid-1")
}

func TestNew_SetsTypeAndTitle(t *testing.T) {
	p := New(CategoryNonce, "nonce_mismatch", "nonce does not match", 400)
	assert.Equal(t, TypeBase+"nonce", p.Type)
	assert.Equal(t, "nonce_mismatch", p.Title)
	assert.Equal(t, "nonce does not match", p.Detail)
	assert.Equal(t, 400, p.Status)
}
