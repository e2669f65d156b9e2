package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenExclusive(t *testing.T) {
	var tok Token
	assert.Empty(t, tok.Holder())

	assert.True(t, tok.TryAcquire("a"))
	assert.Equal(t, "a", tok.Holder())
	assert.False(t, tok.TryAcquire("b"))

	tok.Release("a")
	assert.Empty(t, tok.Holder())
	assert.True(t, tok.TryAcquire("b"))
}

func TestTokenReentrant(t *testing.T) {
	var tok Token
	assert.True(t, tok.TryAcquire("a"))
	assert.True(t, tok.TryAcquire("a"))
	assert.Equal(t, "a", tok.Holder())
}

func TestTokenReleaseByNonHolder(t *testing.T) {
	var tok Token
	assert.True(t, tok.TryAcquire("a"))
	tok.Release("b")
	assert.Equal(t, "a", tok.Holder())
}
