package xid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsPrefixedAndUnique(t *testing.T) {
	a := New("req")
	b := New("req")

	assert.True(t, strings.HasPrefix(a, "req-"))
	assert.NotEqual(t, a, b)
	assert.True(t, Valid("req", a))
}

func TestValidRejectsForeignIDs(t *testing.T) {
	assert.False(t, Valid("req", "req-not-a-uuid"))
	assert.False(t, Valid("req", New("tok")))
	assert.False(t, Valid("req", ""))
}
