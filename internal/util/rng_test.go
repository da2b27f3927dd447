package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIsReproducible(t *testing.T) {
	a, b := New(42), New(42)
	for i := 0; i < 8; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
	assert.Equal(t, New(1).Int63(), New(0).Int63())
}

func TestDerive(t *testing.T) {
	assert.Equal(t, int64(100), Derive(100, 0, 0))
	assert.Equal(t, int64(100+7919*2+3), Derive(100, 2, 3))
	assert.NotEqual(t, Derive(5, 1, 0), Derive(5, 0, 1))
}
