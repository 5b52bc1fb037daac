package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTest_Range_BothBounded(t *testing.T) {
	tst := Test{Lo: f32ptr(1.0), Hi: f32ptr(2.0)}
	assert.False(t, tst.Matches(0.5))
	assert.True(t, tst.Matches(1.0))
	assert.True(t, tst.Matches(1.5))
	assert.False(t, tst.Matches(2.0))
	assert.False(t, tst.Matches(2.5))
}

func TestTest_Range_Unbounded(t *testing.T) {
	tst := Test{}
	for _, v := range []float32{-100, 0, 0.5, 1e9} {
		assert.True(t, tst.Matches(v))
	}
}

func TestTest_Range_DegenerateEqualBounds(t *testing.T) {
	tst := Test{Lo: f32ptr(1.0), Hi: f32ptr(1.0)}
	for _, v := range []float32{0.5, 1.0, 1.5} {
		assert.False(t, tst.Matches(v))
	}
}

func TestTest_Range_DegenerateInvertedBounds(t *testing.T) {
	tst := Test{Lo: f32ptr(2.0), Hi: f32ptr(1.0)}
	for _, v := range []float32{0.5, 1.0, 1.5, 2.0, 2.5} {
		assert.False(t, tst.Matches(v))
	}
}
