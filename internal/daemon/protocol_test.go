package daemon

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodePids(pids []int32) []byte {
	buf := make([]byte, 4*len(pids))
	for i, p := range pids {
		binary.BigEndian.PutUint32(buf[i*4:], uint32(p))
	}
	return buf
}

func TestReadPids_OrderedAndTerminatesOnEOF(t *testing.T) {
	want := []int32{17, -4, 1000000}
	pids, err := ReadPids(bytes.NewReader(encodePids(want)))
	require.NoError(t, err)
	assert.Equal(t, want, pids)
}

func TestReadPids_EmptyInput(t *testing.T) {
	pids, err := ReadPids(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Nil(t, pids)
}

func TestReadPids_TruncatedTrailingPidErrors(t *testing.T) {
	_, err := ReadPids(bytes.NewReader([]byte{0, 0, 0}))
	assert.Error(t, err)
}

func TestWriteFrame_NaNForAbsentPid(t *testing.T) {
	var buf bytes.Buffer
	err := WriteFrame(&buf, []int32{1, 2, 3}, map[int32]float32{1: 0.5, 3: 2.0})
	require.NoError(t, err)
	require.Len(t, buf.Bytes(), 12)

	got := buf.Bytes()
	v1 := math.Float32frombits(binary.BigEndian.Uint32(got[0:4]))
	v2 := math.Float32frombits(binary.BigEndian.Uint32(got[4:8]))
	v3 := math.Float32frombits(binary.BigEndian.Uint32(got[8:12]))

	assert.Equal(t, float32(0.5), v1)
	assert.True(t, math.IsNaN(float64(v2)))
	assert.Equal(t, float32(2.0), v3)
}
