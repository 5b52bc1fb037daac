package daemon

import (
	"encoding/binary"
	"io"
	"math"
)

// ReadPids reads an ordered sequence of big-endian 32-bit signed pids from r
// until r reports EOF, which the client signals by half-closing its write
// side once it has sent every pid it wants watched. A final, incomplete
// 4-byte pid is treated as io.ErrUnexpectedEOF.
func ReadPids(r io.Reader) ([]int32, error) {
	var pids []int32
	var buf [4]byte
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			if err == io.EOF {
				return pids, nil
			}
			return pids, err
		}
		pids = append(pids, int32(binary.BigEndian.Uint32(buf[:])))
	}
}

// WriteFrame writes one 32-bit IEEE-754 big-endian float per pid in pids, in
// that order, writing NaN for any pid absent from loads. It does not flush;
// callers using a buffered writer must flush after each frame themselves so
// that frames are delivered to the client as discrete units.
func WriteFrame(w io.Writer, pids []int32, loads map[int32]float32) error {
	var buf [4]byte
	for _, pid := range pids {
		v, ok := loads[pid]
		if !ok {
			v = float32(math.NaN())
		}
		binary.BigEndian.PutUint32(buf[:], math.Float32bits(v))
		if _, err := w.Write(buf[:]); err != nil {
			return err
		}
	}
	return nil
}
