package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"net"
	"os"
	"time"

	"github.com/tuxillo-labs/treeload/internal/bytesize"
	"github.com/tuxillo-labs/treeload/internal/energy"
	"github.com/tuxillo-labs/treeload/internal/fields"
	"github.com/tuxillo-labs/treeload/internal/procfs"
)

// pidIO is the previous tick's I/O/RSS reading for one pid, used to derive
// the deltas energy.Accumulator.Apply wants.
type pidIO struct {
	readBytes, writeBytes uint64
	rss                   uint64
	seeded                bool
}

type clientOpts struct {
	pids       []int32
	timeout    time.Duration
	fieldSpecs []string
	separator  string
	socketPath string
	pidPath    string
	power      bool

	csvPath  string
	jsonPath string
	htmlPath string
}

// runClient dials the daemon (spawning it if it isn't already running),
// subscribes to the requested pids, and prints one rendered line per
// sampling tick until o.timeout elapses or the daemon disconnects.
func runClient(ctx context.Context, o clientOpts) error {
	specs := o.fieldSpecs
	if len(specs) == 0 {
		specs = []string{"sum", "all_loads"}
	}
	if o.power {
		specs = append(specs, "power:.3", "energy:.3")
	}

	spec := make([]fields.Field, 0, len(specs))
	for _, s := range specs {
		f, err := fields.Parse(s)
		if err != nil {
			return fmt.Errorf("bad field spec %q: %w", s, err)
		}
		spec = append(spec, f)
	}

	conn, err := dialOrSpawn(ctx, o.socketPath, o.pidPath)
	if err != nil {
		return fmt.Errorf("client: %w", err)
	}
	defer conn.Close()

	if err := writePidRequest(conn, o.pids); err != nil {
		return fmt.Errorf("client: send pids: %w", err)
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		if err := uc.CloseWrite(); err != nil {
			return fmt.Errorf("client: half-close: %w", err)
		}
	}

	rep, err := newReporter(o.csvPath, o.jsonPath, o.htmlPath, o.pids)
	if err != nil {
		return err
	}
	defer rep.close()

	var deadline time.Time
	if o.timeout > 0 {
		deadline = time.Now().Add(o.timeout)
	}

	accs := make(map[int32]*energy.Accumulator, len(o.pids))
	ioPrev := make(map[int32]*pidIO, len(o.pids))
	wantEnergy := specWantsEnergy(spec)
	lastTick := time.Now()

	r := bufio.NewReader(conn)
	frame := make([]byte, 4*len(o.pids))
	for {
		if _, err := io.ReadFull(r, frame); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("client: read frame: %w", err)
		}

		now := time.Now()
		dt := now.Sub(lastTick).Seconds()
		lastTick = now

		loads := make([]float32, len(o.pids))
		for i := range o.pids {
			loads[i] = math.Float32frombits(binary.BigEndian.Uint32(frame[i*4 : i*4+4]))
		}

		in := fields.Inputs{Loads: loads}
		if wantEnergy {
			power := make([]float32, len(o.pids))
			cum := make([]float32, len(o.pids))
			for i, pid := range o.pids {
				acc, ok := accs[pid]
				if !ok {
					acc = energy.New(energy.DefaultConfig())
					accs[pid] = acc
				}
				share := float64(loads[i])
				if math.IsNaN(share) {
					share = 0
				}
				ioBytes, rssChurn := readPidIODelta(ioPrev, pid)
				res := acc.Apply(share, ioBytes, 0, rssChurn, dt)
				power[i] = float32(res.PTotal)
				cum[i] = float32(res.JCum)
			}
			in.Power = power
			in.Energy = cum
		}

		line := fields.Render(spec, o.separator, numCPU(), in)
		fmt.Fprintln(os.Stdout, line)
		rep.writeRow(now, loads, in.Power, in.Energy)

		if !deadline.IsZero() && now.After(deadline) {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// readPidIODelta reads pid's current disk I/O and RSS figures and returns
// the deltas since the previous call, seeding (and returning a zero delta)
// on the first call for a pid. pid is the literal named process only: the
// client has no view of its descendants' pids (the wire protocol carries
// only the tree-cumulated load, not the tree's membership), so this is a
// per-process approximation of the tree-wide I/O/RSS figures the daemon's
// cgroup-leaf-backed accounting produces when --track-energy is enabled.
// A pid that can't be read (exited, or owned by another user) contributes
// a zero delta for that tick rather than an error.
func readPidIODelta(prev map[int32]*pidIO, pid int32) (energy.IOBytes, bytesize.Bytes) {
	readBytes, writeBytes, ioErr := procfs.ReadIO(pid)
	rss, rssErr := procfs.ReadRSS(pid)

	st, ok := prev[pid]
	if !ok {
		st = &pidIO{}
		prev[pid] = st
	}

	var ioBytes energy.IOBytes
	var rssChurn bytesize.Bytes
	if ioErr == nil && st.seeded {
		ioBytes = energy.IOBytes{
			Read:  bytesize.ToBytes(deltaOrZero(readBytes, st.readBytes)),
			Write: bytesize.ToBytes(deltaOrZero(writeBytes, st.writeBytes)),
		}
	}
	if rssErr == nil && st.seeded {
		rssChurn = bytesize.ToBytes(absDelta(rss, st.rss))
	}

	if ioErr == nil {
		st.readBytes, st.writeBytes = readBytes, writeBytes
	}
	if rssErr == nil {
		st.rss = rss
	}
	if ioErr == nil || rssErr == nil {
		st.seeded = true
	}

	return ioBytes, rssChurn
}

func deltaOrZero(now, prev uint64) uint64 {
	if now >= prev {
		return now - prev
	}
	return 0
}

func absDelta(now, prev uint64) uint64 {
	if now >= prev {
		return now - prev
	}
	return prev - now
}

func specWantsEnergy(spec []fields.Field) bool {
	for _, f := range spec {
		if f.Source == fields.SourcePower || f.Source == fields.SourceEnergy {
			return true
		}
	}
	return false
}

// writePidRequest encodes pids as the big-endian i32 sequence
// daemon.ReadPids expects.
func writePidRequest(w io.Writer, pids []int32) error {
	buf := make([]byte, 4*len(pids))
	for i, p := range pids {
		binary.BigEndian.PutUint32(buf[i*4:], uint32(p))
	}
	_, err := w.Write(buf)
	return err
}
