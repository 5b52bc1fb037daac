package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuxillo-labs/treeload/internal/procfs"
)

var errSamplerBoom = errors.New("boom")

type fakeSampler struct {
	snapshots []*procfs.Snapshot
	i         int
}

func (f *fakeSampler) Sample() (*procfs.Snapshot, error) {
	s := f.snapshots[f.i]
	if f.i < len(f.snapshots)-1 {
		f.i++
	}
	return s, nil
}

func TestService_FirstTickDividesBySinceBootTicks(t *testing.T) {
	sampler := &fakeSampler{snapshots: []*procfs.Snapshot{
		{
			TakenAtTicks: 100,
			Pids:         map[int32]procfs.PidSample{1: {TotalSelfTicks: 50}},
			Children:     map[int32][]int32{1: {}},
		},
	}}
	svc := NewService(sampler, time.Hour, nil)

	sub := svc.Broadcast().Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	loads, err := sub.Next(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 0.5, loads[1], 1e-9)

	cancel()
	<-done
}

func TestService_SecondTickDividesByElapsedTicks(t *testing.T) {
	sampler := &fakeSampler{snapshots: []*procfs.Snapshot{
		{
			TakenAtTicks: 0,
			Pids:         map[int32]procfs.PidSample{1: {TotalSelfTicks: 0}},
			Children:     map[int32][]int32{1: {}},
		},
		{
			TakenAtTicks: 10,
			Pids:         map[int32]procfs.PidSample{1: {TotalSelfTicks: 5}},
			Children:     map[int32][]int32{1: {}},
		},
	}}
	svc := NewService(sampler, time.Millisecond, nil)

	sub := svc.Broadcast().Subscribe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go svc.Run(ctx)

	_, err := sub.Next(context.Background()) // tick 1, since-boot
	require.NoError(t, err)
	loads, err := sub.Next(context.Background()) // tick 2, elapsed-ticks
	require.NoError(t, err)
	assert.InDelta(t, 0.5, loads[1], 1e-9)
}

func TestService_RunClosesBroadcastOnSamplerError(t *testing.T) {
	svc := NewService(erroringSampler{}, time.Millisecond, nil)
	sub := svc.Broadcast().Subscribe()

	err := svc.Run(context.Background())
	assert.Error(t, err)

	_, subErr := sub.Next(context.Background())
	assert.ErrorIs(t, subErr, ErrBroadcastClosed)
}

type erroringSampler struct{}

func (erroringSampler) Sample() (*procfs.Snapshot, error) {
	return nil, errSamplerBoom
}
