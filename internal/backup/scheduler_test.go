package backup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduler_RunOnce(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv(t)
	env.clock.step = 0
	env.seed(t, "Chair")

	sched := NewScheduler(env.svc, time.Hour, 3)

	// первого бэкапа еще не было
	made, err := sched.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, made)

	env.clock.now = env.clock.now.Add(30 * time.Minute)
	made, err = sched.RunOnce(ctx)
	require.NoError(t, err)
	assert.False(t, made)

	env.clock.now = env.clock.now.Add(30 * time.Minute)
	made, err = sched.RunOnce(ctx)
	require.NoError(t, err)
	assert.True(t, made)

	infos, err := env.svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 2)
}

func TestScheduler_RunStopsOnCancel(t *testing.T) {
	env := newTestEnv(t)
	env.seed(t, "Chair")

	sched := NewScheduler(env.svc, time.Hour, 3)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()

	require.Eventually(t, func() bool {
		last, err := env.db.GetLastBackupAt(context.Background())
		return err == nil && last > 0
	}, 2*time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestScheduler_InvalidInterval(t *testing.T) {
	env := newTestEnv(t)
	err := NewScheduler(env.svc, 0, 3).Run(context.Background())
	assert.Error(t, err)
}

func TestNewScheduler_CheckPeriod(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, time.Minute, NewScheduler(env.svc, 24*time.Hour, 5).checkEvery)
	assert.Equal(t, 10*time.Second, NewScheduler(env.svc, 10*time.Second, 5).checkEvery)
}
