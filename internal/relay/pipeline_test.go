package relay

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/hexrelay/internal/testutil/testlog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFrame = "4e531118f219c10100000103011a0a"

func TestPipelineProcessPublishesEnvelope(t *testing.T) {
	logger := testlog.Start(t)
	hub := NewHub(4)
	sub, err := hub.Subscribe()
	require.NoError(t, err)

	p, err := NewPipeline(hub, 2, logger)
	require.NoError(t, err)
	defer p.Close(time.Second)

	env := p.Process(Message{Topic: "h2/1/sc", Payload: sampleFrame + sampleFrame})
	assert.Equal(t, EnvelopeTypeFrame, env.Type)
	assert.Equal(t, "h2/1/sc", env.Topic)
	require.Len(t, env.Frames, 2)
	assert.Equal(t, "19f21811", env.Frames[0].ID)
	assert.Equal(t, "c10100000103011a", env.Frames[0].Data)
	assert.Empty(t, env.Errors)
	assert.NotEmpty(t, env.ID)
	assert.False(t, env.Timestamp.IsZero())

	got := <-sub.C
	assert.Equal(t, env.ID, got.ID)
}

func TestPipelineProcessCarriesDecodeFailures(t *testing.T) {
	logger := testlog.Start(t)
	hub := NewHub(4)
	p, err := NewPipeline(hub, 1, logger)
	require.NoError(t, err)
	defer p.Close(time.Second)

	env := p.Process(Message{Topic: "t", Payload: "4e53ff0a" + sampleFrame})
	require.Len(t, env.Frames, 1)
	require.Len(t, env.Errors, 1)
	assert.Contains(t, env.Errors[0], "invalid input")
}

func TestPipelineProcessPublishesMessagesWithoutFrames(t *testing.T) {
	logger := testlog.Start(t)
	hub := NewHub(4)
	sub, err := hub.Subscribe()
	require.NoError(t, err)
	p, err := NewPipeline(hub, 1, logger)
	require.NoError(t, err)
	defer p.Close(time.Second)

	env := p.Process(Message{Topic: "t", Payload: "hello"})
	assert.Empty(t, env.Frames)
	assert.Equal(t, "hello", env.Message)
	got := <-sub.C
	assert.Equal(t, env.ID, got.ID)
}

func TestPipelineNormalizesPayloadCase(t *testing.T) {
	logger := testlog.Start(t)
	p, err := NewPipeline(NewHub(1), 1, logger)
	require.NoError(t, err)
	defer p.Close(time.Second)

	env := p.Process(Message{Topic: "t", Payload: " " + strings.ToUpper(sampleFrame) + "\n"})
	require.Len(t, env.Frames, 1)
	assert.Equal(t, "19f21811", env.Frames[0].ID)
}

func TestPipelineSubmitDeliversAsync(t *testing.T) {
	logger := testlog.Start(t)
	hub := NewHub(16)
	sub, err := hub.Subscribe()
	require.NoError(t, err)
	p, err := NewPipeline(hub, 4, logger)
	require.NoError(t, err)
	defer p.Close(time.Second)

	for i := 0; i < 10; i++ {
		require.NoError(t, p.Submit(context.Background(), Message{Topic: "t", Payload: sampleFrame}))
	}
	for i := 0; i < 10; i++ {
		select {
		case env := <-sub.C:
			assert.Len(t, env.Frames, 1)
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for envelope %d", i)
		}
	}
}

func TestPipelineSubmitAfterClose(t *testing.T) {
	logger := testlog.Start(t)
	p, err := NewPipeline(NewHub(1), 1, logger)
	require.NoError(t, err)
	require.NoError(t, p.Close(time.Second))

	err = p.Submit(context.Background(), Message{Payload: sampleFrame})
	assert.ErrorIs(t, err, ErrPipelineClosed)
}

func TestPipelineSubmitCancelledContext(t *testing.T) {
	logger := testlog.Start(t)
	p, err := NewPipeline(NewHub(1), 1, logger)
	require.NoError(t, err)
	defer p.Close(time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, p.Submit(ctx, Message{Payload: sampleFrame}), context.Canceled)
}

// occupyWorkers parks every worker of p until the returned func is called.
func occupyWorkers(t *testing.T, p *Pipeline, workers int) func() {
	t.Helper()
	release := make(chan struct{})
	for i := 0; i < workers; i++ {
		require.NoError(t, p.pool.Submit(func() { <-release }))
	}
	require.Equal(t, workers, p.Running())
	return func() { close(release) }
}

func TestPipelineSubmitBusyWorkersHonorsDeadline(t *testing.T) {
	logger := testlog.Start(t)
	p, err := NewPipeline(NewHub(1), 1, logger)
	require.NoError(t, err)
	defer p.Close(time.Second)
	release := occupyWorkers(t, p, 1)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	start := time.Now()
	err = p.Submit(ctx, Message{Payload: sampleFrame})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestPipelineSubmitWaitsForFreeWorker(t *testing.T) {
	logger := testlog.Start(t)
	hub := NewHub(4)
	sub, err := hub.Subscribe()
	require.NoError(t, err)
	p, err := NewPipeline(hub, 1, logger)
	require.NoError(t, err)
	defer p.Close(time.Second)
	release := occupyWorkers(t, p, 1)
	time.AfterFunc(30*time.Millisecond, release)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, p.Submit(ctx, Message{Topic: "t", Payload: sampleFrame}))

	select {
	case env := <-sub.C:
		assert.Len(t, env.Frames, 1)
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for envelope")
	}
}

func TestNewPipelineRequiresHub(t *testing.T) {
	_, err := NewPipeline(nil, 1, testlog.Start(t))
	assert.Error(t, err)
}
