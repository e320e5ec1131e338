package scheduler

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingJob struct {
	ran chan struct{}
}

func (j *recordingJob) Run(context.Context) error {
	select {
	case j.ran <- struct{}{}:
	default:
	}
	return nil
}

func TestStartFiresImmediateRun(t *testing.T) {
	job := &recordingJob{ran: make(chan struct{}, 1)}

	s := New(job, "15 * * * *", time.Second, slog.Default())
	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case <-job.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("expected an immediate run at startup")
	}
}

func TestStartRejectsInvalidCron(t *testing.T) {
	job := &recordingJob{ran: make(chan struct{}, 1)}

	s := New(job, "not a cron expression", time.Second, slog.Default())
	assert.Error(t, s.Start())
}
