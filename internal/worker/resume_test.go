package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/AlexZinkM/chewy-custody/internal/logging"
	"github.com/AlexZinkM/chewy-custody/internal/model"
	"github.com/AlexZinkM/chewy-custody/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingResumer struct {
	calls []string
	fail  map[string]bool
}

func (r *recordingResumer) Resume(_ context.Context, email string) (*model.WalletResponse, error) {
	r.calls = append(r.calls, email)
	if r.fail[email] {
		return nil, &model.StageError{Email: email, Stage: model.StateGasFunded, Err: errors.New("rpc down")}
	}
	return &model.WalletResponse{State: model.StateTokenFunded}, nil
}

func seed(t *testing.T, st *memory.Store, email string, state model.ProvisionState, updated time.Time) {
	t.Helper()
	require.NoError(t, st.CreateWallet(context.Background(), &model.WalletRecord{
		Email:         email,
		WalletAddress: "addr-" + email,
		State:         state,
		CreatedAt:     updated,
		UpdatedAt:     updated,
	}))
}

func TestRunOnce_ResumesOnlyStaleIncompleteWallets(t *testing.T) {
	st := memory.New()
	old := time.Now().UTC().Add(-time.Hour)
	seed(t, st, "stalled@x.com", model.StateGasFunded, old)
	seed(t, st, "broken@x.com", model.StateCreated, old)
	seed(t, st, "done@x.com", model.StateTokenFunded, old)
	seed(t, st, "busy@x.com", model.StateCreated, time.Now().UTC())

	r := &recordingResumer{fail: map[string]bool{"broken@x.com": true}}
	w := NewResumeWorker(st, r, time.Minute, 5*time.Minute, logging.Discard())

	resumed, failed := w.RunOnce(context.Background())
	assert.Equal(t, 1, resumed)
	assert.Equal(t, 1, failed)
	assert.ElementsMatch(t, []string{"stalled@x.com", "broken@x.com"}, r.calls)
}

func TestRunOnce_StopsWhenCancelled(t *testing.T) {
	st := memory.New()
	seed(t, st, "stalled@x.com", model.StateGasFunded, time.Now().UTC().Add(-time.Hour))

	r := &recordingResumer{}
	w := NewResumeWorker(st, r, time.Minute, time.Minute, logging.Discard())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	w.RunOnce(ctx)
	assert.Empty(t, r.calls)
}

func TestStartStop(t *testing.T) {
	w := NewResumeWorker(memory.New(), &recordingResumer{}, time.Hour, time.Minute, logging.Discard())
	require.NoError(t, w.Start())
	assert.NoError(t, w.Stop())
	assert.NoError(t, NewResumeWorker(memory.New(), &recordingResumer{}, time.Hour, time.Minute, logging.Discard()).Stop())
}
