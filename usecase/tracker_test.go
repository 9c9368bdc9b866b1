package usecase_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayatoa/threads-auto-post-gs/domain/dto"
	"github.com/hayatoa/threads-auto-post-gs/usecase"
)

func TestRunTracker(t *testing.T) {
	tracker := usecase.NewRunTracker("daily_at", "Asia/Tokyo")

	tracker.Record(dto.PostReport{OK: true, RowIdx: 2})
	tracker.Record(dto.PostReport{OK: false, RowIdx: 3, Err: "HTTP 500"})
	tracker.Record(dto.PostReport{OK: true, Msg: "no rows to post"})
	tracker.SetNextFire("09:00", at(9, 12))

	status := tracker.Snapshot()
	assert.Equal(t, "daily_at", status.Mode)
	assert.Equal(t, "Asia/Tokyo", status.Timezone)
	assert.Equal(t, 1, status.Posted)
	assert.Equal(t, 1, status.Failed)
	assert.Equal(t, 1, status.NoOps)
	require.NotNil(t, status.Last)
	assert.Equal(t, "no rows to post", status.Last.Msg)
	assert.Equal(t, at(9, 12), status.NextFires["09:00"])

	// mutating the snapshot must not leak back into the tracker
	status.NextFires["09:00"] = at(9, 12).Add(time.Hour)
	assert.Equal(t, at(9, 12), tracker.Snapshot().NextFires["09:00"])
}

func TestRunTracker_NilReceiverIsSafe(t *testing.T) {
	var tracker *usecase.RunTracker
	tracker.Record(dto.PostReport{OK: true, RowIdx: 2})
	tracker.SetNextFire("09:00", at(9, 0))
}
