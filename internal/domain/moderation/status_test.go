package moderation

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseStatus(t *testing.T) {
	for _, raw := range []string{"pending", "approved", "rejected", "exists"} {
		s, err := ParseStatus(raw)
		require.NoError(t, err)
		require.Equal(t, raw, string(s))
	}

	_, err := ParseStatus("banana")
	require.Error(t, err)

	_, err = ParseStatus("")
	require.Error(t, err)
}

func TestKindCollection(t *testing.T) {
	require.Equal(t, "performers", KindPerformers.Collection())
	require.Equal(t, "supportEvents", KindEvents.Collection())
}

func TestCanReview(t *testing.T) {
	// Pending items can be decided either way.
	require.True(t, CanReview(KindEvents, StatusPending, StatusApproved))
	require.True(t, CanReview(KindEvents, StatusPending, StatusRejected))

	// Decisions can be revisited, but not restated.
	require.True(t, CanReview(KindEvents, StatusApproved, StatusRejected))
	require.True(t, CanReview(KindEvents, StatusRejected, StatusApproved))
	require.False(t, CanReview(KindEvents, StatusApproved, StatusApproved))

	// The duplicate marker is performer-only, assigned from pending, terminal.
	require.True(t, CanReview(KindPerformers, StatusPending, StatusExists))
	require.False(t, CanReview(KindEvents, StatusPending, StatusExists))
	require.False(t, CanReview(KindPerformers, StatusApproved, StatusExists))
	require.False(t, CanReview(KindPerformers, StatusExists, StatusApproved))

	// Reviews never assign pending; that's the resubmission path.
	require.False(t, CanReview(KindEvents, StatusApproved, StatusPending))
}

func TestCanResubmit(t *testing.T) {
	require.True(t, CanResubmit(StatusRejected))
	require.False(t, CanResubmit(StatusPending))
	require.False(t, CanResubmit(StatusApproved))
	require.False(t, CanResubmit(StatusExists))
}

func TestCanEdit(t *testing.T) {
	adminActor := Actor{UserID: "a", Role: RoleAdmin}
	creatorActor := Actor{UserID: "c", Role: RoleUser}
	strangerActor := Actor{UserID: "s", Role: RoleUser}

	// Admins edit anything, any status.
	require.True(t, CanEdit(adminActor, "c", StatusApproved))
	require.True(t, CanEdit(adminActor, "c", StatusExists))

	// Creators edit their own records only while under moderation.
	require.True(t, CanEdit(creatorActor, "c", StatusPending))
	require.True(t, CanEdit(creatorActor, "c", StatusRejected))
	require.False(t, CanEdit(creatorActor, "c", StatusApproved))

	require.False(t, CanEdit(strangerActor, "c", StatusPending))
}
