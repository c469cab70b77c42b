package memberdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nova-gc/wynnbot/internal/rank"
)

// seedRoster populates a store with one member of each shape plus some
// activity stats.
func seedRoster(t *testing.T, s *Store) {
	t.Helper()
	ctx := context.Background()
	inTx(t, s, func(tx *Tx) error {
		if _, err := tx.AddMember(ctx, 1, "a", "Alpha", rank.MemberTwo); err != nil {
			return err
		}
		if _, _, err := tx.BindWynnGuild(ctx, "a", "Alpha", true, rank.GuildChief); err != nil {
			return err
		}
		if _, _, err := tx.BindWynnGuild(ctx, "b", "Beta", true, rank.GuildCaptain); err != nil {
			return err
		}
		if _, err := tx.AddMemberDiscord(ctx, 300, rank.InitialMemberRank); err != nil {
			return err
		}
		if err := tx.AddMessage(ctx, 1, 7); err != nil {
			return err
		}
		if err := tx.AddMessage(ctx, 300, 3); err != nil {
			return err
		}
		if err := tx.AddVoice(ctx, 1, 3661); err != nil {
			return err
		}
		if err := tx.AddXP(ctx, "b", 1234500); err != nil {
			return err
		}
		return tx.AddActivity(ctx, "a", 90)
	})
}

func TestListMembers(t *testing.T) {
	s := setupTestStore(t)
	seedRoster(t, s)
	ctx := context.Background()

	rows, err := s.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	// Sorted by ign, members without one first.
	assert.Equal(t, []string{"", "300", "Cadet"}, rows[0])
	assert.Equal(t, []string{"Alpha", "1", "Cosmonaut"}, rows[1])
	assert.Equal(t, []string{"Beta", "", "Pilot"}, rows[2])
}

func TestListMembersFilters(t *testing.T) {
	s := setupTestStore(t)
	seedRoster(t, s)
	ctx := context.Background()

	rows, err := s.ListMembers(ctx, TypeFilter{Type: TypeFull})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alpha", rows[0][0])

	rows, err = s.ListMembers(ctx, GuildFilter{InGuild: true})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, err = s.ListMembers(ctx, NameFilter{Contains: "lph"})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alpha", rows[0][0])

	// MemberTwo and above: only Alpha qualifies.
	rows, err = s.ListMembers(ctx, RankFilter{Rank: rank.MemberTwo})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alpha", rows[0][0])

	rows, err = s.ListMembers(ctx, HasProfileFilter{Profile: ProfileDiscord})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	rows, err = s.ListMembers(ctx, StatFilter{Stat: StatMessage, Op: ">=", Value: 5})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alpha", rows[0][0])
}

func TestStatLeaderboard(t *testing.T) {
	s := setupTestStore(t)
	seedRoster(t, s)
	ctx := context.Background()

	lb, err := s.StatLeaderboard(ctx, StatMessage)
	require.NoError(t, err)
	assert.Equal(t, []string{"#", "name", "message"}, lb.Header)
	require.Len(t, lb.Rows, 2)
	assert.Equal(t, []string{"1", "Alpha", "7"}, lb.Rows[0])
	// No wynn profile, so the discord id stands in as the name.
	assert.Equal(t, []string{"2", "300", "3"}, lb.Rows[1])

	lb, err = s.StatLeaderboard(ctx, StatXP)
	require.NoError(t, err)
	require.Len(t, lb.Rows, 1)
	assert.Equal(t, []string{"1", "Beta", "1,234,500"}, lb.Rows[0])

	lb, err = s.StatLeaderboard(ctx, StatVoice)
	require.NoError(t, err)
	require.Len(t, lb.Rows, 1)
	assert.Equal(t, []string{"1", "Alpha", "1h 1m"}, lb.Rows[0])
}

func TestStatLeaderboardZeroFilter(t *testing.T) {
	s := setupTestStore(t)
	seedRoster(t, s)
	ctx := context.Background()

	lb, err := s.StatLeaderboard(ctx, StatMessage, StatFilter{Stat: StatMessage, Op: "=", Value: 0})
	require.NoError(t, err)
	assert.Empty(t, lb.Rows, "everyone with a discord profile has messages")

	// Weekly voice: only Alpha has any, the zero filter flips the set.
	lb, err = s.StatLeaderboard(ctx, StatWeeklyVoice)
	require.NoError(t, err)
	require.Len(t, lb.Rows, 1)
	assert.Equal(t, "Alpha", lb.Rows[0][1])

	lb, err = s.StatLeaderboard(ctx, StatWeeklyVoice, StatFilter{Stat: StatWeeklyVoice, Op: "=", Value: 0})
	require.NoError(t, err)
	require.Len(t, lb.Rows, 1)
	assert.Equal(t, "300", lb.Rows[0][1])
}

func TestWeeklyReset(t *testing.T) {
	s := setupTestStore(t)
	seedRoster(t, s)
	ctx := context.Background()

	ch, cancel := s.Subscribe()
	defer cancel()

	require.NoError(t, s.WeeklyReset(ctx))

	var resets []WeeklyReset
	for _, ev := range drain(ch) {
		if e, ok := ev.(WeeklyReset); ok {
			resets = append(resets, e)
		}
	}
	require.Len(t, resets, 1)

	// The event carries the boards as they stood before the reset.
	require.Len(t, resets[0].MessageBoard.Rows, 2)
	assert.Equal(t, "Alpha", resets[0].MessageBoard.Rows[0][1])
	require.Len(t, resets[0].XPBoard.Rows, 1)

	// Weekly counters are zeroed, all-time counters survive.
	p, err := s.GetDiscordProfile(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int64(7), p.Message)
	assert.Zero(t, p.MessageWeek)
	assert.Equal(t, int64(3661), p.Voice)
	assert.Zero(t, p.VoiceWeek)

	wp, err := s.GetWynnProfile(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, wp)
	assert.Equal(t, int64(90), wp.Activity)
	assert.Zero(t, wp.ActivityWeek)

	gp, err := s.GetGuildProfile(ctx, "b")
	require.NoError(t, err)
	require.NotNil(t, gp)
	assert.Equal(t, int64(1234500), gp.XP)
	assert.Zero(t, gp.XPWeek)

	lb, err := s.StatLeaderboard(ctx, StatWeeklyMessage)
	require.NoError(t, err)
	assert.Empty(t, lb.Rows)
}

func TestFmtNum(t *testing.T) {
	assert.Equal(t, "0", fmtNum(0))
	assert.Equal(t, "999", fmtNum(999))
	assert.Equal(t, "1,000", fmtNum(1000))
	assert.Equal(t, "1,234,567", fmtNum(1234567))
	assert.Equal(t, "-1,234,567", fmtNum(-1234567))
}

func TestFmtSeconds(t *testing.T) {
	assert.Equal(t, "0s", fmtSeconds(0))
	assert.Equal(t, "59s", fmtSeconds(59))
	assert.Equal(t, "1m", fmtSeconds(60))
	assert.Equal(t, "1h 1m", fmtSeconds(3661))
	assert.Equal(t, "1d 1h 1m", fmtSeconds(90061))
	assert.Equal(t, "2d", fmtSeconds(172800))
}
