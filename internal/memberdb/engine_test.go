package memberdb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nova-gc/wynnbot/internal/rank"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "member_test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func dptr(id DiscordID) *DiscordID { return &id }
func mptr(id McID) *McID           { return &id }

// inTx runs fn in a transaction and commits it.
func inTx(t *testing.T, s *Store, fn func(tx *Tx) error) {
	t.Helper()
	tx, err := s.Begin(context.Background())
	require.NoError(t, err)
	defer tx.Rollback()
	require.NoError(t, fn(tx))
	require.NoError(t, tx.Commit())
}

// drain collects every event currently buffered on the channel.
func drain(ch <-chan Event) []Event {
	var events []Event
	for {
		select {
		case ev := <-ch:
			events = append(events, ev)
		default:
			return events
		}
	}
}

func requireClean(t *testing.T, s *Store) {
	t.Helper()
	issues, err := s.CheckIntegrity(context.Background())
	require.NoError(t, err)
	require.Empty(t, issues, "integrity violated")
}

func TestAddMemberDiscord(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	ch, cancel := s.Subscribe()
	defer cancel()

	var mid MemberID
	inTx(t, s, func(tx *Tx) error {
		var err error
		mid, err = tx.AddMemberDiscord(ctx, 100, rank.InitialMemberRank)
		return err
	})

	m, err := s.GetMember(ctx, mid)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, TypeDiscordPartial, m.Type)
	require.NotNil(t, m.Discord)
	assert.Equal(t, DiscordID(100), *m.Discord)
	assert.Nil(t, m.Mcid)
	assert.Equal(t, rank.InitialMemberRank, m.Rank)

	p, err := s.GetDiscordProfile(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, p)
	require.NotNil(t, p.Member)
	assert.Equal(t, mid, *p.Member)

	events := drain(ch)
	require.Len(t, events, 2)
	assert.IsType(t, DiscordProfileAdd{}, events[0])
	add, ok := events[1].(MemberAdd)
	require.True(t, ok)
	assert.Equal(t, mid, add.Member)
	require.NotNil(t, add.Discord)
	assert.Equal(t, DiscordID(100), *add.Discord)

	requireClean(t, s)
}

func TestAddMemberDiscordAlreadyLinked(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var mid MemberID
	inTx(t, s, func(tx *Tx) error {
		var err error
		mid, err = tx.AddMemberDiscord(ctx, 100, rank.InitialMemberRank)
		return err
	})

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = tx.AddMemberDiscord(ctx, 100, rank.InitialMemberRank)
	var exists *MemberExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, mid, exists.Member)
}

func TestAddFullMember(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	ch, cancel := s.Subscribe()
	defer cancel()

	var mid MemberID
	inTx(t, s, func(tx *Tx) error {
		var err error
		mid, err = tx.AddMember(ctx, 200, "mc-1", "Steve", rank.MemberFive)
		return err
	})

	m, err := s.GetMember(ctx, mid)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, TypeFull, m.Type)
	require.NotNil(t, m.Discord)
	require.NotNil(t, m.Mcid)
	assert.Equal(t, McID("mc-1"), *m.Mcid)

	// One MemberAdd carrying both ids.
	var adds []MemberAdd
	for _, ev := range drain(ch) {
		if add, ok := ev.(MemberAdd); ok {
			adds = append(adds, add)
		}
	}
	require.Len(t, adds, 1)
	require.NotNil(t, adds[0].Discord)
	require.NotNil(t, adds[0].Mcid)

	requireClean(t, s)
}

func TestAddFullMemberLinkOverride(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var first MemberID
	inTx(t, s, func(tx *Tx) error {
		var err error
		first, err = tx.AddMember(ctx, 200, "mc-1", "Steve", rank.MemberFive)
		return err
	})

	// Discord id already taken.
	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.AddMember(ctx, 200, "mc-2", "Alex", rank.MemberFive)
	var exists *MemberExistsError
	require.ErrorAs(t, err, &exists)
	assert.Equal(t, first, exists.Member)
	require.NoError(t, tx.Rollback())

	// Wynn id already taken.
	tx, err = s.Begin(ctx)
	require.NoError(t, err)
	_, err = tx.AddMember(ctx, 201, "mc-1", "Alex", rank.MemberFive)
	var override *LinkOverrideError
	require.ErrorAs(t, err, &override)
	assert.Equal(t, ProfileWynn, override.Profile)
	assert.Equal(t, first, override.Existing)
	require.NoError(t, tx.Rollback())

	// Nothing changed.
	mid, err := s.GetDiscordMid(ctx, 201)
	require.NoError(t, err)
	assert.Nil(t, mid)
	exists2, err := s.MemberExists(ctx, first)
	require.NoError(t, err)
	assert.True(t, exists2)
	requireClean(t, s)
}

func TestBindDiscordNoop(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var mid MemberID
	inTx(t, s, func(tx *Tx) error {
		var err error
		mid, err = tx.AddMemberDiscord(ctx, 100, rank.InitialMemberRank)
		return err
	})

	ch, cancel := s.Subscribe()
	defer cancel()

	// Same id: no state change, no event.
	inTx(t, s, func(tx *Tx) error {
		removed, err := tx.BindDiscord(ctx, mid, dptr(100))
		assert.False(t, removed)
		return err
	})
	assert.Empty(t, drain(ch))

	// Both nil on a wynn partial: also a no-op.
	var wmid MemberID
	inTx(t, s, func(tx *Tx) error {
		var err error
		wmid, err = tx.AddMemberWynn(ctx, "mc-9", rank.InitialMemberRank, "Ghost")
		return err
	})
	drain(ch)
	inTx(t, s, func(tx *Tx) error {
		removed, err := tx.BindDiscord(ctx, wmid, nil)
		assert.False(t, removed)
		return err
	})
	assert.Empty(t, drain(ch))
}

func TestPromotionRoundTrip(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var mid MemberID
	inTx(t, s, func(tx *Tx) error {
		var err error
		mid, err = tx.AddMemberDiscord(ctx, 100, rank.InitialMemberRank)
		return err
	})

	ch, cancel := s.Subscribe()
	defer cancel()

	inTx(t, s, func(tx *Tx) error {
		removed, err := tx.BindWynn(ctx, mid, mptr("mc-1"), "Steve")
		assert.False(t, removed)
		return err
	})

	m, err := s.GetMember(ctx, mid)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, TypeFull, m.Type)
	require.NotNil(t, m.Discord)
	require.NotNil(t, m.Mcid)

	var promotes []MemberFullPromote
	var binds []WynnProfileBind
	for _, ev := range drain(ch) {
		switch e := ev.(type) {
		case MemberFullPromote:
			promotes = append(promotes, e)
		case WynnProfileBind:
			binds = append(binds, e)
		}
	}
	require.Len(t, promotes, 1)
	assert.Equal(t, TypeDiscordPartial, promotes[0].Before)
	require.Len(t, binds, 1)
	assert.Equal(t, McID("mc-1"), binds[0].New)

	requireClean(t, s)
}

func TestDemotionNotDeletion(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var mid MemberID
	inTx(t, s, func(tx *Tx) error {
		var err error
		mid, err = tx.AddMember(ctx, 200, "G1", "Steve", rank.MemberFive)
		if err != nil {
			return err
		}
		_, _, err = tx.BindWynnGuild(ctx, "G1", "Steve", true, rank.GuildRecruit)
		return err
	})

	ch, cancel := s.Subscribe()
	defer cancel()

	inTx(t, s, func(tx *Tx) error {
		removed, err := tx.BindDiscord(ctx, mid, nil)
		assert.True(t, removed)
		return err
	})

	m, err := s.GetMember(ctx, mid)
	require.NoError(t, err)
	require.NotNil(t, m, "member must be demoted, not deleted")
	assert.Equal(t, TypeGuildPartial, m.Type)
	assert.Nil(t, m.Discord)
	require.NotNil(t, m.Mcid)
	assert.Equal(t, McID("G1"), *m.Mcid)

	var demotes []MemberAutoGuildDemote
	var unbinds []DiscordProfileUnbind
	for _, ev := range drain(ch) {
		switch e := ev.(type) {
		case MemberAutoGuildDemote:
			demotes = append(demotes, e)
		case DiscordProfileUnbind:
			unbinds = append(unbinds, e)
		}
	}
	require.Len(t, demotes, 1)
	assert.Equal(t, TypeFull, demotes[0].Before)
	require.Len(t, unbinds, 1)
	assert.Equal(t, DiscordID(200), unbinds[0].Before)
	assert.True(t, unbinds[0].Removed)

	requireClean(t, s)
}

func TestDeletionOnEmpty(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var mid MemberID
	inTx(t, s, func(tx *Tx) error {
		var err error
		mid, err = tx.AddMemberDiscord(ctx, 100, rank.InitialMemberRank)
		return err
	})

	ch, cancel := s.Subscribe()
	defer cancel()

	inTx(t, s, func(tx *Tx) error {
		removed, err := tx.BindDiscord(ctx, mid, nil)
		assert.True(t, removed)
		return err
	})

	m, err := s.GetMember(ctx, mid)
	require.NoError(t, err)
	assert.Nil(t, m)

	// The profile survives unlinked.
	p, err := s.GetDiscordProfile(ctx, 100)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Nil(t, p.Member)

	var removes []MemberRemove
	for _, ev := range drain(ch) {
		if e, ok := ev.(MemberRemove); ok {
			removes = append(removes, e)
		}
	}
	require.Len(t, removes, 1)
	assert.Equal(t, mid, removes[0].Member)

	requireClean(t, s)
}

func TestBindWynnDemotesInsteadOfDeleting(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	// Wynn partial whose account is in the guild.
	var mid MemberID
	inTx(t, s, func(tx *Tx) error {
		var err error
		mid, err = tx.AddMemberWynn(ctx, "G1", rank.MemberFive, "Steve")
		if err != nil {
			return err
		}
		_, _, err = tx.BindWynnGuild(ctx, "G1", "Steve", true, rank.GuildRecruit)
		return err
	})

	ch, cancel := s.Subscribe()
	defer cancel()

	inTx(t, s, func(tx *Tx) error {
		removed, err := tx.BindWynn(ctx, mid, nil, "")
		assert.True(t, removed)
		return err
	})

	m, err := s.GetMember(ctx, mid)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, TypeGuildPartial, m.Type)
	require.NotNil(t, m.Mcid, "wynn link is preserved through the demote")

	var demotes []MemberAutoGuildDemote
	for _, ev := range drain(ch) {
		if e, ok := ev.(MemberAutoGuildDemote); ok {
			demotes = append(demotes, e)
		}
	}
	require.Len(t, demotes, 1)
	assert.Equal(t, TypeWynnPartial, demotes[0].Before)

	requireClean(t, s)
}

func TestBindWynnGuildPartialRejected(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var mid MemberID
	inTx(t, s, func(tx *Tx) error {
		var created bool
		var err error
		mid, created, err = tx.BindWynnGuild(ctx, "G1", "Steve", true, rank.GuildRecruit)
		require.True(t, created)
		return err
	})

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = tx.BindWynn(ctx, mid, nil, "")
	var wrongType *WrongMemberTypeError
	require.ErrorAs(t, err, &wrongType)
	assert.Equal(t, TypeGuildPartial, wrongType.Type)
}

func TestBindWynnRemovesFullMemberOutsideGuild(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var mid MemberID
	inTx(t, s, func(tx *Tx) error {
		var err error
		mid, err = tx.AddMember(ctx, 200, "mc-1", "Steve", rank.MemberFive)
		return err
	})

	ch, cancel := s.Subscribe()
	defer cancel()

	inTx(t, s, func(tx *Tx) error {
		removed, err := tx.BindWynn(ctx, mid, nil, "")
		assert.True(t, removed)
		return err
	})

	m, err := s.GetMember(ctx, mid)
	require.NoError(t, err)
	assert.Nil(t, m, "member without guild membership is removed entirely")

	events := drain(ch)
	var removes, wynnUnbinds, discordUnbinds int
	for _, ev := range events {
		switch ev.(type) {
		case MemberRemove:
			removes++
		case WynnProfileUnbind:
			wynnUnbinds++
		case DiscordProfileUnbind:
			discordUnbinds++
		}
	}
	assert.Equal(t, 1, removes, "exactly one MemberRemove across the cascade")
	assert.Equal(t, 1, wynnUnbinds)
	assert.Equal(t, 1, discordUnbinds)

	requireClean(t, s)
}

func TestBindWynnRebind(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var mid MemberID
	inTx(t, s, func(tx *Tx) error {
		var err error
		mid, err = tx.AddMemberWynn(ctx, "mc-1", rank.MemberFive, "Steve")
		return err
	})

	ch, cancel := s.Subscribe()
	defer cancel()

	inTx(t, s, func(tx *Tx) error {
		removed, err := tx.BindWynn(ctx, mid, mptr("mc-2"), "Steve2")
		assert.False(t, removed)
		return err
	})

	m, err := s.GetMember(ctx, mid)
	require.NoError(t, err)
	require.NotNil(t, m)
	require.NotNil(t, m.Mcid)
	assert.Equal(t, McID("mc-2"), *m.Mcid)

	// Old profile is unlinked but kept.
	old, err := s.GetWynnProfile(ctx, "mc-1")
	require.NoError(t, err)
	require.NotNil(t, old)
	assert.Nil(t, old.Member)

	var binds []WynnProfileBind
	for _, ev := range drain(ch) {
		if e, ok := ev.(WynnProfileBind); ok {
			binds = append(binds, e)
		}
	}
	require.Len(t, binds, 1)
	require.NotNil(t, binds[0].Old)
	assert.Equal(t, McID("mc-1"), *binds[0].Old)
	assert.Equal(t, McID("mc-2"), binds[0].New)

	requireClean(t, s)
}

func TestBindDiscordLinkOverrideRejected(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var other, mid MemberID
	inTx(t, s, func(tx *Tx) error {
		var err error
		other, err = tx.AddMemberDiscord(ctx, 100, rank.InitialMemberRank)
		if err != nil {
			return err
		}
		mid, err = tx.AddMemberWynn(ctx, "mc-1", rank.MemberFive, "Steve")
		return err
	})

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback()

	_, err = tx.BindDiscord(ctx, mid, dptr(100))
	var override *LinkOverrideError
	require.ErrorAs(t, err, &override)
	assert.Equal(t, ProfileDiscord, override.Profile)
	assert.Equal(t, other, override.Existing)
}

func TestGuildRosterDrivenCreation(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	ch, cancel := s.Subscribe()
	defer cancel()

	var mid MemberID
	var created bool
	inTx(t, s, func(tx *Tx) error {
		var err error
		mid, created, err = tx.BindWynnGuild(ctx, "G2", "X", true, rank.GuildRecruit)
		return err
	})
	require.True(t, created)

	m, err := s.GetMember(ctx, mid)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, TypeGuildPartial, m.Type)
	assert.Equal(t, rank.GuildRecruit.MemberRank(), m.Rank)
	require.NotNil(t, m.Mcid)
	assert.Equal(t, McID("G2"), *m.Mcid)

	wp, err := s.GetWynnProfile(ctx, "G2")
	require.NoError(t, err)
	require.NotNil(t, wp)
	assert.True(t, wp.InGuild)

	gp, err := s.GetGuildProfile(ctx, "G2")
	require.NoError(t, err)
	require.NotNil(t, gp)
	assert.Equal(t, rank.GuildRecruit, gp.Rank)

	var adds int
	for _, ev := range drain(ch) {
		if _, ok := ev.(MemberAdd); ok {
			adds++
		}
	}
	assert.Equal(t, 1, adds)

	requireClean(t, s)
}

func TestGuildRosterDrivenRemoval(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var mid MemberID
	inTx(t, s, func(tx *Tx) error {
		var err error
		mid, _, err = tx.BindWynnGuild(ctx, "G2", "X", true, rank.GuildRecruit)
		return err
	})

	ch, cancel := s.Subscribe()
	defer cancel()

	inTx(t, s, func(tx *Tx) error {
		_, created, err := tx.BindWynnGuild(ctx, "G2", "X", false, rank.GuildRecruit)
		assert.False(t, created)
		return err
	})

	m, err := s.GetMember(ctx, mid)
	require.NoError(t, err)
	assert.Nil(t, m, "guild partial is removed when the account leaves the guild")

	wp, err := s.GetWynnProfile(ctx, "G2")
	require.NoError(t, err)
	require.NotNil(t, wp)
	assert.False(t, wp.InGuild)
	assert.Nil(t, wp.Member)

	gp, err := s.GetGuildProfile(ctx, "G2")
	require.NoError(t, err)
	assert.Nil(t, gp, "guild profile is deleted with the flag")

	var removes, unbinds int
	for _, ev := range drain(ch) {
		switch ev.(type) {
		case MemberRemove:
			removes++
		case WynnProfileUnbind:
			unbinds++
		}
	}
	assert.Equal(t, 1, removes)
	assert.Equal(t, 1, unbinds)

	requireClean(t, s)
}

func TestGuildFlagFlipWithFullMember(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var mid MemberID
	inTx(t, s, func(tx *Tx) error {
		var err error
		mid, err = tx.AddMember(ctx, 200, "G1", "Steve", rank.MemberFive)
		if err != nil {
			return err
		}
		_, _, err = tx.BindWynnGuild(ctx, "G1", "Steve", true, rank.GuildRecruit)
		return err
	})

	// Leaving the guild must not touch a full member.
	inTx(t, s, func(tx *Tx) error {
		_, _, err := tx.BindWynnGuild(ctx, "G1", "Steve", false, rank.GuildRecruit)
		return err
	})

	m, err := s.GetMember(ctx, mid)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, TypeFull, m.Type)

	requireClean(t, s)
}

func TestRemoveMember(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		setup func(tx *Tx) (MemberID, error)
	}{
		{
			name: "discord partial",
			setup: func(tx *Tx) (MemberID, error) {
				return tx.AddMemberDiscord(ctx, 300, rank.InitialMemberRank)
			},
		},
		{
			name: "wynn partial",
			setup: func(tx *Tx) (MemberID, error) {
				return tx.AddMemberWynn(ctx, "rm-1", rank.MemberFive, "A")
			},
		},
		{
			name: "full outside guild",
			setup: func(tx *Tx) (MemberID, error) {
				return tx.AddMember(ctx, 301, "rm-2", "B", rank.MemberFive)
			},
		},
		{
			name: "full in guild",
			setup: func(tx *Tx) (MemberID, error) {
				mid, err := tx.AddMember(ctx, 302, "rm-3", "C", rank.MemberFive)
				if err != nil {
					return 0, err
				}
				_, _, err = tx.BindWynnGuild(ctx, "rm-3", "C", true, rank.GuildRecruit)
				return mid, err
			},
		},
		{
			name: "guild partial",
			setup: func(tx *Tx) (MemberID, error) {
				mid, _, err := tx.BindWynnGuild(ctx, "rm-4", "D", true, rank.GuildRecruit)
				return mid, err
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var mid MemberID
			inTx(t, s, func(tx *Tx) error {
				var err error
				mid, err = tc.setup(tx)
				return err
			})

			ch, cancel := s.Subscribe()
			defer cancel()

			inTx(t, s, func(tx *Tx) error {
				return tx.RemoveMember(ctx, mid)
			})

			m, err := s.GetMember(ctx, mid)
			require.NoError(t, err)
			assert.Nil(t, m, "member must be gone")

			var removes int
			for _, ev := range drain(ch) {
				if _, ok := ev.(MemberRemove); ok {
					removes++
				}
			}
			assert.Equal(t, 1, removes, "exactly one MemberRemove")

			requireClean(t, s)
		})
	}
}

func TestRollbackDiscardsStateAndEvents(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	ch, cancel := s.Subscribe()
	defer cancel()

	tx, err := s.Begin(ctx)
	require.NoError(t, err)
	mid, err := tx.AddMemberDiscord(ctx, 100, rank.InitialMemberRank)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	m, err := s.GetMember(ctx, mid)
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.Empty(t, drain(ch), "rolled back transaction must not publish")
}

func TestSetMemberRankEmitsNoEvent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	var mid MemberID
	inTx(t, s, func(tx *Tx) error {
		var err error
		mid, err = tx.AddMemberDiscord(ctx, 100, rank.InitialMemberRank)
		return err
	})

	ch, cancel := s.Subscribe()
	defer cancel()

	inTx(t, s, func(tx *Tx) error {
		return tx.SetMemberRank(ctx, mid, rank.MemberTwo)
	})

	r, err := s.GetMemberRank(ctx, mid)
	require.NoError(t, err)
	assert.Equal(t, rank.MemberTwo, r)
	assert.Empty(t, drain(ch))
}

func TestInvariantClosureAcrossSequence(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	// A sequence exercising every mutation; the invariants must hold
	// after each committed step.
	steps := []func(tx *Tx) error{
		func(tx *Tx) error {
			_, err := tx.AddMemberDiscord(ctx, 1, rank.InitialMemberRank)
			return err
		},
		func(tx *Tx) error {
			_, err := tx.BindWynn(ctx, 1, mptr("a"), "A")
			return err
		},
		func(tx *Tx) error {
			_, _, err := tx.BindWynnGuild(ctx, "a", "A", true, rank.GuildCaptain)
			return err
		},
		func(tx *Tx) error {
			_, err := tx.BindDiscord(ctx, 1, nil)
			return err
		},
		func(tx *Tx) error {
			_, _, err := tx.BindWynnGuild(ctx, "b", "B", true, rank.GuildRecruit)
			return err
		},
		func(tx *Tx) error {
			_, err := tx.BindDiscord(ctx, 2, dptr(5))
			return err
		},
		func(tx *Tx) error {
			_, _, err := tx.BindWynnGuild(ctx, "b", "B", false, rank.GuildRecruit)
			return err
		},
		func(tx *Tx) error {
			_, _, err := tx.BindWynnGuild(ctx, "a", "A", false, rank.GuildCaptain)
			return err
		},
		func(tx *Tx) error { return tx.RemoveMember(ctx, 2) },
	}

	for i, step := range steps {
		inTx(t, s, step)
		issues, err := s.CheckIntegrity(ctx)
		require.NoError(t, err)
		require.Emptyf(t, issues, "invariant violated after step %d", i)
	}
}

func TestErrorsAreMatchable(t *testing.T) {
	var err error = &WrongMemberTypeError{Type: TypeGuildPartial}
	var wrongType *WrongMemberTypeError
	assert.True(t, errors.As(err, &wrongType))

	err = &LinkOverrideError{Profile: ProfileWynn, Existing: 3}
	assert.Contains(t, err.Error(), "wynn")

	err = &MemberExistsError{Member: 7}
	assert.Contains(t, err.Error(), "7")
}
