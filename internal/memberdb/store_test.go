package memberdb

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nova-gc/wynnbot/internal/rank"
)

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "member.db")
	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "member.db")
	ctx := context.Background()

	s, err := Open(path)
	require.NoError(t, err)
	var mid MemberID
	inTx(t, s, func(tx *Tx) error {
		var err error
		mid, err = tx.AddMember(ctx, 1, "a", "Alpha", rank.MemberThree)
		return err
	})
	require.NoError(t, s.Close())

	// Migrations are idempotent, the data survives.
	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()

	m, err := s.GetMember(ctx, mid)
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.Equal(t, TypeFull, m.Type)
	assert.Equal(t, rank.MemberThree, m.Rank)
}

func TestGetIgnMcid(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	inTx(t, s, func(tx *Tx) error {
		_, err := tx.AddMemberWynn(ctx, "mc-1", rank.MemberFive, "Steve")
		return err
	})

	id, err := s.GetIgnMcid(ctx, "Steve")
	require.NoError(t, err)
	assert.Equal(t, McID("mc-1"), id)

	id, err = s.GetIgnMcid(ctx, "Nobody")
	require.NoError(t, err)
	assert.Equal(t, McID(""), id)
}

func TestSetIgnAndGuildRank(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	inTx(t, s, func(tx *Tx) error {
		_, _, err := tx.BindWynnGuild(ctx, "mc-1", "Steve", true, rank.GuildRecruit)
		return err
	})

	inTx(t, s, func(tx *Tx) error {
		if err := tx.SetIgn(ctx, "mc-1", "Steve2"); err != nil {
			return err
		}
		return tx.SetGuildRank(ctx, "mc-1", rank.GuildStrategist)
	})

	ign, err := s.GetIgn(ctx, "mc-1")
	require.NoError(t, err)
	assert.Equal(t, "Steve2", ign)

	gr, err := s.GetGuildRank(ctx, "mc-1")
	require.NoError(t, err)
	assert.Equal(t, rank.GuildStrategist, gr)

	inGuild, err := s.IsInGuild(ctx, "mc-1")
	require.NoError(t, err)
	assert.True(t, inGuild)
}

func TestImageAndReactionCounters(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	inTx(t, s, func(tx *Tx) error {
		if _, err := tx.AddMemberDiscord(ctx, 7, rank.InitialMemberRank); err != nil {
			return err
		}
		if err := tx.AddImage(ctx, 7, 2); err != nil {
			return err
		}
		return tx.AddReaction(ctx, 7, 5)
	})

	p, err := s.GetDiscordProfile(ctx, 7)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, int64(2), p.Image)
	assert.Equal(t, int64(5), p.Reaction)
}

func TestCheckIntegrityReportsIssues(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	// Plant a corrupt row behind the engine's back.
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO member (discord, mcid, type, rank) VALUES (NULL, NULL, 'full', 'Six')`)
	require.NoError(t, err)

	issues, err := s.CheckIntegrity(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, issues)
}
