package memberdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nova-gc/wynnbot/internal/rank"
)

func optDiscord(v sql.NullInt64) *DiscordID {
	if !v.Valid {
		return nil
	}
	id := DiscordID(v.Int64)
	return &id
}

func optMcid(v sql.NullString) *McID {
	if !v.Valid {
		return nil
	}
	id := McID(v.String)
	return &id
}

func optMember(v sql.NullInt64) *MemberID {
	if !v.Valid {
		return nil
	}
	id := MemberID(v.Int64)
	return &id
}

// getMemberLinks returns a member's discord and wynn links.
func getMemberLinks(ctx context.Context, q querier, mid MemberID) (*DiscordID, *McID, error) {
	var discord sql.NullInt64
	var mcid sql.NullString
	err := q.QueryRowContext(ctx, `SELECT discord, mcid FROM member WHERE oid=?`, int64(mid)).
		Scan(&discord, &mcid)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch member links: %w", err)
	}
	return optDiscord(discord), optMcid(mcid), nil
}

// getMemberType returns a member's type.
func getMemberType(ctx context.Context, q querier, mid MemberID) (MemberType, error) {
	var t string
	err := q.QueryRowContext(ctx, `SELECT type FROM member WHERE oid=?`, int64(mid)).Scan(&t)
	if err != nil {
		return "", fmt.Errorf("failed to fetch member type: %w", err)
	}
	return MemberType(t), nil
}

// memberExists reports whether a member row with the given id exists.
func memberExists(ctx context.Context, q querier, mid MemberID) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM member WHERE oid=?`, int64(mid)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to fetch from member table: %w", err)
	}
	return true, nil
}

// getDiscordMid returns the member linked to a discord profile, nil
// when the profile is missing or unlinked.
func getDiscordMid(ctx context.Context, q querier, discordID DiscordID) (*MemberID, error) {
	var mid sql.NullInt64
	err := q.QueryRowContext(ctx, `SELECT mid FROM discord WHERE id=?`, int64(discordID)).Scan(&mid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch mid from discord table: %w", err)
	}
	return optMember(mid), nil
}

// getWynnMid returns the member linked to a wynn profile, nil when
// the profile is missing or unlinked.
func getWynnMid(ctx context.Context, q querier, mcid McID) (*MemberID, error) {
	var mid sql.NullInt64
	err := q.QueryRowContext(ctx, `SELECT mid FROM wynn WHERE id=?`, string(mcid)).Scan(&mid)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch mid from wynn table: %w", err)
	}
	return optMember(mid), nil
}

func discordProfileExists(ctx context.Context, q querier, discordID DiscordID) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM discord WHERE id=?`, int64(discordID)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to fetch from discord table: %w", err)
	}
	return true, nil
}

func wynnProfileExists(ctx context.Context, q querier, mcid McID) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM wynn WHERE id=?`, string(mcid)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to fetch from wynn table: %w", err)
	}
	return true, nil
}

func guildProfileExists(ctx context.Context, q querier, mcid McID) (bool, error) {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM guild WHERE id=?`, string(mcid)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to fetch from guild table: %w", err)
	}
	return true, nil
}

// isInGuild reports whether the wynn profile's guild flag is set.
// Missing profiles count as not in guild.
func isInGuild(ctx context.Context, q querier, mcid McID) (bool, error) {
	var guild int64
	err := q.QueryRowContext(ctx, `SELECT guild FROM wynn WHERE id=?`, string(mcid)).Scan(&guild)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to fetch wynn.guild: %w", err)
	}
	return guild > 0, nil
}

func scanMember(row *sql.Row) (*Member, error) {
	var m Member
	var discord sql.NullInt64
	var mcid sql.NullString
	var typ, rnk string
	if err := row.Scan(&m.ID, &discord, &mcid, &typ, &rnk); err != nil {
		return nil, err
	}
	m.Discord = optDiscord(discord)
	m.Mcid = optMcid(mcid)
	m.Type = MemberType(typ)
	r, err := rank.DecodeMemberRank(rnk)
	if err != nil {
		return nil, err
	}
	m.Rank = r
	return &m, nil
}

// GetMember fetches a member, nil when it does not exist.
func (s *Store) GetMember(ctx context.Context, mid MemberID) (*Member, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT oid, discord, mcid, type, rank FROM member WHERE oid=?`, int64(mid))
	m, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch member: %w", err)
	}
	return m, nil
}

// MemberExists reports whether a member with the given id exists.
func (s *Store) MemberExists(ctx context.Context, mid MemberID) (bool, error) {
	return memberExists(ctx, s.db, mid)
}

// GetMemberRank returns a member's rank.
func (s *Store) GetMemberRank(ctx context.Context, mid MemberID) (rank.MemberRank, error) {
	var rnk string
	err := s.db.QueryRowContext(ctx, `SELECT rank FROM member WHERE oid=?`, int64(mid)).Scan(&rnk)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch member.rank: %w", err)
	}
	return rank.DecodeMemberRank(rnk)
}

// GetDiscordMid returns the member linked to a discord profile, nil
// when there is none.
func (s *Store) GetDiscordMid(ctx context.Context, discordID DiscordID) (*MemberID, error) {
	return getDiscordMid(ctx, s.db, discordID)
}

// GetWynnMid returns the member linked to a wynn profile, nil when
// there is none.
func (s *Store) GetWynnMid(ctx context.Context, mcid McID) (*MemberID, error) {
	return getWynnMid(ctx, s.db, mcid)
}

// GetDiscordProfile fetches a discord profile, nil when it does not
// exist.
func (s *Store) GetDiscordProfile(ctx context.Context, discordID DiscordID) (*DiscordProfile, error) {
	var p DiscordProfile
	var mid sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, mid, message, message_week, image, reaction, voice, voice_week
		 FROM discord WHERE id=?`, int64(discordID)).
		Scan(&p.ID, &mid, &p.Message, &p.MessageWeek, &p.Image, &p.Reaction, &p.Voice, &p.VoiceWeek)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from discord table: %w", err)
	}
	p.Member = optMember(mid)
	return &p, nil
}

// GetWynnProfile fetches a wynn profile, nil when it does not exist.
func (s *Store) GetWynnProfile(ctx context.Context, mcid McID) (*WynnProfile, error) {
	var p WynnProfile
	var mid sql.NullInt64
	var guild int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, mid, guild, ign, activity, activity_week FROM wynn WHERE id=?`, string(mcid)).
		Scan(&p.ID, &mid, &guild, &p.Ign, &p.Activity, &p.ActivityWeek)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from wynn table: %w", err)
	}
	p.Member = optMember(mid)
	p.InGuild = guild > 0
	return &p, nil
}

// GetGuildProfile fetches a guild profile, nil when it does not
// exist. The member link is resolved through the wynn profile.
func (s *Store) GetGuildProfile(ctx context.Context, mcid McID) (*GuildProfile, error) {
	var p GuildProfile
	var rnk string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, rank, xp, xp_week FROM guild WHERE id=?`, string(mcid)).
		Scan(&p.ID, &rnk, &p.XP, &p.XPWeek)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch from guild table: %w", err)
	}
	r, err := rank.DecodeGuildRank(rnk)
	if err != nil {
		return nil, err
	}
	p.Rank = r
	p.Member, err = getWynnMid(ctx, s.db, mcid)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetGuildRank returns a guild profile's rank.
func (s *Store) GetGuildRank(ctx context.Context, mcid McID) (rank.GuildRank, error) {
	var rnk string
	err := s.db.QueryRowContext(ctx, `SELECT rank FROM guild WHERE id=?`, string(mcid)).Scan(&rnk)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch guild.rank: %w", err)
	}
	return rank.DecodeGuildRank(rnk)
}

// GetIgn returns the ign of a wynn profile.
func (s *Store) GetIgn(ctx context.Context, mcid McID) (string, error) {
	var ign string
	err := s.db.QueryRowContext(ctx, `SELECT ign FROM wynn WHERE id=?`, string(mcid)).Scan(&ign)
	if err != nil {
		return "", fmt.Errorf("failed to fetch wynn.ign: %w", err)
	}
	return ign, nil
}

// GetIgnMcid returns the id of the wynn profile with the given ign,
// "" when there is none.
func (s *Store) GetIgnMcid(ctx context.Context, ign string) (McID, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `SELECT id FROM wynn WHERE ign=?`, ign).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch wynn.id: %w", err)
	}
	return McID(id), nil
}

// IsInGuild reports whether the wynn profile's guild flag is set.
func (s *Store) IsInGuild(ctx context.Context, mcid McID) (bool, error) {
	return isInGuild(ctx, s.db, mcid)
}

// TrackedIgns returns the igns of every wynn profile that is linked
// to a member, as a set.
func (s *Store) TrackedIgns(ctx context.Context) (map[string]bool, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT ign FROM wynn WHERE mid NOT NULL`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tracked igns: %w", err)
	}
	defer rows.Close()

	igns := make(map[string]bool)
	for rows.Next() {
		var ign string
		if err := rows.Scan(&ign); err != nil {
			return nil, fmt.Errorf("failed to scan tracked ign: %w", err)
		}
		igns[ign] = true
	}
	return igns, rows.Err()
}
