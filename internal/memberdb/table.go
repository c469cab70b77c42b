package memberdb

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// Leaderboard is a formatted table: a header row and data rows.
type Leaderboard struct {
	Header []string
	Rows   [][]string
}

func isTextColumn(c Column) bool {
	switch c {
	case ColMemberType, ColIgn, ColMcid, ColMemberRank, ColGuildRank:
		return true
	default:
		return false
	}
}

// queryValues runs a built query and returns one value slice per row,
// with nil for NULL cells.
func (s *Store) queryValues(ctx context.Context, b *queryBuilder) ([][]any, error) {
	rows, err := s.db.QueryContext(ctx, b.build())
	if err != nil {
		return nil, fmt.Errorf("failed to run member query: %w", err)
	}
	defer rows.Close()

	var out [][]any
	for rows.Next() {
		dests := make([]any, len(b.cols))
		for i, c := range b.cols {
			if isTextColumn(c) {
				dests[i] = new(sql.NullString)
			} else {
				dests[i] = new(sql.NullInt64)
			}
		}
		if err := rows.Scan(dests...); err != nil {
			return nil, fmt.Errorf("failed to scan member query row: %w", err)
		}

		vals := make([]any, len(b.cols))
		for i := range dests {
			switch d := dests[i].(type) {
			case *sql.NullString:
				if d.Valid {
					vals[i] = d.String
				}
			case *sql.NullInt64:
				if d.Valid {
					vals[i] = d.Int64
				}
			}
		}
		out = append(out, vals)
	}
	return out, rows.Err()
}

// ListMembers returns all members as [ign, discord id, rank] rows
// sorted by ign, with the given filters applied. Missing fields
// render as empty strings.
func (s *Store) ListMembers(ctx context.Context, filters ...Filter) ([][]string, error) {
	b := &queryBuilder{}
	b.column(ColIgn)
	b.column(ColDiscordID)
	b.column(ColMemberRank)
	for _, f := range filters {
		f.apply(b)
	}
	b.orderBy(ColIgn, false)

	vals, err := s.queryValues(ctx, b)
	if err != nil {
		return nil, err
	}

	rows := make([][]string, 0, len(vals))
	for _, v := range vals {
		rows = append(rows, []string{
			ColIgn.format(v[0]),
			ColDiscordID.format(v[1]),
			ColMemberRank.format(v[2]),
		})
	}
	return rows, nil
}

// StatLeaderboard returns members ranked by the given stat,
// descending. Each row is [position, name, value] where name is the
// member's ign, or its discord id when there is no wynn profile.
// Members with a zero stat are left out unless a StatFilter
// explicitly asks for zero.
func (s *Store) StatLeaderboard(ctx context.Context, stat Stat, filters ...Filter) (Leaderboard, error) {
	col := stat.Column()

	b := &queryBuilder{}
	b.column(ColIgn)
	b.column(ColDiscordID)
	b.column(col)

	wantsZero := false
	for _, f := range filters {
		if sf, ok := f.(StatFilter); ok && sf.Stat == stat && sf.Op == "=" && sf.Value == 0 {
			wantsZero = true
		}
		f.apply(b)
	}
	if !wantsZero {
		b.filter(fmt.Sprintf("COALESCE(%s, 0)>0", col.ident()))
	}
	HasProfileFilter{Profile: col.profile()}.apply(b)
	b.orderBy(col, true)

	vals, err := s.queryValues(ctx, b)
	if err != nil {
		return Leaderboard{}, err
	}

	lb := Leaderboard{
		Header: []string{"#", "name", stat.String()},
		Rows:   make([][]string, 0, len(vals)),
	}
	for i, v := range vals {
		name := ColIgn.format(v[0])
		if name == "" {
			name = ColDiscordID.format(v[1])
		}
		lb.Rows = append(lb.Rows, []string{
			fmt.Sprintf("%d", i+1),
			name,
			col.format(v[2]),
		})
	}
	return lb, nil
}

// WeeklyReset zeroes all weekly counters, broadcasting a WeeklyReset
// event carrying the leaderboards captured just before the reset.
// The event goes out even when one of the updates fails.
func (s *Store) WeeklyReset(ctx context.Context) error {
	message, err := s.StatLeaderboard(ctx, StatWeeklyMessage)
	if err != nil {
		return err
	}
	voice, err := s.StatLeaderboard(ctx, StatWeeklyVoice)
	if err != nil {
		return err
	}
	online, err := s.StatLeaderboard(ctx, StatWeeklyOnline)
	if err != nil {
		return err
	}
	xp, err := s.StatLeaderboard(ctx, StatWeeklyXP)
	if err != nil {
		return err
	}

	slog.Info("Resetting weekly stats")
	if _, err := s.db.ExecContext(ctx, `UPDATE discord SET message_week=0, voice_week=0`); err != nil {
		slog.Error("Failed to reset discord weekly stats", "error", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE wynn SET activity_week=0`); err != nil {
		slog.Error("Failed to reset wynn weekly stats", "error", err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE guild SET xp_week=0`); err != nil {
		slog.Error("Failed to reset guild weekly stats", "error", err)
	}

	s.bus.Publish(WeeklyReset{
		MessageBoard: message,
		VoiceBoard:   voice,
		OnlineBoard:  online,
		XPBoard:      xp,
	})
	return nil
}
