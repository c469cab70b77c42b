package memberdb

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nova-gc/wynnbot/internal/rank"
)

// Column enumerates the selectable columns of the member table and
// its profile tables. The set is closed so every switch over it is
// checked for completeness by the compiler.
type Column int

const (
	ColMemberID Column = iota
	ColMemberRank
	ColMemberType
	ColDiscordID
	ColMcid
	ColMessage
	ColWeeklyMessage
	ColVoice
	ColWeeklyVoice
	ColInGuild
	ColIgn
	ColOnline
	ColWeeklyOnline
	ColGuildRank
	ColXP
	ColWeeklyXP
)

// profile returns the profile table a column lives in, "" for columns
// of the member table itself.
func (c Column) profile() ProfileType {
	switch c {
	case ColMemberID, ColMemberRank, ColMemberType, ColDiscordID, ColMcid:
		return ""
	case ColInGuild, ColIgn, ColOnline, ColWeeklyOnline:
		return ProfileWynn
	case ColGuildRank, ColXP, ColWeeklyXP:
		return ProfileGuild
	default:
		return ProfileDiscord
	}
}

// dbName returns the column's name within its table.
func (c Column) dbName() string {
	switch c {
	case ColMemberID:
		return "oid"
	case ColMemberRank, ColGuildRank:
		return "rank"
	case ColMemberType:
		return "type"
	case ColDiscordID:
		return "discord"
	case ColMcid:
		return "mcid"
	case ColMessage:
		return "message"
	case ColWeeklyMessage:
		return "message_week"
	case ColVoice:
		return "voice"
	case ColWeeklyVoice:
		return "voice_week"
	case ColInGuild:
		return "guild"
	case ColIgn:
		return "ign"
	case ColOnline:
		return "activity"
	case ColWeeklyOnline:
		return "activity_week"
	case ColXP:
		return "xp"
	default:
		return "xp_week"
	}
}

// ident returns the unique name the column is selected as.
func (c Column) ident() string {
	if c == ColGuildRank {
		return "guild_rank"
	}
	if c == ColMemberID {
		return "member_id"
	}
	return c.dbName()
}

// Header returns the column's display name for table headers.
func (c Column) Header() string {
	switch c {
	case ColMemberID:
		return "id"
	case ColMemberRank:
		return "rank"
	case ColMemberType:
		return "type"
	case ColDiscordID:
		return "discord"
	case ColMcid:
		return "mc id"
	case ColMessage:
		return "message"
	case ColWeeklyMessage:
		return "weekly message"
	case ColVoice:
		return "voice"
	case ColWeeklyVoice:
		return "weekly voice"
	case ColInGuild:
		return "in guild"
	case ColIgn:
		return "ign"
	case ColOnline:
		return "online"
	case ColWeeklyOnline:
		return "weekly online"
	case ColGuildRank:
		return "guild rank"
	case ColXP:
		return "xp"
	default:
		return "weekly xp"
	}
}

// selectWhere returns the condition that locates a member's row in a
// profile table.
func profileJoin(p ProfileType) string {
	switch p {
	case ProfileGuild:
		return "id=member.mcid"
	case ProfileWynn:
		return "mid=member.oid"
	default:
		return "id=member.discord"
	}
}

// selectExpr returns the SQL expression selecting the column from the
// member table's point of view. Profile columns become correlated
// subqueries so that members without the profile select NULL.
func (c Column) selectExpr() string {
	p := c.profile()
	if p == "" {
		return fmt.Sprintf("%s AS %s", c.dbName(), c.ident())
	}
	return fmt.Sprintf("(SELECT %s FROM %s WHERE %s) AS %s",
		c.dbName(), string(p), profileJoin(p), c.ident())
}

// sortExpr returns the expression to order by. Rank columns store
// names, so they need an explicit CASE to sort by seniority.
func (c Column) sortExpr() string {
	switch c {
	case ColMemberRank:
		return `CASE ` + c.ident() + `
			WHEN 'Six' THEN 0 WHEN 'Five' THEN 1 WHEN 'Four' THEN 2
			WHEN 'Three' THEN 3 WHEN 'Two' THEN 4 WHEN 'One' THEN 5
			WHEN 'Zero' THEN 6 END`
	case ColGuildRank:
		return `CASE ` + c.ident() + `
			WHEN 'Recruit' THEN 0 WHEN 'Recruiter' THEN 1 WHEN 'Captain' THEN 2
			WHEN 'Strategist' THEN 3 WHEN 'Chief' THEN 4 WHEN 'Owner' THEN 5 END`
	default:
		return c.ident()
	}
}

// format renders a scanned value for display. Missing values render
// as the empty string.
func (c Column) format(v any) string {
	if v == nil {
		return ""
	}
	switch c {
	case ColMemberType, ColIgn, ColMcid:
		if s, ok := v.(string); ok {
			return s
		}
	case ColMemberID, ColDiscordID:
		if n, ok := v.(int64); ok {
			return strconv.FormatInt(n, 10)
		}
	case ColMessage, ColWeeklyMessage, ColXP, ColWeeklyXP:
		if n, ok := v.(int64); ok {
			return fmtNum(n)
		}
	case ColVoice, ColWeeklyVoice, ColOnline, ColWeeklyOnline:
		if n, ok := v.(int64); ok {
			return fmtSeconds(n)
		}
	case ColInGuild:
		if n, ok := v.(int64); ok && n > 0 {
			return "true"
		}
		return "false"
	case ColMemberRank:
		if s, ok := v.(string); ok {
			if r, err := rank.DecodeMemberRank(s); err == nil {
				return r.String()
			}
		}
	case ColGuildRank:
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Stat enumerates the numeric activity columns that leaderboards can
// rank by.
type Stat int

const (
	StatMessage Stat = iota
	StatWeeklyMessage
	StatVoice
	StatWeeklyVoice
	StatOnline
	StatWeeklyOnline
	StatXP
	StatWeeklyXP
)

// Column returns the column holding the stat's value.
func (s Stat) Column() Column {
	switch s {
	case StatMessage:
		return ColMessage
	case StatWeeklyMessage:
		return ColWeeklyMessage
	case StatVoice:
		return ColVoice
	case StatWeeklyVoice:
		return ColWeeklyVoice
	case StatOnline:
		return ColOnline
	case StatWeeklyOnline:
		return ColWeeklyOnline
	case StatXP:
		return ColXP
	default:
		return ColWeeklyXP
	}
}

func (s Stat) String() string {
	return s.Column().Header()
}

// Filter narrows a member table query.
type Filter interface {
	apply(b *queryBuilder)
}

// TypeFilter keeps only members of the given type.
type TypeFilter struct {
	Type MemberType
}

func (f TypeFilter) apply(b *queryBuilder) {
	b.filter("type='" + string(f.Type) + "'")
}

// GuildFilter keeps members by in-game guild membership.
type GuildFilter struct {
	InGuild bool
}

func (f GuildFilter) apply(b *queryBuilder) {
	cond := "COALESCE((SELECT guild FROM wynn WHERE mid=member.oid), 0)"
	if f.InGuild {
		b.filter(cond + ">0")
	} else {
		b.filter(cond + "=0")
	}
}

// HasProfileFilter keeps members that have the given profile linked.
type HasProfileFilter struct {
	Profile ProfileType
}

func (f HasProfileFilter) apply(b *queryBuilder) {
	switch f.Profile {
	case ProfileWynn:
		b.filter("mcid NOT NULL")
	case ProfileGuild:
		GuildFilter{InGuild: true}.apply(b)
	default:
		b.filter("discord NOT NULL")
	}
}

// RankFilter keeps members whose rank is at least as high as Rank.
// Rank 0 is the highest, so the comparison is inverted relative to
// the numeric value.
type RankFilter struct {
	Rank rank.MemberRank
}

func (f RankFilter) apply(b *queryBuilder) {
	names := make([]string, 0, int(f.Rank)+1)
	for r := rank.MemberZero; r <= f.Rank; r++ {
		names = append(names, "'"+r.Encode()+"'")
	}
	b.filter("rank IN (" + strings.Join(names, ",") + ")")
}

// StatFilter keeps members whose stat compares against Value with the
// given operator, one of "<", "<=", "=", ">=", ">".
type StatFilter struct {
	Stat  Stat
	Op    string
	Value int64
}

func (f StatFilter) apply(b *queryBuilder) {
	col := f.Stat.Column()
	b.filter(fmt.Sprintf("COALESCE(%s, 0)%s%d", col.ident(), f.Op, f.Value))
	b.ensureSelected(col)
}

// NameFilter keeps members whose ign contains the given substring.
type NameFilter struct {
	Contains string
}

func (f NameFilter) apply(b *queryBuilder) {
	escaped := strings.ReplaceAll(f.Contains, "'", "''")
	b.filter("COALESCE((SELECT ign FROM wynn WHERE mid=member.oid), '') LIKE '%" + escaped + "%'")
}

// queryBuilder assembles a SELECT over the member table. Profile
// columns are pulled in through correlated subqueries, so everything
// runs as a single statement.
type queryBuilder struct {
	cols    []Column
	selects []string
	filters []string
	orders  []string
}

func (b *queryBuilder) column(c Column) {
	b.cols = append(b.cols, c)
	b.selects = append(b.selects, c.selectExpr())
}

// ensureSelected adds a column needed by a filter without duplicating
// an existing selection.
func (b *queryBuilder) ensureSelected(c Column) {
	for _, have := range b.cols {
		if have == c {
			return
		}
	}
	b.column(c)
}

func (b *queryBuilder) filter(cond string) {
	b.filters = append(b.filters, cond)
}

func (b *queryBuilder) orderBy(c Column, desc bool) {
	dir := "ASC"
	if desc {
		dir = "DESC"
	}
	b.orders = append(b.orders, c.sortExpr()+" "+dir)
}

func (b *queryBuilder) build() string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.selects, ", "))
	sb.WriteString(" FROM member")
	if len(b.filters) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.filters, " AND "))
	}
	if len(b.orders) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orders, ", "))
	}
	return sb.String()
}

// fmtNum formats an integer with thousands separators.
func fmtNum(n int64) string {
	s := strconv.FormatInt(n, 10)
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	parts = append([]string{s}, parts...)
	out := strings.Join(parts, ",")
	if neg {
		out = "-" + out
	}
	return out
}

// fmtSeconds formats a duration in seconds as a compact "1d 2h 3m"
// style string. Durations under a minute render as seconds.
func fmtSeconds(secs int64) string {
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	days := secs / 86400
	hours := (secs % 86400) / 3600
	mins := (secs % 3600) / 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if mins > 0 {
		parts = append(parts, fmt.Sprintf("%dm", mins))
	}
	return strings.Join(parts, " ")
}
