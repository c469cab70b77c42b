package memberdb

import "github.com/nova-gc/wynnbot/internal/rank"

// Event is a change notification broadcast after a committed
// transaction. Downstream consumers (role sync, nickname sync,
// logging) receive the events of one transaction in emission order.
type Event interface {
	event()
}

// MemberAdd is emitted when a new member row is created.
type MemberAdd struct {
	Member  MemberID
	Discord *DiscordID
	Mcid    *McID
	Rank    rank.MemberRank
}

// MemberRemove is emitted when a member row is deleted. The ids carry
// the links the member held before removal.
type MemberRemove struct {
	Member  MemberID
	Discord *DiscordID
	Mcid    *McID
}

// MemberFullPromote is emitted when a partial member gains its second
// link and becomes full.
type MemberFullPromote struct {
	Member MemberID
	Before MemberType
}

// MemberAutoGuildDemote is emitted when a member loses links but is
// kept as a guild partial because its wynn account is in the guild.
type MemberAutoGuildDemote struct {
	Member MemberID
	Before MemberType
}

// MemberRankChange is emitted by callers of SetMemberRank alongside
// the external action that caused the change.
type MemberRankChange struct {
	Member MemberID
	Old    rank.MemberRank
	New    rank.MemberRank
}

// WynnProfileAdd is emitted when a wynn profile row is created.
type WynnProfileAdd struct {
	Mcid   McID
	Member *MemberID
}

// WynnProfileBind is emitted when a member's wynn link is set.
type WynnProfileBind struct {
	Member MemberID
	Old    *McID
	New    McID
}

// WynnProfileUnbind is emitted when a member's wynn link is cleared.
// Removed is true when the member was removed, or demoted to guild
// partial, as part of the same cascade.
type WynnProfileUnbind struct {
	Member  MemberID
	Before  McID
	Removed bool
}

// GuildProfileAdd is emitted when a guild profile row is created.
type GuildProfileAdd struct {
	Mcid McID
	Rank rank.GuildRank
}

// DiscordProfileAdd is emitted when a discord profile row is created.
type DiscordProfileAdd struct {
	Discord DiscordID
	Member  *MemberID
}

// DiscordProfileBind is emitted when a member's discord link is set.
type DiscordProfileBind struct {
	Member MemberID
	Old    *DiscordID
	New    DiscordID
}

// DiscordProfileUnbind is emitted when a member's discord link is
// cleared. Removed is true when the member was removed, or demoted to
// guild partial, as part of the same cascade.
type DiscordProfileUnbind struct {
	Member  MemberID
	Before  DiscordID
	Removed bool
}

// WeeklyReset is emitted after the weekly counters are zeroed; it
// carries the leaderboards captured just before the reset.
type WeeklyReset struct {
	MessageBoard Leaderboard
	VoiceBoard   Leaderboard
	OnlineBoard  Leaderboard
	XPBoard      Leaderboard
}

func (MemberAdd) event()             {}
func (MemberRemove) event()          {}
func (MemberFullPromote) event()     {}
func (MemberAutoGuildDemote) event() {}
func (MemberRankChange) event()      {}
func (WynnProfileAdd) event()        {}
func (WynnProfileBind) event()       {}
func (WynnProfileUnbind) event()     {}
func (GuildProfileAdd) event()       {}
func (DiscordProfileAdd) event()     {}
func (DiscordProfileBind) event()    {}
func (DiscordProfileUnbind) event()  {}
func (WeeklyReset) event()           {}
