package memberdb

import (
	"github.com/nova-gc/wynnbot/internal/rank"
)

// MemberID is the surrogate key of a member row. Ids are assigned on
// creation and never reused.
type MemberID int64

// DiscordID is a Discord account id.
type DiscordID int64

// McID is a Minecraft account id as reported by the Mojang API.
type McID string

// MemberType describes which profiles a member has linked. It is a
// pure function of the member's links and is never set independently
// of a link operation.
type MemberType string

const (
	// TypeFull is a member with both discord and wynn links.
	TypeFull MemberType = "full"
	// TypeDiscordPartial is a member with only a discord link.
	TypeDiscordPartial MemberType = "discord"
	// TypeWynnPartial is a member with only a wynn link, not in the guild.
	TypeWynnPartial MemberType = "wynn"
	// TypeGuildPartial is a member with only a wynn link that is in the guild.
	TypeGuildPartial MemberType = "guild"
)

// IsFull reports whether the member has both profiles linked.
func (t MemberType) IsFull() bool { return t == TypeFull }

// IsPartial reports whether the member is missing a profile link.
func (t MemberType) IsPartial() bool { return !t.IsFull() }

// ProfileType identifies one of the profile tables.
type ProfileType string

const (
	ProfileDiscord ProfileType = "discord"
	ProfileWynn    ProfileType = "wynn"
	ProfileGuild   ProfileType = "guild"
)

// Member is the canonical cross-platform identity record.
type Member struct {
	ID      MemberID
	Discord *DiscordID
	Mcid    *McID
	Type    MemberType
	Rank    rank.MemberRank
}

// DiscordProfile is a per-Discord-account record. It exists
// independently of any member and keeps accumulating counters even
// when unlinked.
type DiscordProfile struct {
	ID          DiscordID
	Member      *MemberID
	Message     int64
	MessageWeek int64
	Image       int64
	Reaction    int64
	Voice       int64
	VoiceWeek   int64
}

// WynnProfile is a per-Minecraft-account record.
type WynnProfile struct {
	ID           McID
	Member       *MemberID
	InGuild      bool
	Ign          string
	Activity     int64
	ActivityWeek int64
}

// GuildProfile extends a wynn profile while the account is in the
// in-game guild. Its existence always coincides with the wynn
// profile's InGuild flag.
type GuildProfile struct {
	ID     McID
	Member *MemberID
	Rank   rank.GuildRank
	XP     int64
	XPWeek int64
}
