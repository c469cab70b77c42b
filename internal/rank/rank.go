// Package rank defines the ordered member and in-game guild rank
// enumerations and the mapping between them.
package rank

import "fmt"

// MemberRank is a community member rank. Lower values outrank higher
// ones, with 0 being the highest rank.
//
// The variants are named by position instead of title so that renaming a
// rank on the Discord side requires no code change.
type MemberRank int

const (
	MemberZero MemberRank = iota
	MemberOne
	MemberTwo
	MemberThree
	MemberFour
	MemberFive
	MemberSix
)

// MemberRanks lists all member ranks from highest to lowest.
var MemberRanks = [7]MemberRank{
	MemberZero, MemberOne, MemberTwo, MemberThree, MemberFour, MemberFive, MemberSix,
}

// InitialMemberRank is the rank given to newly added members.
const InitialMemberRank = MemberSix

var memberRankNames = [7]string{"Zero", "One", "Two", "Three", "Four", "Five", "Six"}

var memberRankTitles = [7]string{
	"Founder", "Commander", "Cosmonaut", "Architect", "Pilot", "Rocketeer", "Cadet",
}

// Promote returns the rank one level higher. ok is false when the rank
// is already the highest.
func (r MemberRank) Promote() (MemberRank, bool) {
	if r <= MemberZero || r > MemberSix {
		return r, false
	}
	return r - 1, true
}

// Demote returns the rank one level lower. ok is false when the rank is
// already the lowest.
func (r MemberRank) Demote() (MemberRank, bool) {
	if r < MemberZero || r >= MemberSix {
		return r, false
	}
	return r + 1, true
}

// Valid reports whether the rank is one of the defined levels.
func (r MemberRank) Valid() bool {
	return r >= MemberZero && r <= MemberSix
}

// String returns the rank's display title.
func (r MemberRank) String() string {
	if !r.Valid() {
		return fmt.Sprintf("MemberRank(%d)", int(r))
	}
	return memberRankTitles[r]
}

// Encode returns the stable storage name of the rank.
func (r MemberRank) Encode() string {
	if !r.Valid() {
		return ""
	}
	return memberRankNames[r]
}

// DecodeMemberRank parses a storage name produced by Encode.
func DecodeMemberRank(s string) (MemberRank, error) {
	for i, name := range memberRankNames {
		if name == s {
			return MemberRank(i), nil
		}
	}
	return 0, fmt.Errorf("unknown member rank %q", s)
}

// ParseMemberRank parses a display title.
func ParseMemberRank(s string) (MemberRank, error) {
	for i, title := range memberRankTitles {
		if title == s {
			return MemberRank(i), nil
		}
	}
	return 0, fmt.Errorf("unknown member rank title %q", s)
}

// GuildRank is an in-game guild rank, highest first.
type GuildRank int

const (
	GuildOwner GuildRank = iota
	GuildChief
	GuildStrategist
	GuildCaptain
	GuildRecruiter
	GuildRecruit
)

// GuildRanks lists all guild ranks from highest to lowest.
var GuildRanks = [6]GuildRank{
	GuildOwner, GuildChief, GuildStrategist, GuildCaptain, GuildRecruiter, GuildRecruit,
}

var guildRankNames = [6]string{
	"Owner", "Chief", "Strategist", "Captain", "Recruiter", "Recruit",
}

// MemberRank returns the member rank granted to a guild member holding
// this guild rank. The mapping is total and injective: Owner maps to
// One (Zero is reserved for the community founder) down to Recruit
// mapping to Six.
func (r GuildRank) MemberRank() MemberRank {
	switch r {
	case GuildOwner:
		return MemberOne
	case GuildChief:
		return MemberTwo
	case GuildStrategist:
		return MemberThree
	case GuildCaptain:
		return MemberFour
	case GuildRecruiter:
		return MemberFive
	default:
		return MemberSix
	}
}

// Valid reports whether the rank is one of the defined levels.
func (r GuildRank) Valid() bool {
	return r >= GuildOwner && r <= GuildRecruit
}

func (r GuildRank) String() string {
	if !r.Valid() {
		return fmt.Sprintf("GuildRank(%d)", int(r))
	}
	return guildRankNames[r]
}

// Encode returns the stable storage name of the rank.
func (r GuildRank) Encode() string {
	if !r.Valid() {
		return ""
	}
	return guildRankNames[r]
}

// DecodeGuildRank parses a storage name produced by Encode.
func DecodeGuildRank(s string) (GuildRank, error) {
	for i, name := range guildRankNames {
		if name == s {
			return GuildRank(i), nil
		}
	}
	return 0, fmt.Errorf("unknown guild rank %q", s)
}

// ParseAPIGuildRank parses the all-uppercase rank strings used by the
// Wynncraft API, e.g. "RECRUIT".
func ParseAPIGuildRank(s string) (GuildRank, error) {
	switch s {
	case "OWNER":
		return GuildOwner, nil
	case "CHIEF":
		return GuildChief, nil
	case "STRATEGIST":
		return GuildStrategist, nil
	case "CAPTAIN":
		return GuildCaptain, nil
	case "RECRUITER":
		return GuildRecruiter, nil
	case "RECRUIT":
		return GuildRecruit, nil
	}
	return 0, fmt.Errorf("unknown api guild rank %q", s)
}

// APIName returns the rank as the Wynncraft API spells it.
func (r GuildRank) APIName() string {
	switch r {
	case GuildOwner:
		return "OWNER"
	case GuildChief:
		return "CHIEF"
	case GuildStrategist:
		return "STRATEGIST"
	case GuildCaptain:
		return "CAPTAIN"
	case GuildRecruiter:
		return "RECRUITER"
	default:
		return "RECRUIT"
	}
}
