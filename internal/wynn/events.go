// Package wynn talks to the Wynncraft and Mojang APIs and turns
// polled guild and server state into a stream of typed events.
package wynn

// Event is a change observed in the game: guild roster activity or
// players going on and off the servers. Events are produced in bulk
// by the poller and published in batches.
type Event interface {
	event()
}

// MemberJoin is emitted when a new member appears on the guild
// roster, and once per roster member on the very first poll so the
// database can be populated.
type MemberJoin struct {
	ID   string
	Rank string
	Ign  string
	XP   int64
}

// MemberLeave is emitted when a member disappears from the roster.
type MemberLeave struct {
	ID   string
	Rank string
	Ign  string
}

// MemberRankChange is emitted when a roster member's guild rank
// changes.
type MemberRankChange struct {
	ID      string
	Ign     string
	OldRank string
	NewRank string
}

// MemberContribute is emitted when a roster member's contributed xp
// grows.
type MemberContribute struct {
	ID    string
	Ign   string
	OldXP int64
	NewXP int64
}

// MemberNameChange is emitted when a roster member's ign changes.
// Only players on the in-game roster are observed, so renames of
// other players go unnoticed.
type MemberNameChange struct {
	ID      string
	OldName string
	NewName string
}

// GuildLevelUp carries the guild's new level.
type GuildLevelUp struct {
	Level int
}

// PlayerJoin is emitted when a tracked player logs on.
type PlayerJoin struct {
	Ign   string
	World string
}

// PlayerStay is emitted once per server poll while a tracked player
// stays online. Elapsed is the seconds since the previous poll.
type PlayerStay struct {
	Ign     string
	World   string
	Elapsed int64
}

// PlayerMove is emitted when a tracked player switches worlds.
type PlayerMove struct {
	Ign      string
	OldWorld string
	NewWorld string
}

// PlayerLeave is emitted when a tracked player logs off. World is the
// world they were last seen on.
type PlayerLeave struct {
	Ign   string
	World string
}

func (MemberJoin) event()       {}
func (MemberLeave) event()      {}
func (MemberRankChange) event() {}
func (MemberContribute) event() {}
func (MemberNameChange) event() {}
func (GuildLevelUp) event()     {}
func (PlayerJoin) event()       {}
func (PlayerStay) event()       {}
func (PlayerMove) event()       {}
func (PlayerLeave) event()      {}
