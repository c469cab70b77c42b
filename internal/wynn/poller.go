package wynn

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/nova-gc/wynnbot/internal/event"
)

// IgnSource supplies the set of igns worth tracking on the servers,
// the ones that belong to a known member.
type IgnSource interface {
	TrackedIgns(ctx context.Context) (map[string]bool, error)
}

// Poller periodically fetches the guild roster and the server player
// lists, diffs them against the previous fetch, and publishes the
// resulting events in batches.
type Poller struct {
	client    *Client
	bus       *event.Bus[[]Event]
	igns      IgnSource
	guildName string
	interval  time.Duration

	stopChan chan struct{}
	wg       sync.WaitGroup

	// Guild roster diff state.
	guildTimestamp int64
	roster         map[string]GuildMember
	guildLevel     int

	// Server list diff state. online maps a tracked ign to the world
	// it was last seen on.
	serverTimestamp int64
	online          map[string]string
	onlineReady     bool
}

// NewPoller creates a new Poller publishing on the given bus
func NewPoller(client *Client, bus *event.Bus[[]Event], igns IgnSource, guildName string, intervalSeconds int) *Poller {
	return &Poller{
		client:    client,
		bus:       bus,
		igns:      igns,
		guildName: guildName,
		interval:  time.Duration(intervalSeconds) * time.Second,
		stopChan:  make(chan struct{}),
	}
}

// Start begins the guild and server polling loops
func (p *Poller) Start(ctx context.Context) {
	slog.Info("Starting wynn poller", "guild", p.guildName, "interval", p.interval)

	p.wg.Add(2)
	go p.loop(ctx, p.interval, p.pollGuild)
	go p.loop(ctx, time.Minute, p.pollServers)
}

// Stop signals the polling loops to stop and waits for them
func (p *Poller) Stop() {
	close(p.stopChan)
	p.wg.Wait()
}

func (p *Poller) loop(ctx context.Context, interval time.Duration, poll func(ctx context.Context)) {
	defer p.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial poll
	poll(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Poller loop stopped (context cancelled)")
			return
		case <-p.stopChan:
			slog.Info("Poller loop stopped")
			return
		case <-ticker.C:
			poll(ctx)
		}
	}
}

// pollGuild fetches the guild stats and publishes roster events
func (p *Poller) pollGuild(ctx context.Context) {
	guild, err := p.client.GetGuildStats(ctx, p.guildName)
	if err != nil {
		slog.Error("Failed to fetch guild stats", "guild", p.guildName, "error", err)
		return
	}

	events := p.diffGuild(guild)
	if len(events) > 0 {
		p.bus.Publish(events)
	}
}

// diffGuild compares a guild stats response against the previous one
// and returns the changes. Outdated responses yield nothing.
func (p *Poller) diffGuild(guild *Guild) []Event {
	if guild.Request.Timestamp <= p.guildTimestamp {
		return nil
	}
	p.guildTimestamp = guild.Request.Timestamp

	newRoster := make(map[string]GuildMember, len(guild.Members))
	for _, m := range guild.Members {
		newRoster[m.UUID] = m
	}

	var events []Event

	if p.roster == nil {
		// First fetch: emit a join per member so the database gets
		// populated on the initial run.
		slog.Info("Emitting MemberJoin for all roster members, roster state is empty",
			"count", len(guild.Members))
		for _, m := range guild.Members {
			events = append(events, MemberJoin{ID: m.UUID, Rank: m.Rank, Ign: m.Name, XP: m.Contributed})
		}
	} else {
		if guild.Level > p.guildLevel && p.guildLevel > 0 {
			slog.Info("Guild level up", "level", guild.Level)
			events = append(events, GuildLevelUp{Level: guild.Level})
		}

		for id, m := range newRoster {
			if _, known := p.roster[id]; !known {
				slog.Info("Guild member join", "ign", m.Name)
				events = append(events, MemberJoin{ID: m.UUID, Rank: m.Rank, Ign: m.Name, XP: m.Contributed})
			}
		}
		for id, old := range p.roster {
			cur, still := newRoster[id]
			if !still {
				slog.Info("Guild member leave", "ign", old.Name)
				events = append(events, MemberLeave{ID: old.UUID, Rank: old.Rank, Ign: old.Name})
				continue
			}
			events = append(events, memberDiff(old, cur)...)
		}
	}

	p.roster = newRoster
	p.guildLevel = guild.Level
	return events
}

// memberDiff returns the events for one roster member's changes.
func memberDiff(old, cur GuildMember) []Event {
	var events []Event

	if old.Name != cur.Name {
		slog.Info("Guild member name change", "old", old.Name, "new", cur.Name)
		events = append(events, MemberNameChange{ID: old.UUID, OldName: old.Name, NewName: cur.Name})
	}
	if old.Rank != cur.Rank {
		slog.Info("Guild member rank change", "ign", cur.Name, "old", old.Rank, "new", cur.Rank)
		events = append(events, MemberRankChange{ID: old.UUID, Ign: cur.Name, OldRank: old.Rank, NewRank: cur.Rank})
	}
	if old.Contributed < cur.Contributed {
		events = append(events, MemberContribute{
			ID: old.UUID, Ign: cur.Name, OldXP: old.Contributed, NewXP: cur.Contributed,
		})
	}

	return events
}

// pollServers fetches the online player lists and publishes player
// session events
func (p *Poller) pollServers(ctx context.Context) {
	list, err := p.client.GetOnlinePlayers(ctx)
	if err != nil {
		slog.Error("Failed to fetch server list", "error", err)
		return
	}

	tracked, err := p.igns.TrackedIgns(ctx)
	if err != nil {
		slog.Error("Failed to list tracked igns", "error", err)
		return
	}

	events := p.diffServers(list, tracked)
	if len(events) > 0 {
		p.bus.Publish(events)
	}
}

// diffServers compares an online player list against the previous one
// and returns session events for tracked players. The first usable
// response only seeds the state.
func (p *Poller) diffServers(list *ServerList, tracked map[string]bool) []Event {
	if list.Request.Timestamp <= p.serverTimestamp {
		return nil
	}
	var elapsed int64
	if p.serverTimestamp != 0 {
		elapsed = list.Request.Timestamp - p.serverTimestamp
	}
	p.serverTimestamp = list.Request.Timestamp

	nowOnline := make(map[string]string)
	for world, igns := range list.Worlds {
		for _, ign := range igns {
			if tracked[ign] {
				nowOnline[ign] = world
			}
		}
	}

	if !p.onlineReady {
		p.online = nowOnline
		p.onlineReady = true
		return nil
	}

	var events []Event
	for ign, world := range nowOnline {
		prevWorld, wasOnline := p.online[ign]
		switch {
		case !wasOnline:
			slog.Info("Player join", "ign", ign, "world", world)
			events = append(events, PlayerJoin{Ign: ign, World: world})
		case prevWorld != world:
			slog.Info("Player move", "ign", ign, "old", prevWorld, "new", world)
			events = append(events, PlayerMove{Ign: ign, OldWorld: prevWorld, NewWorld: world})
			if elapsed > 0 {
				events = append(events, PlayerStay{Ign: ign, World: world, Elapsed: elapsed})
			}
		default:
			if elapsed > 0 {
				events = append(events, PlayerStay{Ign: ign, World: world, Elapsed: elapsed})
			}
		}
	}
	for ign, world := range p.online {
		if _, still := nowOnline[ign]; !still {
			slog.Info("Player leave", "ign", ign, "world", world)
			events = append(events, PlayerLeave{Ign: ign, World: world})
		}
	}

	p.online = nowOnline
	return events
}
