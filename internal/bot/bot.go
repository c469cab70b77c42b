package bot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/nova-gc/wynnbot/internal/activity"
	"github.com/nova-gc/wynnbot/internal/config"
	"github.com/nova-gc/wynnbot/internal/event"
	"github.com/nova-gc/wynnbot/internal/memberdb"
	"github.com/nova-gc/wynnbot/internal/roster"
	"github.com/nova-gc/wynnbot/internal/tags"
	"github.com/nova-gc/wynnbot/internal/wynn"
)

// Bot represents the Discord bot instance
type Bot struct {
	config   *config.Config
	session  *discordgo.Session
	store    *memberdb.Store
	tags     *tags.Store
	voice    *activity.VoiceTracker
	client   *wynn.Client
	wynnBus  *event.Bus[[]wynn.Event]
	poller   *wynn.Poller
	roster   *roster.Handler
	commands []*discordgo.ApplicationCommand

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a new Bot instance
func New(cfg *config.Config) (*Bot, error) {
	// Create Discord session
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Set intents
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMembers

	// Initialize the member database
	store, err := memberdb.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize member database: %w", err)
	}

	// Load tag configuration
	tagStore, err := tags.Load(cfg.TagConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load tag configuration: %w", err)
	}

	b := &Bot{
		config:   cfg,
		session:  session,
		store:    store,
		tags:     tagStore,
		voice:    activity.NewVoiceTracker(),
		client:   wynn.NewClient(),
		wynnBus:  event.NewBus[[]wynn.Event](64),
		stopChan: make(chan struct{}),
	}

	// Register command and gateway handlers
	b.registerHandlers()

	return b, nil
}

// Start opens the Discord connection and starts background tasks
func (b *Bot) Start(ctx context.Context) error {
	// Open Discord connection
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	slog.Info("Connected to Discord", "user", b.session.State.User.Username)

	// Register slash commands
	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	// Start the roster handler before the poller so the initial
	// roster fetch is consumed.
	b.roster = roster.NewHandler(b.store, b.wynnBus)
	b.roster.Start(ctx)

	b.poller = wynn.NewPoller(b.client, b.wynnBus, b.store, b.config.GuildName, b.config.PollingIntervalSeconds)
	b.poller.Start(ctx)

	b.wg.Add(3)
	go b.voiceFlushLoop(ctx)
	go b.eventLogLoop(ctx)
	go b.weeklyResetLoop(ctx)

	return nil
}

// Stop gracefully shuts down the bot
func (b *Bot) Stop() error {
	close(b.stopChan)

	if b.poller != nil {
		b.poller.Stop()
	}
	if b.roster != nil {
		b.roster.Stop()
	}
	b.wg.Wait()

	// Credit any voice time still being tracked
	b.flushVoice(context.Background())

	if err := b.tags.Save(); err != nil {
		slog.Error("Failed to save tag configuration", "error", err)
	}

	if b.store != nil {
		b.store.Close()
	}

	// Close Discord session
	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// registerHandlers sets up Discord event handlers
func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleInteraction)
	b.session.AddHandler(b.handleMessage)
	b.session.AddHandler(b.handleReactionAdd)
	b.session.AddHandler(b.handleVoiceState)
	b.session.AddHandler(b.handleMemberRemove)
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Bot is ready", "guilds", len(r.Guilds))
	})
}

// voiceFlushLoop credits ongoing voice sessions once a minute, so
// long sessions accumulate incrementally instead of all at once on
// leave.
func (b *Bot) voiceFlushLoop(ctx context.Context) {
	defer b.wg.Done()

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.stopChan:
			return
		case <-ticker.C:
			b.flushVoice(ctx)
		}
	}
}

func (b *Bot) flushVoice(ctx context.Context) {
	for id, dur := range b.voice.Flush() {
		b.trackVoice(ctx, id, dur)
	}
}

// trackVoice credits voice chat time to a discord profile
func (b *Bot) trackVoice(ctx context.Context, discordID int64, dur time.Duration) {
	seconds := int64(dur.Seconds())
	if seconds <= 0 {
		return
	}

	tx, err := b.store.Begin(ctx)
	if err != nil {
		slog.Error("Failed to begin transaction", "error", err)
		return
	}
	defer tx.Rollback()

	if err := tx.AddVoice(ctx, memberdb.DiscordID(discordID), seconds); err != nil {
		slog.Error("Failed to update voice stat", "id", discordID, "error", err)
		return
	}
	if err := tx.Commit(); err != nil {
		slog.Error("Failed to commit voice stat", "error", err)
	}
}

// weeklyResetLoop zeroes the weekly stat counters every Monday at
// midnight UTC.
func (b *Bot) weeklyResetLoop(ctx context.Context) {
	defer b.wg.Done()

	for {
		timer := time.NewTimer(time.Until(nextWeeklyReset(time.Now())))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-b.stopChan:
			timer.Stop()
			return
		case <-timer.C:
			slog.Info("Starting weekly reset")
			if err := b.store.WeeklyReset(ctx); err != nil {
				slog.Error("Failed weekly reset", "error", err)
			}
		}
	}
}

// nextWeeklyReset returns the next Monday 00:00 UTC after now.
func nextWeeklyReset(now time.Time) time.Time {
	now = now.UTC()
	days := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, days)
	if !next.After(now) {
		next = next.AddDate(0, 0, 7)
	}
	return next
}

// eventLogLoop logs committed member database events
func (b *Bot) eventLogLoop(ctx context.Context) {
	defer b.wg.Done()

	events, cancel := b.store.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case <-b.stopChan:
			return
		case ev := <-events:
			slog.Info("Member database event", "event", fmt.Sprintf("%T", ev), "detail", ev)
		}
	}
}
