package bot

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/bwmarrin/discordgo"

	"github.com/nova-gc/wynnbot/internal/memberdb"
)

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil
}

// channelTracked reports whether stats may be tracked in a channel,
// considering its category's tags as well.
func (b *Bot) channelTracked(channelID string) bool {
	cid, ok := parseID(channelID)
	if !ok {
		return false
	}

	var parents []int64
	if channel, err := b.session.State.Channel(channelID); err == nil && channel.ParentID != "" {
		if pid, ok := parseID(channel.ParentID); ok {
			parents = append(parents, pid)
		}
	}

	return b.tags.TrackedChannel(cid, parents...)
}

// memberDiscordID returns the discord id if the user is linked to a
// member, false otherwise.
func (b *Bot) memberDiscordID(ctx context.Context, userID string) (memberdb.DiscordID, bool) {
	id, ok := parseID(userID)
	if !ok {
		return 0, false
	}

	mid, err := b.store.GetDiscordMid(ctx, memberdb.DiscordID(id))
	if err != nil {
		slog.Error("Failed to look up discord member", "id", userID, "error", err)
		return 0, false
	}
	return memberdb.DiscordID(id), mid != nil
}

// handleMessage counts messages and image posts of members in
// tracked channels
func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}
	if !b.channelTracked(m.ChannelID) {
		return
	}

	ctx := context.Background()
	id, ok := b.memberDiscordID(ctx, m.Author.ID)
	if !ok {
		return
	}

	tx, err := b.store.Begin(ctx)
	if err != nil {
		slog.Error("Failed to begin transaction", "error", err)
		return
	}
	defer tx.Rollback()

	if err := tx.AddMessage(ctx, id, 1); err != nil {
		slog.Error("Failed to update message stat", "id", id, "error", err)
		return
	}
	if n := int64(len(m.Attachments)); n > 0 {
		if err := tx.AddImage(ctx, id, n); err != nil {
			slog.Error("Failed to update image stat", "id", id, "error", err)
			return
		}
	}
	if err := tx.Commit(); err != nil {
		slog.Error("Failed to commit message stat", "error", err)
	}
}

// handleReactionAdd counts reactions of members in tracked channels
func (b *Bot) handleReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	if !b.channelTracked(r.ChannelID) {
		return
	}

	ctx := context.Background()
	id, ok := b.memberDiscordID(ctx, r.UserID)
	if !ok {
		return
	}

	tx, err := b.store.Begin(ctx)
	if err != nil {
		slog.Error("Failed to begin transaction", "error", err)
		return
	}
	defer tx.Rollback()

	if err := tx.AddReaction(ctx, id, 1); err != nil {
		slog.Error("Failed to update reaction stat", "id", id, "error", err)
		return
	}
	if err := tx.Commit(); err != nil {
		slog.Error("Failed to commit reaction stat", "error", err)
	}
}

// handleVoiceState starts and stops voice tracking as members move
// in and out of tracked voice channels
func (b *Bot) handleVoiceState(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	ctx := context.Background()
	id, ok := b.memberDiscordID(ctx, v.UserID)
	if !ok {
		return
	}

	// Muted or deafened members do not accumulate voice time.
	active := v.ChannelID != "" &&
		b.channelTracked(v.ChannelID) &&
		!v.Mute && !v.Deaf && !v.SelfMute && !v.SelfDeaf

	if active {
		dur, tracked := b.voice.Track(int64(id))
		if !tracked {
			slog.Info("Begin voice tracking", "id", v.UserID)
			return
		}
		// Channel moves restart the mark, credit what was accumulated.
		b.trackVoice(ctx, int64(id), dur)
		return
	}

	if dur, tracked := b.voice.Untrack(int64(id)); tracked {
		slog.Info("Finish voice tracking", "id", v.UserID, "duration", dur)
		b.trackVoice(ctx, int64(id), dur)
	}
}

// handleMemberRemove unlinks the discord profile of a member who
// left the server
func (b *Bot) handleMemberRemove(s *discordgo.Session, m *discordgo.GuildMemberRemove) {
	if m.User == nil {
		return
	}

	ctx := context.Background()
	id, ok := parseID(m.User.ID)
	if !ok {
		return
	}

	mid, err := b.store.GetDiscordMid(ctx, memberdb.DiscordID(id))
	if err != nil {
		slog.Error("Failed to look up discord member", "id", m.User.ID, "error", err)
		return
	}
	if mid == nil {
		return
	}

	slog.Info("Unlinking discord profile of departed user", "id", m.User.ID, "member", *mid)

	tx, err := b.store.Begin(ctx)
	if err != nil {
		slog.Error("Failed to begin transaction", "error", err)
		return
	}
	defer tx.Rollback()

	if _, err := tx.BindDiscord(ctx, *mid, nil); err != nil {
		slog.Error("Failed to unlink discord profile", "member", *mid, "error", err)
		return
	}
	if err := tx.Commit(); err != nil {
		slog.Error("Failed to commit discord unlink", "error", err)
	}
}
