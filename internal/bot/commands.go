package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/nova-gc/wynnbot/internal/memberdb"
	"github.com/nova-gc/wynnbot/internal/rank"
	"github.com/nova-gc/wynnbot/internal/tags"
)

// buildRankChoices creates the member rank choices for slash commands
func buildRankChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(rank.MemberRanks))
	for _, r := range rank.MemberRanks {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  r.String(),
			Value: r.String(),
		})
	}
	return choices
}

// buildStatChoices creates the leaderboard stat choices
func buildStatChoices() []*discordgo.ApplicationCommandOptionChoice {
	stats := []memberdb.Stat{
		memberdb.StatMessage, memberdb.StatWeeklyMessage,
		memberdb.StatVoice, memberdb.StatWeeklyVoice,
		memberdb.StatOnline, memberdb.StatWeeklyOnline,
		memberdb.StatXP, memberdb.StatWeeklyXP,
	}
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(stats))
	for _, s := range stats {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  s.String(),
			Value: fmt.Sprintf("%d", int(s)),
		})
	}
	return choices
}

// buildTagChoices creates the channel tag choices
func buildTagChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(tags.ChannelTags))
	for _, tag := range tags.ChannelTags {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  string(tag),
			Value: string(tag),
		})
	}
	return choices
}

// Slash command definitions
func (b *Bot) getCommandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "link",
			Description: "Link a discord user with a minecraft account",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "ign",
					Description: "The minecraft in-game name",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "The discord user to link (defaults to you)",
				},
			},
		},
		{
			Name:        "unlink",
			Description: "Remove a discord user's member link",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "The discord user to unlink (defaults to you)",
				},
			},
		},
		{
			Name:        "profile",
			Description: "Show a member's profile and stats",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "The discord user to look up (defaults to you)",
				},
			},
		},
		{
			Name:        "members",
			Description: "List all members",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "name",
					Description: "Only members whose ign contains this",
				},
			},
		},
		{
			Name:        "top",
			Description: "Show a stat leaderboard",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "stat",
					Description: "The stat to rank by",
					Required:    true,
					Choices:     buildStatChoices(),
				},
			},
		},
		{
			Name:        "setrank",
			Description: "Set a member's rank",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "The member's discord user",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "rank",
					Description: "The new rank",
					Required:    true,
					Choices:     buildRankChoices(),
				},
			},
		},
		{
			Name:        "tag",
			Description: "Attach or detach a channel tag",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "action",
					Description: "add or remove",
					Required:    true,
					Choices: []*discordgo.ApplicationCommandOptionChoice{
						{Name: "add", Value: "add"},
						{Name: "remove", Value: "remove"},
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "The channel to tag",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "tag",
					Description: "The tag",
					Required:    true,
					Choices:     buildTagChoices(),
				},
			},
		},
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	slog.Info("Registering slash commands")

	commandDefinitions := b.getCommandDefinitions()
	registeredCommands := make([]*discordgo.ApplicationCommand, 0, len(commandDefinitions))

	for _, cmd := range commandDefinitions {
		registered, err := b.session.ApplicationCommandCreate(
			b.session.State.User.ID,
			"", // Empty string = global command
			cmd,
		)
		if err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
		registeredCommands = append(registeredCommands, registered)
		slog.Debug("Registered command", "name", cmd.Name)
	}

	b.commands = registeredCommands
	slog.Info("Slash commands registered", "count", len(registeredCommands))
	return nil
}

// handleInteraction processes slash command interactions
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	slog.Debug("Received command", "command", data.Name, "guild", i.GuildID)

	switch data.Name {
	case "link":
		b.handleLink(s, i)
	case "unlink":
		b.handleUnlink(s, i)
	case "profile":
		b.handleProfile(s, i)
	case "members":
		b.handleMembers(s, i)
	case "top":
		b.handleTop(s, i)
	case "setrank":
		b.handleSetRank(s, i)
	case "tag":
		b.handleTag(s, i)
	default:
		slog.Warn("Unknown command", "command", data.Name)
	}
}

// commandOptions indexes an interaction's options by name
func commandOptions(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	byName := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		byName[opt.Name] = opt
	}
	return byName
}

// targetUser returns the "user" option if present, the invoker
// otherwise.
func targetUser(s *discordgo.Session, i *discordgo.InteractionCreate) *discordgo.User {
	if opt, ok := commandOptions(i)["user"]; ok {
		return opt.UserValue(s)
	}
	if i.Member != nil {
		return i.Member.User
	}
	return i.User
}

// handleLink handles the /link command
func (b *Bot) handleLink(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ign := commandOptions(i)["ign"].StringValue()
	user := targetUser(s, i)

	// Respond immediately to avoid timeout, the Mojang lookup can be
	// slow.
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})

	discordID, ok := parseID(user.ID)
	if !ok {
		b.editResponse(s, i, "Invalid discord user id.")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mcidStr, err := b.client.GetIgnID(ctx, ign)
	if err != nil {
		slog.Error("Failed to resolve ign", "ign", ign, "error", err)
		b.editResponse(s, i, fmt.Sprintf("Could not find a minecraft account named `%s`.", ign))
		return
	}

	did := memberdb.DiscordID(discordID)
	mcid := memberdb.McID(mcidStr)

	wynnMid, err := b.store.GetWynnMid(ctx, mcid)
	if err != nil {
		slog.Error("Failed to look up wynn member", "mcid", mcid, "error", err)
		b.editResponse(s, i, "Failed to link. Please try again.")
		return
	}
	discordMid, err := b.store.GetDiscordMid(ctx, did)
	if err != nil {
		slog.Error("Failed to look up discord member", "id", discordID, "error", err)
		b.editResponse(s, i, "Failed to link. Please try again.")
		return
	}

	tx, err := b.store.Begin(ctx)
	if err != nil {
		slog.Error("Failed to begin transaction", "error", err)
		b.editResponse(s, i, "Failed to link. Please try again.")
		return
	}
	defer tx.Rollback()

	switch {
	case wynnMid != nil:
		// The minecraft account already has a member, attach the
		// discord side to it.
		_, err = tx.BindDiscord(ctx, *wynnMid, &did)
	case discordMid != nil:
		// The discord user already has a member, attach the
		// minecraft side to it.
		_, err = tx.BindWynn(ctx, *discordMid, &mcid, ign)
	default:
		_, err = tx.AddMember(ctx, did, mcid, ign, rank.InitialMemberRank)
	}

	if err != nil {
		b.editResponse(s, i, linkErrorMessage(err))
		return
	}
	if err := tx.Commit(); err != nil {
		slog.Error("Failed to commit link", "error", err)
		b.editResponse(s, i, "Failed to link. Please try again.")
		return
	}

	b.editResponse(s, i, fmt.Sprintf("Linked <@%s> with `%s`.", user.ID, ign))
}

// linkErrorMessage turns a link engine error into a user-facing
// message.
func linkErrorMessage(err error) string {
	var exists *memberdb.MemberExistsError
	if errors.As(err, &exists) {
		return "That discord user is already a member."
	}
	var override *memberdb.LinkOverrideError
	if errors.As(err, &override) {
		return "That account is already linked to another member. Unlink it first."
	}
	var wrongType *memberdb.WrongMemberTypeError
	if errors.As(err, &wrongType) {
		return "That link cannot be removed while the account is in the guild."
	}
	slog.Error("Failed to apply link", "error", err)
	return "Failed to link. Please try again."
}

// handleUnlink handles the /unlink command
func (b *Bot) handleUnlink(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := targetUser(s, i)
	ctx := context.Background()

	id, ok := parseID(user.ID)
	if !ok {
		respondWithMessage(s, i, "Invalid discord user id.")
		return
	}

	mid, err := b.store.GetDiscordMid(ctx, memberdb.DiscordID(id))
	if err != nil {
		slog.Error("Failed to look up discord member", "id", id, "error", err)
		respondWithMessage(s, i, "Failed to unlink. Please try again.")
		return
	}
	if mid == nil {
		respondWithMessage(s, i, fmt.Sprintf("<@%s> is not linked to a member.", user.ID))
		return
	}

	tx, err := b.store.Begin(ctx)
	if err != nil {
		slog.Error("Failed to begin transaction", "error", err)
		respondWithMessage(s, i, "Failed to unlink. Please try again.")
		return
	}
	defer tx.Rollback()

	removed, err := tx.BindDiscord(ctx, *mid, nil)
	if err != nil {
		slog.Error("Failed to unlink discord profile", "member", *mid, "error", err)
		respondWithMessage(s, i, "Failed to unlink. Please try again.")
		return
	}
	if err := tx.Commit(); err != nil {
		slog.Error("Failed to commit unlink", "error", err)
		respondWithMessage(s, i, "Failed to unlink. Please try again.")
		return
	}

	if removed {
		respondWithMessage(s, i, fmt.Sprintf("Unlinked <@%s>; the member had no other links and was removed.", user.ID))
	} else {
		respondWithMessage(s, i, fmt.Sprintf("Unlinked <@%s>.", user.ID))
	}
}

// handleProfile handles the /profile command
func (b *Bot) handleProfile(s *discordgo.Session, i *discordgo.InteractionCreate) {
	user := targetUser(s, i)
	ctx := context.Background()

	id, ok := parseID(user.ID)
	if !ok {
		respondWithMessage(s, i, "Invalid discord user id.")
		return
	}

	mid, err := b.store.GetDiscordMid(ctx, memberdb.DiscordID(id))
	if err != nil || mid == nil {
		respondWithMessage(s, i, fmt.Sprintf("<@%s> is not linked to a member.", user.ID))
		return
	}

	m, err := b.store.GetMember(ctx, *mid)
	if err != nil || m == nil {
		respondWithMessage(s, i, "Failed to fetch member.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**Member %d** (%s)\n", int64(m.ID), m.Type))
	sb.WriteString(fmt.Sprintf("Rank: %s\n", m.Rank))

	if m.Mcid != nil {
		if ign, err := b.store.GetIgn(ctx, *m.Mcid); err == nil {
			sb.WriteString(fmt.Sprintf("Ign: `%s`\n", ign))
		}
		if gp, err := b.store.GetGuildProfile(ctx, *m.Mcid); err == nil && gp != nil {
			sb.WriteString(fmt.Sprintf("Guild rank: %s, xp: %d (%d this week)\n", gp.Rank, gp.XP, gp.XPWeek))
		}
	}
	if m.Discord != nil {
		if dp, err := b.store.GetDiscordProfile(ctx, *m.Discord); err == nil && dp != nil {
			sb.WriteString(fmt.Sprintf("Messages: %d (%d this week), voice: %ds (%ds this week)\n",
				dp.Message, dp.MessageWeek, dp.Voice, dp.VoiceWeek))
		}
	}

	respondWithMessage(s, i, sb.String())
}

// handleMembers handles the /members command
func (b *Bot) handleMembers(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	var filters []memberdb.Filter
	if opt, ok := commandOptions(i)["name"]; ok {
		filters = append(filters, memberdb.NameFilter{Contains: opt.StringValue()})
	}

	rows, err := b.store.ListMembers(ctx, filters...)
	if err != nil {
		slog.Error("Failed to list members", "error", err)
		respondWithMessage(s, i, "Failed to retrieve member list.")
		return
	}

	if len(rows) == 0 {
		respondWithMessage(s, i, "No members found.")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**Members (%d):**\n```\n", len(rows)))
	for _, row := range rows {
		name := row[0]
		if name == "" {
			name = "(no ign)"
		}
		sb.WriteString(fmt.Sprintf("%-18s %s\n", name, row[2]))
	}
	sb.WriteString("```")

	respondWithMessage(s, i, sb.String())
}

// handleTop handles the /top command
func (b *Bot) handleTop(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx := context.Background()

	var statValue int
	fmt.Sscanf(commandOptions(i)["stat"].StringValue(), "%d", &statValue)
	stat := memberdb.Stat(statValue)

	lb, err := b.store.StatLeaderboard(ctx, stat)
	if err != nil {
		slog.Error("Failed to build leaderboard", "stat", stat, "error", err)
		respondWithMessage(s, i, "Failed to build leaderboard.")
		return
	}

	if len(lb.Rows) == 0 {
		respondWithMessage(s, i, fmt.Sprintf("Nobody has any %s yet.", stat))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("**Top %s:**\n```\n", stat))
	for _, row := range lb.Rows {
		sb.WriteString(fmt.Sprintf("%3s. %-18s %s\n", row[0], row[1], row[2]))
		if sb.Len() > 1800 {
			break
		}
	}
	sb.WriteString("```")

	respondWithMessage(s, i, sb.String())
}

// handleSetRank handles the /setrank command
func (b *Bot) handleSetRank(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := commandOptions(i)
	user := options["user"].UserValue(s)
	ctx := context.Background()

	newRank, err := rank.ParseMemberRank(options["rank"].StringValue())
	if err != nil {
		respondWithMessage(s, i, "Unknown rank.")
		return
	}

	id, ok := parseID(user.ID)
	if !ok {
		respondWithMessage(s, i, "Invalid discord user id.")
		return
	}

	mid, err := b.store.GetDiscordMid(ctx, memberdb.DiscordID(id))
	if err != nil || mid == nil {
		respondWithMessage(s, i, fmt.Sprintf("<@%s> is not linked to a member.", user.ID))
		return
	}

	oldRank, err := b.store.GetMemberRank(ctx, *mid)
	if err != nil {
		slog.Error("Failed to fetch member rank", "member", *mid, "error", err)
		respondWithMessage(s, i, "Failed to set rank. Please try again.")
		return
	}
	if oldRank == newRank {
		respondWithMessage(s, i, fmt.Sprintf("<@%s> is already %s.", user.ID, newRank))
		return
	}

	tx, err := b.store.Begin(ctx)
	if err != nil {
		slog.Error("Failed to begin transaction", "error", err)
		respondWithMessage(s, i, "Failed to set rank. Please try again.")
		return
	}
	defer tx.Rollback()

	if err := tx.SetMemberRank(ctx, *mid, newRank); err != nil {
		slog.Error("Failed to set member rank", "member", *mid, "error", err)
		respondWithMessage(s, i, "Failed to set rank. Please try again.")
		return
	}
	if err := tx.Commit(); err != nil {
		slog.Error("Failed to commit rank change", "error", err)
		respondWithMessage(s, i, "Failed to set rank. Please try again.")
		return
	}

	// The engine leaves rank change announcements to the caller.
	b.store.Publish(memberdb.MemberRankChange{Member: *mid, Old: oldRank, New: newRank})

	respondWithMessage(s, i, fmt.Sprintf("<@%s> is now %s.", user.ID, newRank))
}

// handleTag handles the /tag command
func (b *Bot) handleTag(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := commandOptions(i)
	action := options["action"].StringValue()
	channel := options["channel"].ChannelValue(s)

	tag, err := tags.ParseChannelTag(options["tag"].StringValue())
	if err != nil {
		respondWithMessage(s, i, "Unknown tag.")
		return
	}

	cid, ok := parseID(channel.ID)
	if !ok {
		respondWithMessage(s, i, "Invalid channel id.")
		return
	}

	switch action {
	case "add":
		b.tags.AddChannelTag(cid, tag)
		respondWithMessage(s, i, fmt.Sprintf("Added `%s` to <#%s>.", tag, channel.ID))
	case "remove":
		if b.tags.RemoveChannelTag(cid, tag) {
			respondWithMessage(s, i, fmt.Sprintf("Removed `%s` from <#%s>.", tag, channel.ID))
		} else {
			respondWithMessage(s, i, fmt.Sprintf("<#%s> does not have `%s`.", channel.ID, tag))
		}
	default:
		respondWithMessage(s, i, "Unknown action.")
		return
	}

	if err := b.tags.Save(); err != nil {
		slog.Error("Failed to save tag configuration", "error", err)
	}
}

// Helper functions

func respondWithMessage(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}

func (b *Bot) editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
}
