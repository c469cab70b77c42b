package memberdb

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nova-gc/wynnbot/internal/rank"
)

func argDiscord(id *DiscordID) any {
	if id == nil {
		return nil
	}
	return int64(*id)
}

func argMcid(id *McID) any {
	if id == nil {
		return nil
	}
	return string(*id)
}

func argMember(id *MemberID) any {
	if id == nil {
		return nil
	}
	return int64(*id)
}

// AddMemberDiscord adds a discord partial member; the discord profile
// is created when missing.
//
// Fails with MemberExistsError when the discord id is already linked.
func (t *Tx) AddMemberDiscord(ctx context.Context, discordID DiscordID, r rank.MemberRank) (MemberID, error) {
	if existing, err := getDiscordMid(ctx, t.tx, discordID); err != nil {
		return 0, err
	} else if existing != nil {
		return 0, &MemberExistsError{Member: *existing}
	}

	slog.Info("Adding discord partial member", "discord", int64(discordID), "rank", r)
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO member (discord, type, rank) VALUES (?,?,?)`,
		int64(discordID), string(TypeDiscordPartial), r.Encode())
	if err != nil {
		return 0, fmt.Errorf("failed to add discord partial member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted member id: %w", err)
	}
	mid := MemberID(id)

	if err := t.linkOrAddDiscord(ctx, &mid, discordID); err != nil {
		return 0, err
	}

	t.signal(MemberAdd{Member: mid, Discord: &discordID, Rank: r})
	return mid, nil
}

// AddMemberWynn adds a wynn partial member; the wynn profile is
// created when missing.
//
// Fails with MemberExistsError when the mc id is already linked.
func (t *Tx) AddMemberWynn(ctx context.Context, mcid McID, r rank.MemberRank, ign string) (MemberID, error) {
	if existing, err := getWynnMid(ctx, t.tx, mcid); err != nil {
		return 0, err
	} else if existing != nil {
		return 0, &MemberExistsError{Member: *existing}
	}

	slog.Info("Adding wynn partial member", "mcid", string(mcid), "ign", ign, "rank", r)
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO member (mcid, type, rank) VALUES (?,?,?)`,
		string(mcid), string(TypeWynnPartial), r.Encode())
	if err != nil {
		return 0, fmt.Errorf("failed to add wynn partial member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted member id: %w", err)
	}
	mid := MemberID(id)

	if err := t.linkOrAddWynn(ctx, &mid, mcid, ign); err != nil {
		return 0, err
	}

	t.signal(MemberAdd{Member: mid, Mcid: &mcid, Rank: r})
	return mid, nil
}

// AddMember adds a full member; missing profiles are created.
//
// Fails with MemberExistsError when the discord id is already linked,
// and with LinkOverrideError when the mc id is already linked to a
// different member. Either way no state is changed.
func (t *Tx) AddMember(ctx context.Context, discordID DiscordID, mcid McID, ign string, r rank.MemberRank) (MemberID, error) {
	if existing, err := getDiscordMid(ctx, t.tx, discordID); err != nil {
		return 0, err
	} else if existing != nil {
		return 0, &MemberExistsError{Member: *existing}
	}
	if existing, err := getWynnMid(ctx, t.tx, mcid); err != nil {
		return 0, err
	} else if existing != nil {
		return 0, &LinkOverrideError{Profile: ProfileWynn, Existing: *existing}
	}

	slog.Info("Adding full member", "discord", int64(discordID), "mcid", string(mcid), "ign", ign, "rank", r)
	res, err := t.tx.ExecContext(ctx,
		`INSERT INTO member (discord, mcid, type, rank) VALUES (?,?,?,?)`,
		int64(discordID), string(mcid), string(TypeFull), r.Encode())
	if err != nil {
		return 0, fmt.Errorf("failed to add full member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get inserted member id: %w", err)
	}
	mid := MemberID(id)

	if err := t.linkOrAddDiscord(ctx, &mid, discordID); err != nil {
		return 0, err
	}
	if err := t.linkOrAddWynn(ctx, &mid, mcid, ign); err != nil {
		return 0, err
	}

	t.signal(MemberAdd{Member: mid, Discord: &discordID, Mcid: &mcid, Rank: r})
	return mid, nil
}

// BindDiscord rebinds or clears a member's discord link. It returns
// true when the member was removed or demoted to guild partial as a
// consequence.
//
// Clearing the link of a member whose remaining wynn link is in the
// guild demotes it to guild partial; with a wynn link outside the
// guild, or no wynn link at all, the member is deleted. Setting a
// link on a wynn or guild partial promotes it to full.
func (t *Tx) BindDiscord(ctx context.Context, mid MemberID, newDiscord *DiscordID) (bool, error) {
	oldDiscord, _, err := getMemberLinks(ctx, t.tx, mid)
	if err != nil {
		return false, err
	}

	if oldDiscord == nil && newDiscord == nil {
		return false, nil
	}
	if oldDiscord != nil && newDiscord != nil && *oldDiscord == *newDiscord {
		return false, nil
	}
	if newDiscord != nil {
		if other, err := getDiscordMid(ctx, t.tx, *newDiscord); err != nil {
			return false, err
		} else if other != nil && *other != mid {
			return false, &LinkOverrideError{Profile: ProfileDiscord, Existing: *other}
		}
	}

	slog.Info("Updating member discord link", "member", int64(mid),
		"old", argDiscord(oldDiscord), "new", argDiscord(newDiscord))
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE member SET discord=? WHERE oid=?`, argDiscord(newDiscord), int64(mid)); err != nil {
		return false, fmt.Errorf("failed to set member.discord: %w", err)
	}

	if oldDiscord != nil {
		if err := t.linkDiscord(ctx, nil, *oldDiscord); err != nil {
			return false, err
		}
	}
	if newDiscord != nil {
		if err := t.linkOrAddDiscord(ctx, &mid, *newDiscord); err != nil {
			return false, err
		}
	}

	removed := false
	if newDiscord == nil {
		_, mcid, err := getMemberLinks(ctx, t.tx, mid)
		if err != nil {
			return false, err
		}
		switch {
		case mcid != nil:
			inGuild, err := isInGuild(ctx, t.tx, *mcid)
			if err != nil {
				return false, err
			}
			if inGuild {
				before, err := getMemberType(ctx, t.tx, mid)
				if err != nil {
					return false, err
				}
				slog.Info("Member is in guild, demoting to guild partial", "member", int64(mid))
				if err := t.setMemberType(ctx, mid, TypeGuildPartial); err != nil {
					return false, err
				}
				t.signal(MemberAutoGuildDemote{Member: mid, Before: before})
			} else {
				slog.Info("Member not in guild, removing", "member", int64(mid))
				if err := t.setWynnLink(ctx, mid, nil); err != nil {
					return false, err
				}
				if err := t.linkWynn(ctx, nil, *mcid); err != nil {
					return false, err
				}
				if err := t.deleteMember(ctx, mid); err != nil {
					return false, err
				}
				t.signal(WynnProfileUnbind{Member: mid, Before: *mcid, Removed: true})
				t.signal(MemberRemove{Member: mid, Discord: oldDiscord, Mcid: mcid})
			}
		default:
			slog.Info("Member is empty, removing", "member", int64(mid))
			if err := t.deleteMember(ctx, mid); err != nil {
				return false, err
			}
			t.signal(MemberRemove{Member: mid, Discord: oldDiscord})
		}
		removed = true
	} else {
		before, err := getMemberType(ctx, t.tx, mid)
		if err != nil {
			return false, err
		}
		if before == TypeWynnPartial || before == TypeGuildPartial {
			slog.Info("Promoting member to full", "member", int64(mid), "before", string(before))
			if err := t.setMemberType(ctx, mid, TypeFull); err != nil {
				return false, err
			}
			t.signal(MemberFullPromote{Member: mid, Before: before})
		}
	}

	if newDiscord != nil {
		t.signal(DiscordProfileBind{Member: mid, Old: oldDiscord, New: *newDiscord})
	} else {
		t.signal(DiscordProfileUnbind{Member: mid, Before: *oldDiscord, Removed: removed})
	}
	return removed, nil
}

// BindWynn rebinds or clears a member's wynn link. It returns true
// when the member was removed or demoted to guild partial as a
// consequence.
//
// Clearing the sole link of a guild partial through this method is an
// error (WrongMemberTypeError): the roster-driven BindWynnGuild is
// the only path that removes guild partials. Clearing the link while
// the old mc id is in the guild demotes the member to guild partial
// instead of deleting it. Setting a link on a discord partial
// promotes it to full.
func (t *Tx) BindWynn(ctx context.Context, mid MemberID, newMcid *McID, ign string) (bool, error) {
	_, oldMcid, err := getMemberLinks(ctx, t.tx, mid)
	if err != nil {
		return false, err
	}
	memberType, err := getMemberType(ctx, t.tx, mid)
	if err != nil {
		return false, err
	}

	if oldMcid == nil && newMcid == nil {
		return false, nil
	}
	if oldMcid != nil && newMcid != nil && *oldMcid == *newMcid {
		return false, nil
	}

	if newMcid == nil && memberType == TypeGuildPartial {
		return false, &WrongMemberTypeError{Type: memberType}
	}

	if newMcid == nil && oldMcid != nil &&
		(memberType == TypeWynnPartial || memberType == TypeFull) {
		inGuild, err := isInGuild(ctx, t.tx, *oldMcid)
		if err != nil {
			return false, err
		}
		if inGuild {
			slog.Info("Removing wynn link of in-guild member, demoting to guild partial",
				"member", int64(mid), "before", string(memberType))
			if memberType == TypeFull {
				// Clearing the discord link performs the demote and
				// emits the demote event.
				if _, err := t.BindDiscord(ctx, mid, nil); err != nil {
					return false, err
				}
			} else {
				if err := t.setMemberType(ctx, mid, TypeGuildPartial); err != nil {
					return false, err
				}
				t.signal(MemberAutoGuildDemote{Member: mid, Before: memberType})
			}
			return true, nil
		}
	}

	if newMcid != nil {
		if other, err := getWynnMid(ctx, t.tx, *newMcid); err != nil {
			return false, err
		} else if other != nil && *other != mid {
			return false, &LinkOverrideError{Profile: ProfileWynn, Existing: *other}
		}
	}

	slog.Info("Updating member wynn link", "member", int64(mid),
		"old", argMcid(oldMcid), "new", argMcid(newMcid))
	if err := t.setWynnLink(ctx, mid, newMcid); err != nil {
		return false, err
	}

	if oldMcid != nil {
		if err := t.linkWynn(ctx, nil, *oldMcid); err != nil {
			return false, err
		}
	}
	if newMcid != nil {
		if err := t.linkOrAddWynn(ctx, &mid, *newMcid, ign); err != nil {
			return false, err
		}
	}

	removed := false
	if newMcid == nil {
		// The in-guild case was handled above, so the member has to
		// be removed.
		discord, _, err := getMemberLinks(ctx, t.tx, mid)
		if err != nil {
			return false, err
		}
		if discord != nil {
			if _, err := t.BindDiscord(ctx, mid, nil); err != nil {
				return false, err
			}
		} else {
			slog.Info("Member is empty, removing", "member", int64(mid))
			if err := t.deleteMember(ctx, mid); err != nil {
				return false, err
			}
			t.signal(MemberRemove{Member: mid, Mcid: oldMcid})
		}
		removed = true
	} else if memberType == TypeDiscordPartial {
		slog.Info("Promoting member to full", "member", int64(mid), "before", string(memberType))
		if err := t.setMemberType(ctx, mid, TypeFull); err != nil {
			return false, err
		}
		t.signal(MemberFullPromote{Member: mid, Before: TypeDiscordPartial})
	}

	if newMcid != nil {
		t.signal(WynnProfileBind{Member: mid, Old: oldMcid, New: *newMcid})
	} else {
		t.signal(WynnProfileUnbind{Member: mid, Before: *oldMcid, Removed: removed})
	}
	return removed, nil
}

// BindWynnGuild updates a wynn profile's guild membership from the
// roster. Missing wynn and guild profiles are created first. When the
// account joins the guild and has no member, a guild partial member
// is created with the rank mapped from its guild rank; its id is
// returned with created=true. When the account leaves the guild and
// its member is a guild partial, the member is removed and the guild
// profile is deleted.
func (t *Tx) BindWynnGuild(ctx context.Context, mcid McID, ign string, inGuild bool, grank rank.GuildRank) (MemberID, bool, error) {
	exists, err := wynnProfileExists(ctx, t.tx, mcid)
	if err != nil {
		return 0, false, err
	}
	if !exists {
		if err := t.addWynnProfile(ctx, nil, mcid, ign); err != nil {
			return 0, false, err
		}
	}
	if inGuild {
		exists, err := guildProfileExists(ctx, t.tx, mcid)
		if err != nil {
			return 0, false, err
		}
		if !exists {
			if err := t.addGuildProfile(ctx, mcid, grank); err != nil {
				return 0, false, err
			}
		}
	} else {
		// A guild profile may only exist while the flag is set.
		if _, err := t.tx.ExecContext(ctx, `DELETE FROM guild WHERE id=?`, string(mcid)); err != nil {
			return 0, false, fmt.Errorf("failed to delete guild profile: %w", err)
		}
	}

	slog.Info("Updating wynn guild status", "mcid", string(mcid), "in_guild", inGuild)
	guildFlag := 0
	if inGuild {
		guildFlag = 1
	}
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE wynn SET guild=? WHERE id=?`, guildFlag, string(mcid)); err != nil {
		return 0, false, fmt.Errorf("failed to update wynn.guild: %w", err)
	}

	mid, err := getWynnMid(ctx, t.tx, mcid)
	if err != nil {
		return 0, false, err
	}

	if mid != nil {
		// The only member-side effect of a guild flag change is the
		// removal of a guild partial when the flag goes down.
		if !inGuild {
			memberType, err := getMemberType(ctx, t.tx, *mid)
			if err != nil {
				return 0, false, err
			}
			if memberType == TypeGuildPartial {
				slog.Info("Removing guild partial member, account left the guild",
					"member", int64(*mid), "mcid", string(mcid))
				if err := t.setWynnLink(ctx, *mid, nil); err != nil {
					return 0, false, err
				}
				if err := t.linkWynn(ctx, nil, mcid); err != nil {
					return 0, false, err
				}
				t.signal(WynnProfileUnbind{Member: *mid, Before: mcid, Removed: true})

				discord, _, err := getMemberLinks(ctx, t.tx, *mid)
				if err != nil {
					return 0, false, err
				}
				if err := t.deleteMember(ctx, *mid); err != nil {
					return 0, false, err
				}
				t.signal(MemberRemove{Member: *mid, Discord: discord, Mcid: &mcid})
			}
		}
		return 0, false, nil
	}

	if inGuild {
		memberRank := grank.MemberRank()
		slog.Info("Adding guild partial member", "mcid", string(mcid), "ign", ign, "rank", memberRank)
		res, err := t.tx.ExecContext(ctx,
			`INSERT INTO member (mcid, type, rank) VALUES (?,?,?)`,
			string(mcid), string(TypeGuildPartial), memberRank.Encode())
		if err != nil {
			return 0, false, fmt.Errorf("failed to add guild partial member: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, false, fmt.Errorf("failed to get inserted member id: %w", err)
		}
		newMid := MemberID(id)
		if err := t.linkWynn(ctx, &newMid, mcid); err != nil {
			return 0, false, err
		}

		t.signal(WynnProfileBind{Member: newMid, New: mcid})
		t.signal(MemberAdd{Member: newMid, Mcid: &mcid, Rank: memberRank})
		return newMid, true, nil
	}

	return 0, false, nil
}

// RemoveMember unconditionally severs all of a member's links and
// deletes it. The wynn link is severed before the discord link, and
// in-guild wynn links are severed directly so the guild-demote
// cascade cannot fire during removal.
func (t *Tx) RemoveMember(ctx context.Context, mid MemberID) error {
	discord, mcid, err := getMemberLinks(ctx, t.tx, mid)
	if err != nil {
		return err
	}
	slog.Info("Removing member", "member", int64(mid),
		"discord", argDiscord(discord), "mcid", argMcid(mcid))

	if mcid != nil {
		inGuild, err := isInGuild(ctx, t.tx, *mcid)
		if err != nil {
			return err
		}
		if inGuild {
			if err := t.setWynnLink(ctx, mid, nil); err != nil {
				return err
			}
			if err := t.linkWynn(ctx, nil, *mcid); err != nil {
				return err
			}
			t.signal(WynnProfileUnbind{Member: mid, Before: *mcid, Removed: true})

			if discord == nil {
				if err := t.deleteMember(ctx, mid); err != nil {
					return err
				}
				t.signal(MemberRemove{Member: mid, Mcid: mcid})
				return nil
			}
			// The discord unbind deletes the now wynn-less member.
			_, err := t.BindDiscord(ctx, mid, nil)
			return err
		}

		removed, err := t.BindWynn(ctx, mid, nil, "")
		if err != nil {
			return err
		}
		if removed {
			return nil
		}
	}

	if discord != nil {
		removed, err := t.BindDiscord(ctx, mid, nil)
		if err != nil {
			return err
		}
		if removed {
			return nil
		}
	}

	// Unreachable while the invariants hold; self-heal instead of
	// failing so discord-side state can still be reconciled.
	slog.Warn("Deleting member in invalid state", "member", int64(mid))
	if err := t.deleteMember(ctx, mid); err != nil {
		return err
	}
	t.signal(MemberRemove{Member: mid, Discord: discord, Mcid: mcid})
	return nil
}

// SetMemberRank updates a member's rank. It does not emit an event;
// callers broadcast MemberRankChange themselves alongside whatever
// authorized the change.
func (t *Tx) SetMemberRank(ctx context.Context, mid MemberID, r rank.MemberRank) error {
	slog.Info("Updating member rank", "member", int64(mid), "rank", r)
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE member SET rank=? WHERE oid=?`, r.Encode(), int64(mid)); err != nil {
		return fmt.Errorf("failed to update member.rank: %w", err)
	}
	return nil
}

// setMemberType rewrites a member's type column. Callers are
// responsible for the type matching the member's links.
func (t *Tx) setMemberType(ctx context.Context, mid MemberID, typ MemberType) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE member SET type=? WHERE oid=?`, string(typ), int64(mid)); err != nil {
		return fmt.Errorf("failed to set member.type: %w", err)
	}
	return nil
}

// setWynnLink rewrites a member's wynn link without any cascade or
// event.
func (t *Tx) setWynnLink(ctx context.Context, mid MemberID, mcid *McID) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE member SET mcid=? WHERE oid=?`, argMcid(mcid), int64(mid)); err != nil {
		return fmt.Errorf("failed to set member.mcid: %w", err)
	}
	return nil
}

// deleteMember deletes a member row without any cascade or event.
func (t *Tx) deleteMember(ctx context.Context, mid MemberID) error {
	if _, err := t.tx.ExecContext(ctx,
		`DELETE FROM member WHERE oid=?`, int64(mid)); err != nil {
		return fmt.Errorf("failed to delete from member table: %w", err)
	}
	return nil
}

// addDiscordProfile inserts a discord profile row.
func (t *Tx) addDiscordProfile(ctx context.Context, mid *MemberID, discordID DiscordID) error {
	slog.Info("Creating discord profile", "discord", int64(discordID), "member", argMember(mid))
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO discord (id, mid) VALUES (?,?)`, int64(discordID), argMember(mid)); err != nil {
		return fmt.Errorf("failed to add discord profile: %w", err)
	}
	t.signal(DiscordProfileAdd{Discord: discordID, Member: mid})
	return nil
}

// addWynnProfile inserts a wynn profile row.
func (t *Tx) addWynnProfile(ctx context.Context, mid *MemberID, mcid McID, ign string) error {
	slog.Info("Creating wynn profile", "mcid", string(mcid), "ign", ign, "member", argMember(mid))
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO wynn (id, mid, ign) VALUES (?,?,?)`,
		string(mcid), argMember(mid), ign); err != nil {
		return fmt.Errorf("failed to add wynn profile: %w", err)
	}
	t.signal(WynnProfileAdd{Mcid: mcid, Member: mid})
	return nil
}

// addGuildProfile inserts a guild profile row.
func (t *Tx) addGuildProfile(ctx context.Context, mcid McID, grank rank.GuildRank) error {
	slog.Info("Creating guild profile", "mcid", string(mcid), "rank", grank)
	if _, err := t.tx.ExecContext(ctx,
		`INSERT INTO guild (id, rank) VALUES (?,?)`, string(mcid), grank.Encode()); err != nil {
		return fmt.Errorf("failed to add guild profile: %w", err)
	}
	t.signal(GuildProfileAdd{Mcid: mcid, Rank: grank})
	return nil
}

// linkDiscord rewrites a discord profile's member link.
func (t *Tx) linkDiscord(ctx context.Context, mid *MemberID, discordID DiscordID) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE discord SET mid=? WHERE id=?`, argMember(mid), int64(discordID)); err != nil {
		return fmt.Errorf("failed to update discord.mid: %w", err)
	}
	return nil
}

// linkOrAddDiscord rewrites a discord profile's member link, creating
// the profile first when it does not exist.
func (t *Tx) linkOrAddDiscord(ctx context.Context, mid *MemberID, discordID DiscordID) error {
	exists, err := discordProfileExists(ctx, t.tx, discordID)
	if err != nil {
		return err
	}
	if exists {
		return t.linkDiscord(ctx, mid, discordID)
	}
	return t.addDiscordProfile(ctx, mid, discordID)
}

// linkWynn rewrites a wynn profile's member link.
func (t *Tx) linkWynn(ctx context.Context, mid *MemberID, mcid McID) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE wynn SET mid=? WHERE id=?`, argMember(mid), string(mcid)); err != nil {
		return fmt.Errorf("failed to update wynn.mid: %w", err)
	}
	return nil
}

// linkOrAddWynn rewrites a wynn profile's member link, creating the
// profile first when it does not exist.
func (t *Tx) linkOrAddWynn(ctx context.Context, mid *MemberID, mcid McID, ign string) error {
	exists, err := wynnProfileExists(ctx, t.tx, mcid)
	if err != nil {
		return err
	}
	if exists {
		return t.linkWynn(ctx, mid, mcid)
	}
	return t.addWynnProfile(ctx, mid, mcid, ign)
}

// AddMessage increments a discord profile's message counters.
func (t *Tx) AddMessage(ctx context.Context, discordID DiscordID, amount int64) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE discord SET message=message+?, message_week=message_week+? WHERE id=?`,
		amount, amount, int64(discordID)); err != nil {
		return fmt.Errorf("failed to update discord.message: %w", err)
	}
	return nil
}

// AddVoice adds seconds to a discord profile's voice counters.
func (t *Tx) AddVoice(ctx context.Context, discordID DiscordID, seconds int64) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE discord SET voice=voice+?, voice_week=voice_week+? WHERE id=?`,
		seconds, seconds, int64(discordID)); err != nil {
		return fmt.Errorf("failed to update discord.voice: %w", err)
	}
	return nil
}

// AddImage increments a discord profile's image counter.
func (t *Tx) AddImage(ctx context.Context, discordID DiscordID, amount int64) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE discord SET image=image+? WHERE id=?`, amount, int64(discordID)); err != nil {
		return fmt.Errorf("failed to update discord.image: %w", err)
	}
	return nil
}

// AddReaction increments a discord profile's reaction counter.
func (t *Tx) AddReaction(ctx context.Context, discordID DiscordID, amount int64) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE discord SET reaction=reaction+? WHERE id=?`, amount, int64(discordID)); err != nil {
		return fmt.Errorf("failed to update discord.reaction: %w", err)
	}
	return nil
}

// AddActivity adds seconds to a wynn profile's online counters.
func (t *Tx) AddActivity(ctx context.Context, mcid McID, seconds int64) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE wynn SET activity=activity+?, activity_week=activity_week+? WHERE id=?`,
		seconds, seconds, string(mcid)); err != nil {
		return fmt.Errorf("failed to update wynn.activity: %w", err)
	}
	return nil
}

// AddXP adds contributed xp to a guild profile's counters.
func (t *Tx) AddXP(ctx context.Context, mcid McID, amount int64) error {
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE guild SET xp=xp+?, xp_week=xp_week+? WHERE id=?`,
		amount, amount, string(mcid)); err != nil {
		return fmt.Errorf("failed to update guild.xp: %w", err)
	}
	return nil
}

// SetIgn updates a wynn profile's ign.
func (t *Tx) SetIgn(ctx context.Context, mcid McID, ign string) error {
	slog.Info("Updating wynn ign", "mcid", string(mcid), "ign", ign)
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE wynn SET ign=? WHERE id=?`, ign, string(mcid)); err != nil {
		return fmt.Errorf("failed to update wynn.ign: %w", err)
	}
	return nil
}

// SetGuildRank updates a guild profile's rank.
func (t *Tx) SetGuildRank(ctx context.Context, mcid McID, grank rank.GuildRank) error {
	slog.Info("Updating guild rank", "mcid", string(mcid), "rank", grank)
	if _, err := t.tx.ExecContext(ctx,
		`UPDATE guild SET rank=? WHERE id=?`, grank.Encode(), string(mcid)); err != nil {
		return fmt.Errorf("failed to update guild.rank: %w", err)
	}
	return nil
}
