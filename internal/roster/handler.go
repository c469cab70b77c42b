// Package roster keeps the member database in sync with the in-game
// guild roster by consuming the wynn event stream.
package roster

import (
	"context"
	"log/slog"
	"sync"

	"github.com/nova-gc/wynnbot/internal/event"
	"github.com/nova-gc/wynnbot/internal/memberdb"
	"github.com/nova-gc/wynnbot/internal/rank"
	"github.com/nova-gc/wynnbot/internal/wynn"
)

// Handler applies wynn events to the member database. Processing is
// idempotent: a MemberJoin for an already known member turns into
// update checks instead of a duplicate insert, and any changes found
// that way are republished as derived events.
type Handler struct {
	store *memberdb.Store
	bus   *event.Bus[[]wynn.Event]

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewHandler creates a handler applying events from bus to store
func NewHandler(store *memberdb.Store, bus *event.Bus[[]wynn.Event]) *Handler {
	return &Handler{
		store:    store,
		bus:      bus,
		stopChan: make(chan struct{}),
	}
}

// Start begins consuming event batches
func (h *Handler) Start(ctx context.Context) {
	slog.Info("Starting roster handler")
	events, cancel := h.bus.Subscribe()

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		defer cancel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-h.stopChan:
				return
			case batch := <-events:
				h.HandleBatch(ctx, batch)
			}
		}
	}()
}

// Stop signals the handler to stop and waits for it
func (h *Handler) Stop() {
	close(h.stopChan)
	h.wg.Wait()
}

// HandleBatch applies a batch of events in order, republishing any
// derived events.
func (h *Handler) HandleBatch(ctx context.Context, batch []wynn.Event) {
	var derived []wynn.Event
	for _, ev := range batch {
		derived = append(derived, h.handle(ctx, ev)...)
	}
	if len(derived) > 0 {
		h.bus.Publish(derived)
	}
}

func (h *Handler) handle(ctx context.Context, ev wynn.Event) []wynn.Event {
	switch ev := ev.(type) {
	case wynn.MemberJoin:
		return h.memberJoin(ctx, ev)
	case wynn.MemberLeave:
		h.memberLeave(ctx, ev)
	case wynn.MemberRankChange:
		h.rankChange(ctx, ev)
	case wynn.MemberNameChange:
		h.nameChange(ctx, ev)
	case wynn.MemberContribute:
		h.contribute(ctx, ev)
	case wynn.PlayerStay:
		h.playerStay(ctx, ev)
	}
	return nil
}

// memberJoin adds a new roster member, or, for a member that is
// already known, derives name and rank change events and rebinds the
// guild profile if needed.
func (h *Handler) memberJoin(ctx context.Context, ev wynn.MemberJoin) []wynn.Event {
	mcid := memberdb.McID(ev.ID)

	mid, err := h.store.GetWynnMid(ctx, mcid)
	if err != nil {
		slog.Error("Failed to look up wynn member", "mcid", ev.ID, "error", err)
		return nil
	}

	if mid == nil {
		grank, err := rank.ParseAPIGuildRank(ev.Rank)
		if err != nil {
			slog.Error("Unknown guild rank in roster", "rank", ev.Rank, "error", err)
			return nil
		}

		slog.Info("Adding guild member", "mcid", ev.ID, "ign", ev.Ign, "rank", ev.Rank)
		h.inTx(ctx, func(tx *memberdb.Tx) error {
			if _, _, err := tx.BindWynnGuild(ctx, mcid, ev.Ign, true, grank); err != nil {
				return err
			}
			// A player in the guild always has a member, so arriving
			// here means they left and rejoined; their xp was wiped
			// with the old guild profile and this does not double it.
			return tx.AddXP(ctx, mcid, ev.XP)
		})
		return nil
	}

	// Known member: the join is stale or a rejoin. Compare the roster
	// row against the database.
	var derived []wynn.Event

	if oldIgn, err := h.store.GetIgn(ctx, mcid); err == nil && oldIgn != ev.Ign {
		slog.Info("Found ign change", "mcid", ev.ID, "old", oldIgn, "new", ev.Ign)
		derived = append(derived, wynn.MemberNameChange{ID: ev.ID, OldName: oldIgn, NewName: ev.Ign})
	}
	if oldRank, err := h.store.GetGuildRank(ctx, mcid); err == nil && oldRank.APIName() != ev.Rank {
		slog.Info("Found guild rank change", "mcid", ev.ID, "old", oldRank.APIName(), "new", ev.Rank)
		derived = append(derived, wynn.MemberRankChange{
			ID: ev.ID, Ign: ev.Ign, OldRank: oldRank.APIName(), NewRank: ev.Rank,
		})
	}

	inGuild, err := h.store.IsInGuild(ctx, mcid)
	if err != nil {
		slog.Error("Failed to check guild flag", "mcid", ev.ID, "error", err)
		return derived
	}
	if !inGuild {
		grank, err := rank.ParseAPIGuildRank(ev.Rank)
		if err != nil {
			slog.Error("Unknown guild rank in roster", "rank", ev.Rank, "error", err)
			return derived
		}
		slog.Info("Binding guild profile", "mcid", ev.ID, "ign", ev.Ign)
		h.inTx(ctx, func(tx *memberdb.Tx) error {
			if _, _, err := tx.BindWynnGuild(ctx, mcid, ev.Ign, true, grank); err != nil {
				return err
			}
			return tx.AddXP(ctx, mcid, ev.XP)
		})
	}

	return derived
}

func (h *Handler) memberLeave(ctx context.Context, ev wynn.MemberLeave) {
	grank, err := rank.ParseAPIGuildRank(ev.Rank)
	if err != nil {
		slog.Error("Unknown guild rank in roster", "rank", ev.Rank, "error", err)
		return
	}

	slog.Info("Removing guild member", "mcid", ev.ID, "ign", ev.Ign)
	h.inTx(ctx, func(tx *memberdb.Tx) error {
		_, _, err := tx.BindWynnGuild(ctx, memberdb.McID(ev.ID), ev.Ign, false, grank)
		return err
	})
}

func (h *Handler) rankChange(ctx context.Context, ev wynn.MemberRankChange) {
	grank, err := rank.ParseAPIGuildRank(ev.NewRank)
	if err != nil {
		slog.Error("Unknown guild rank in roster", "rank", ev.NewRank, "error", err)
		return
	}

	slog.Info("Updating guild rank", "ign", ev.Ign, "old", ev.OldRank, "new", ev.NewRank)
	h.inTx(ctx, func(tx *memberdb.Tx) error {
		return tx.SetGuildRank(ctx, memberdb.McID(ev.ID), grank)
	})
}

func (h *Handler) nameChange(ctx context.Context, ev wynn.MemberNameChange) {
	slog.Info("Updating ign", "mcid", ev.ID, "new", ev.NewName)
	h.inTx(ctx, func(tx *memberdb.Tx) error {
		return tx.SetIgn(ctx, memberdb.McID(ev.ID), ev.NewName)
	})
}

func (h *Handler) contribute(ctx context.Context, ev wynn.MemberContribute) {
	amount := ev.NewXP - ev.OldXP
	h.inTx(ctx, func(tx *memberdb.Tx) error {
		return tx.AddXP(ctx, memberdb.McID(ev.ID), amount)
	})
}

func (h *Handler) playerStay(ctx context.Context, ev wynn.PlayerStay) {
	mcid, err := h.store.GetIgnMcid(ctx, ev.Ign)
	if err != nil {
		slog.Error("Failed to look up mcid for ign", "ign", ev.Ign, "error", err)
		return
	}
	if mcid == "" {
		return
	}
	h.inTx(ctx, func(tx *memberdb.Tx) error {
		return tx.AddActivity(ctx, mcid, ev.Elapsed)
	})
}

// inTx runs fn in a transaction, logging instead of propagating
// failures: one bad event must not stop the stream.
func (h *Handler) inTx(ctx context.Context, fn func(tx *memberdb.Tx) error) {
	tx, err := h.store.Begin(ctx)
	if err != nil {
		slog.Error("Failed to begin transaction", "error", err)
		return
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		slog.Error("Failed to apply wynn event", "error", err)
		return
	}
	if err := tx.Commit(); err != nil {
		slog.Error("Failed to commit wynn event", "error", err)
	}
}
