package game

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/trentd187/pub-golf/internal/models"
	"github.com/trentd187/pub-golf/internal/notify"
	"github.com/trentd187/pub-golf/internal/store"
)

// InviteAction is an invitee's answer.
type InviteAction string

const (
	ActionAccept  InviteAction = "accept"
	ActionDecline InviteAction = "decline"
)

// SendInvites creates one pending invite per invitee and notifies them.
//
// Blank and duplicate uids are dropped, as is the sender. An invitee that already has an invite
// for this game keeps it; its id is returned again. Notifications are best effort and never fail
// the call.
func (s *Service) SendInvites(ctx context.Context, gameID, fromUID string, toUIDs []string) ([]string, error) {
	recipients := cleanRecipients(fromUID, toUIDs)
	if len(recipients) == 0 {
		return nil, validation("at least one invitee is required")
	}

	g, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, gameErr(err)
	}

	now := s.now()
	invites := make([]models.Invite, 0, len(recipients))
	for _, uid := range recipients {
		invites = append(invites, models.Invite{
			ID:        s.newID(),
			GameID:    g.ID,
			FromUID:   fromUID,
			ToUID:     uid,
			Status:    models.InviteStatusPending,
			Version:   1,
			CreatedAt: now,
		})
	}

	stored, err := s.store.CreateInvites(ctx, invites)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(stored))
	for _, inv := range stored {
		ids = append(ids, inv.ID)
	}

	s.notifyInvitees(ctx, g, fromUID, stored)

	log.Info().Str("game", g.ID).Str("from", fromUID).Int("invites", len(ids)).Msg("invites sent")
	return ids, nil
}

// ListInvites returns the invites addressed to toUID, optionally filtered by status.
func (s *Service) ListInvites(ctx context.Context, toUID string, status models.InviteStatus) ([]models.Invite, error) {
	if status != "" && !status.Valid() {
		return nil, validation("status must be pending, accepted or declined")
	}
	return s.store.ListInvites(ctx, toUID, status)
}

// RespondToInvite records the invitee's answer. Accepting also adds the invitee to the game's
// roster in the same atomic write. Once answered, further responses return the recorded invite
// unchanged.
func (s *Service) RespondToInvite(ctx context.Context, inviteID, callerUID string, action InviteAction) (*models.Invite, error) {
	if action != ActionAccept && action != ActionDecline {
		return nil, validation("action must be accept or decline")
	}

	name := s.displayName(ctx, callerUID)

	inv, _, err := s.store.UpdateInvite(ctx, inviteID, func(inv *models.Invite, g *models.Game) error {
		if callerUID != inv.ToUID {
			return permissionDenied("only the invitee can respond to this invite")
		}
		if inv.Status != models.InviteStatusPending {
			return store.ErrUnchanged
		}

		now := s.now()
		inv.RespondedAt = &now
		if action == ActionDecline {
			inv.Status = models.InviteStatusDeclined
			return nil
		}

		inv.Status = models.InviteStatusAccepted
		// Checked inside the transaction so a retried or repeated accept never seats a uid twice.
		if !g.HasPlayer(callerUID) {
			g.Players = append(g.Players, models.Player{
				UID:      callerUID,
				Role:     models.PlayerRolePlayer,
				Name:     name,
				JoinedAt: now,
				Strokes:  g.EmptyStrokes(),
			})
			*g = *Recompute(g)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, notFound("invite not found")
		}
		return nil, err
	}

	log.Info().Str("invite", inv.ID).Str("game", inv.GameID).Str("status", string(inv.Status)).Msg("invite answered")
	return inv, nil
}

func (s *Service) notifyInvitees(ctx context.Context, g *models.Game, fromUID string, invites []models.Invite) {
	if s.notifier == nil {
		return
	}

	from := s.displayName(ctx, fromUID)
	if from == "" {
		from = "A friend"
	}

	for _, inv := range invites {
		if inv.Status != models.InviteStatusPending {
			continue
		}
		n := notify.Notification{
			UID:   inv.ToUID,
			Title: "Pub Golf invite",
			Body:  fmt.Sprintf("%s invited you to %s", from, g.Title),
			Data: map[string]string{
				"type":      "game_invite",
				"invite_id": inv.ID,
				"game_id":   g.ID,
			},
		}
		if err := s.notifier.Notify(ctx, n); err != nil {
			log.Warn().Err(err).Str("invite", inv.ID).Str("uid", inv.ToUID).Msg("invite notification failed")
		}
	}
}

func cleanRecipients(fromUID string, toUIDs []string) []string {
	seen := make(map[string]bool, len(toUIDs))
	out := make([]string, 0, len(toUIDs))
	for _, uid := range toUIDs {
		uid = strings.TrimSpace(uid)
		if uid == "" || uid == fromUID || seen[uid] {
			continue
		}
		seen[uid] = true
		out = append(out, uid)
	}
	return out
}
