package discord

import (
	"context"
	"errors"
	"fmt"

	"github.com/keshon/beatsbot/internal/voice"
)

var ErrNotInVoice = errors.New("user not in any voice channel")

// VoiceState holds minimal voice channel state for a user.
type VoiceState struct {
	ChannelID string
	UserID    string
}

// FindUserVoiceState finds the voice channel a user is connected to.
func (b *Bot) FindUserVoiceState(guildID, userID string) (*VoiceState, error) {
	guild, err := b.dg.State.Guild(guildID)
	if err != nil {
		return nil, fmt.Errorf("error retrieving guild: %w", err)
	}

	for _, vs := range guild.VoiceStates {
		if vs.UserID == userID && vs.ChannelID != "" {
			return &VoiceState{
				ChannelID: vs.ChannelID,
				UserID:    vs.UserID,
			}, nil
		}
	}
	return nil, ErrNotInVoice
}

// Join connects to a voice channel, deafened on the way in.
func (b *Bot) Join(ctx context.Context, channelID string) (voice.Conn, error) {
	ch, err := b.dg.State.Channel(channelID)
	if err != nil {
		if ch, err = b.dg.Channel(channelID); err != nil {
			return nil, fmt.Errorf("resolve channel: %w", err)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vc, err := b.dg.ChannelVoiceJoin(ch.GuildID, channelID, false, true)
	if err != nil {
		return nil, err
	}
	return vc, nil
}
