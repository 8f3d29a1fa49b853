// Package discord connects the jukebox and the command router to Discord.
package discord

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/beatsbot/internal/chat"
	"github.com/keshon/beatsbot/internal/command"
)

// Commands handles chat messages.
type Commands interface {
	Handle(ctx context.Context, m command.Message) bool
}

// Reactions handles reactions and needs to know the bot's own user id.
type Reactions interface {
	SetSelfID(id string)
	HandleReaction(ctx context.Context, m chat.Message, emoji, userID string)
}

// Bot is a Discord session. It implements chat.Chat and voice.Dialer so it
// can be handed to the jukebox before the session is opened.
type Bot struct {
	dg *discordgo.Session

	mu        sync.RWMutex
	ctx       context.Context
	commands  Commands
	reactions Reactions
}

// New prepares a session for token without connecting.
func New(token string) (*Bot, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsMessageContent

	b := &Bot{dg: dg, ctx: context.Background()}
	dg.AddHandler(b.onReady)
	dg.AddHandler(b.onMessageCreate)
	dg.AddHandler(b.onMessageReactionAdd)
	return b, nil
}

// Run opens the session, routes events until ctx is done and closes it.
func (b *Bot) Run(ctx context.Context, commands Commands, reactions Reactions) error {
	b.mu.Lock()
	b.ctx = ctx
	b.commands = commands
	b.reactions = reactions
	b.mu.Unlock()

	if err := b.dg.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	defer b.dg.Close()

	<-ctx.Done()
	log.Println("[INFO] ❎ Shutdown signal received. Closing Discord session...")
	return nil
}

func (b *Bot) handlers() (context.Context, Commands, Reactions) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ctx, b.commands, b.reactions
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	_, _, reactions := b.handlers()
	if reactions != nil {
		reactions.SetSelfID(r.User.ID)
	}
	log.Printf("[INFO] ✅ Discord bot %v is running in %d guild(s).", r.User.Username, len(r.Guilds))
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.ID == s.State.User.ID {
		return
	}
	ctx, commands, _ := b.handlers()
	if commands == nil {
		return
	}

	msg := command.Message{
		GuildID:    m.GuildID,
		ChannelID:  m.ChannelID,
		ID:         m.ID,
		AuthorID:   m.Author.ID,
		AuthorName: m.Author.Username,
		Content:    m.Content,
	}
	if m.GuildID != "" {
		if vs, err := b.FindUserVoiceState(m.GuildID, m.Author.ID); err == nil {
			msg.VoiceChannelID = vs.ChannelID
		}
	}
	commands.Handle(ctx, msg)
}

func (b *Bot) onMessageReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	ctx, _, reactions := b.handlers()
	if reactions == nil || r.MessageReaction == nil {
		return
	}
	reactions.HandleReaction(ctx, chat.Message{ChannelID: r.ChannelID, ID: r.MessageID}, r.Emoji.Name, r.UserID)
}
