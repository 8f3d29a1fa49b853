package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"

	"github.com/keshon/beatsbot/internal/chat"
)

const (
	// EmbedColor is the accent of every notice.
	EmbedColor = 0x08d58f

	threadArchiveMinutes = 60
)

func (b *Bot) Send(ctx context.Context, channelID, content string) (chat.Message, error) {
	m, err := b.dg.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return chat.Message{}, err
	}
	return chat.Message{ChannelID: m.ChannelID, ID: m.ID}, nil
}

func (b *Bot) Edit(ctx context.Context, m chat.Message, content string) error {
	_, err := b.dg.ChannelMessageEdit(m.ChannelID, m.ID, content, discordgo.WithContext(ctx))
	return err
}

func (b *Bot) Delete(ctx context.Context, m chat.Message) error {
	return b.dg.ChannelMessageDelete(m.ChannelID, m.ID, discordgo.WithContext(ctx))
}

func (b *Bot) SendNotice(ctx context.Context, channelID string, n chat.Notice) (chat.Message, error) {
	m, err := b.dg.ChannelMessageSendEmbed(channelID, embed(n), discordgo.WithContext(ctx))
	if err != nil {
		return chat.Message{}, err
	}
	return chat.Message{ChannelID: m.ChannelID, ID: m.ID}, nil
}

func (b *Bot) EditNotice(ctx context.Context, m chat.Message, n chat.Notice) error {
	_, err := b.dg.ChannelMessageEditEmbed(m.ChannelID, m.ID, embed(n), discordgo.WithContext(ctx))
	return err
}

func (b *Bot) React(ctx context.Context, m chat.Message, emoji string) error {
	return b.dg.MessageReactionAdd(m.ChannelID, m.ID, emoji, discordgo.WithContext(ctx))
}

func (b *Bot) ClearReactions(ctx context.Context, m chat.Message) error {
	return b.dg.MessageReactionsRemoveAll(m.ChannelID, m.ID, discordgo.WithContext(ctx))
}

func (b *Bot) StartThread(ctx context.Context, m chat.Message, name string) (string, error) {
	th, err := b.dg.MessageThreadStart(m.ChannelID, m.ID, name, threadArchiveMinutes, discordgo.WithContext(ctx))
	if err != nil {
		return "", err
	}
	return th.ID, nil
}

// SetListening shows "Listening to text", or marks the bot idle when text is
// empty.
func (b *Bot) SetListening(_ context.Context, text string) error {
	if text == "" {
		return b.dg.UpdateStatusComplex(discordgo.UpdateStatusData{Status: string(discordgo.StatusIdle)})
	}
	return b.dg.UpdateListeningStatus(text)
}

// embed renders a notice as a Discord embed.
func embed(n chat.Notice) *discordgo.MessageEmbed {
	e := &discordgo.MessageEmbed{
		Title:       n.Title,
		URL:         n.URL,
		Description: n.Description,
		Color:       EmbedColor,
	}
	for _, f := range n.Fields {
		e.Fields = append(e.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	if n.Thumbnail != "" {
		e.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: n.Thumbnail}
	}
	if n.Footer != "" {
		e.Footer = &discordgo.MessageEmbedFooter{Text: n.Footer}
	}
	return e
}
