package command

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/keshon/beatsbot/internal/chat"
	"github.com/keshon/beatsbot/internal/config"
	"github.com/keshon/beatsbot/pkg/cmd"
)

func (r *Router) help(ctx context.Context, c *Context, _ string) error {
	_, err := r.chat.SendNotice(ctx, c.Message.ChannelID, chat.Notice{
		Title:  "Available Commands",
		Fields: r.helpFields(),
	})
	return err
}

// helpFields lists commands grouped by category, categories ordered by
// weight and commands by name.
func (r *Router) helpFields() []chat.Field {
	byCategory := lo.GroupBy(r.registry.GetAll(), func(c cmd.Command) string {
		if meta, ok := cmd.Root(c).(Meta); ok {
			return meta.Category()
		}
		return ""
	})

	categories := lo.Keys(byCategory)
	sort.Slice(categories, func(i, j int) bool {
		wi, wj := config.CategoryWeights[categories[i]], config.CategoryWeights[categories[j]]
		if wi != wj {
			return wi < wj
		}
		return categories[i] < categories[j]
	})

	var fields []chat.Field
	for _, cat := range categories {
		for _, c := range byCategory[cat] {
			fields = append(fields, r.helpField(c))
		}
	}
	return fields
}

func (r *Router) helpField(c cmd.Command) chat.Field {
	name := r.prefix + c.Name()
	value := c.Description()

	if meta, ok := cmd.Root(c).(Meta); ok {
		for _, arg := range meta.Args() {
			name += fmt.Sprintf(" [%s]", arg)
		}
		if bang := meta.BangHelp(); bang != "" {
			value += fmt.Sprintf("\n(%s) %s", strings.Repeat(r.prefix, 2), bang)
		}
	}
	return chat.Field{Name: name, Value: value}
}
