package jukebox

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"

	"github.com/keshon/beatsbot/internal/song"
)

const (
	maxMessageLength = 2000
	nameWidth        = 60
	artistWidth      = 40
	fence            = "```"
)

// tableRow is one rendered song.
type tableRow struct {
	Song  song.Song
	Score int
}

// renderTable lays songs out as a monospace table split into messages that
// fit the chat limit. first offsets the numbering; current (-1 for none)
// marks a row with ">".
func renderTable(title string, rows []tableRow, first, current int) []string {
	if len(rows) == 0 {
		return []string{"No results."}
	}

	tw := table.NewWriter()
	style := table.StyleDefault
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	tw.AppendHeader(table.Row{"#", "Name", "Artist(s)", "Score"})
	for i, r := range rows {
		num := fmt.Sprint(first + i + 1)
		if i == current {
			num = "> " + num
		}
		tw.AppendRow(table.Row{
			num,
			ellipsis(r.Song.Derived.SongName, nameWidth),
			ellipsis(r.Song.Derived.ArtistString, artistWidth),
			r.Score,
		})
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n", title)
	if first > 0 {
		fmt.Fprintf(&b, "*Showing results from %d to %d.*\n", first+1, first+len(rows))
	}
	b.WriteString(fence)
	return chunk(b.String(), strings.Split(tw.Render(), "\n"))
}

// chunk appends lines to head, starting a new fenced message whenever the
// current one would exceed the limit.
func chunk(head string, lines []string) []string {
	var messages []string
	msg := head
	for _, line := range lines {
		if utf8.RuneCountInString(msg)+utf8.RuneCountInString(line) > maxMessageLength-2*len(fence) {
			messages = append(messages, msg+fence)
			msg = fence + line
			continue
		}
		msg += "\n" + line
	}
	return append(messages, msg+fence)
}

func ellipsis(s string, width int) string {
	return runewidth.Truncate(s, width, "...")
}
