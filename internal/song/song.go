// Package song recovers display fields (title, artist, duration) for tracks
// reported by the playback daemon, whose metadata is often missing or mangled.
package song

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
)

const (
	UnknownArtist = "Unknown Artist"
	Untitled      = "Untitled"

	clockGlyph = "🕙"
	delimiter  = " - "
)

var (
	// trailing path segment with its extension stripped
	fileNameRe = regexp.MustCompile(`[:/]([^:/]+)\.\w+$`)
	featRe     = regexp.MustCompile(`(?i) f(ea)?t\.? `)
)

// Artist is an artist reference as the daemon reports it.
type Artist struct {
	Name string `json:"name"`
}

// Track is an immutable catalogue record. Length is in milliseconds.
type Track struct {
	URI     string   `json:"uri"`
	Name    string   `json:"name,omitempty"`
	Artists []Artist `json:"artists,omitempty"`
	Length  int64    `json:"length,omitempty"`
}

// Derived holds the display fields computed from a Track.
type Derived struct {
	SongName       string
	ArtistString   string
	SongString     string
	DurationString string
}

// Song is a Track with (optionally) its derived display fields.
type Song struct {
	Track
	Derived *Derived
}

// FromTrack derives the display fields for t.
func FromTrack(t Track) Song {
	return Derive(Song{Track: t})
}

// Derive fills in the display fields. A song that already carries derived
// fields is returned unchanged.
func Derive(s Song) Song {
	if s.Derived != nil {
		return s
	}

	artistString := UnknownArtist
	if len(s.Artists) > 0 {
		names := make([]string, len(s.Artists))
		for i, a := range s.Artists {
			names[i] = a.Name
		}
		artistString = strings.Join(names, ", ")
	}

	songName := s.Name
	if songName == "" {
		name, artist, hasArtist := parseFileName(s.URI)
		songName = name
		if hasArtist {
			artistString = artist
		}
	}
	if songName == "" {
		songName = Untitled
	}

	s.Derived = &Derived{
		SongName:       songName,
		ArtistString:   artistString,
		SongString:     songName + delimiter + artistString,
		DurationString: Duration(s.Length),
	}
	return s
}

// Duration renders a millisecond length as "🕙 m:ss".
func Duration(lengthMs int64) string {
	minutes := lengthMs / 60000
	seconds := int64(math.Round(float64(lengthMs)/1000)) % 60
	return fmt.Sprintf("%s %d:%02d", clockGlyph, minutes, seconds)
}

// parseFileName guesses title and artist from a file-like uri such as
// "local:track:Some%20Title%20-%20Some%20Artist.mp3". hasArtist reports
// whether the file name also named the artist.
func parseFileName(uri string) (name, artist string, hasArtist bool) {
	m := fileNameRe.FindStringSubmatch(uri)
	if m == nil {
		return "", "", false
	}

	fileName, err := url.PathUnescape(m[1])
	if err != nil {
		fileName = m[1]
	}

	parts := strings.Split(fileName, delimiter)
	switch {
	case len(parts) >= 4:
		return parts[3], parts[1], true
	case len(parts) > 1:
		probablyName := parts[len(parts)-2]
		probablyArtist := parts[len(parts)-1]
		if strings.Contains(probablyArtist, "(") || featRe.MatchString(probablyName) {
			return probablyArtist, probablyName, true
		}
		return probablyName, probablyArtist, true
	default:
		return parts[0], "", false
	}
}
