package song

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeriveWithMetadata(t *testing.T) {
	s := FromTrack(Track{
		URI:     "spotify:track:abc",
		Name:    "Around the World",
		Artists: []Artist{{Name: "Daft Punk"}, {Name: "Someone Else"}},
		Length:  429000,
	})

	assert.Equal(t, "Around the World", s.Derived.SongName)
	assert.Equal(t, "Daft Punk, Someone Else", s.Derived.ArtistString)
	assert.Equal(t, "Around the World - Daft Punk, Someone Else", s.Derived.SongString)
	assert.Equal(t, "🕙 7:09", s.Derived.DurationString)
}

func TestDeriveDefaults(t *testing.T) {
	s := FromTrack(Track{URI: "yt:https://www.youtube.com/watch?v=xyz"})

	assert.Equal(t, Untitled, s.Derived.SongName)
	assert.Equal(t, UnknownArtist, s.Derived.ArtistString)
	assert.Equal(t, "Untitled - Unknown Artist", s.Derived.SongString)
	assert.Equal(t, "🕙 0:00", s.Derived.DurationString)
}

func TestDeriveFromFileName(t *testing.T) {
	tests := []struct {
		name       string
		uri        string
		artists    []Artist
		wantName   string
		wantArtist string
	}{
		{
			name:       "four parts",
			uri:        "local:track:Music/01%20-%20The%20Band%20-%20The%20Album%20-%20The%20Song.mp3",
			wantName:   "The Song",
			wantArtist: "The Band",
		},
		{
			name:       "title then artist",
			uri:        "local:track:Music/Bring%20Me%20To%20Life%20-%20Evanescence.mp3",
			wantName:   "Bring Me To Life",
			wantArtist: "Evanescence",
		},
		{
			name:       "three parts uses last two",
			uri:        "file:///music/02%20-%20Song%20Name%20-%20Artist%20Name.flac",
			wantName:   "Song Name",
			wantArtist: "Artist Name",
		},
		{
			name:       "parenthesis swaps",
			uri:        "local:track:Artist%20-%20Title%20(Remix).mp3",
			wantName:   "Title (Remix)",
			wantArtist: "Artist",
		},
		{
			name:       "feat token swaps",
			uri:        "local:track:Artist%20feat.%20Guest%20-%20Title.mp3",
			wantName:   "Title",
			wantArtist: "Artist feat. Guest",
		},
		{
			name:       "ft token is case insensitive",
			uri:        "local:track:Artist%20FT%20Guest%20-%20Title.mp3",
			wantName:   "Title",
			wantArtist: "Artist FT Guest",
		},
		{
			name:       "single part keeps artist list",
			uri:        "local:track:sound%20bytes/shaboy.mp3",
			artists:    []Artist{{Name: "Meme Lord"}},
			wantName:   "shaboy",
			wantArtist: "Meme Lord",
		},
		{
			name:       "bad escape falls back to raw segment",
			uri:        "local:track:100%%20pure.mp3",
			wantName:   "100%%20pure",
			wantArtist: UnknownArtist,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := FromTrack(Track{URI: tt.uri, Artists: tt.artists})
			assert.Equal(t, tt.wantName, s.Derived.SongName)
			assert.Equal(t, tt.wantArtist, s.Derived.ArtistString)
		})
	}
}

func TestDeriveDashedFileNameIsDeterministic(t *testing.T) {
	uri := "local:track:Artist%20-%20Feat%20Band%20-%20Title.mp3"

	first := FromTrack(Track{URI: uri})
	second := FromTrack(Track{URI: uri})

	assert.Equal(t, first.Derived, second.Derived)
	assert.Equal(t, "Feat Band", first.Derived.SongName)
	assert.Equal(t, "Title", first.Derived.ArtistString)
}

func TestDeriveIsIdempotent(t *testing.T) {
	once := FromTrack(Track{URI: "local:track:A%20-%20B.mp3", Length: 61500})
	twice := Derive(once)

	assert.Same(t, once.Derived, twice.Derived)
	assert.Equal(t, once, twice)
}

func TestDuration(t *testing.T) {
	assert.Equal(t, "🕙 0:05", Duration(4600))
	assert.Equal(t, "🕙 1:01", Duration(61499))
	assert.Equal(t, "🕙 10:00", Duration(600000))
}
