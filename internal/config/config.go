package config

import (
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config is read from the environment, after an optional .env file.
type Config struct {
	DiscordToken string `env:"DISCORD_SECRET,required,notEmpty"`
	BotChannelID string `env:"BOT_CHANNEL_ID"`
	Prefix       string `env:"COMMAND_PREFIX" envDefault:"!"`

	StorageDriver string `env:"STORAGE_DRIVER" envDefault:"json"`
	StoragePath   string `env:"BEATS_POINTS_LOCATION" envDefault:"beatspoints.json"`

	MopidyURL          string `env:"MOPIDY_WS_URL" envDefault:"ws://mopidy:6680/mopidy/ws/"`
	IdleTimeoutSeconds int    `env:"IDLE_TIMEOUT_SECONDS" envDefault:"60"`
	VoteTimeoutSeconds int    `env:"VOTE_TIMEOUT_SECONDS" envDefault:"60"`

	ExternalURL    string `env:"EXTERNAL_URL"`
	PlayLinkBase   string `env:"PLAY_LINK_BASE" envDefault:"https://beatsbot.one/play"`
	RedirectAddr   string `env:"REDIRECT_ADDR" envDefault:":5000"`
	RedirectTarget string `env:"REDIRECT_TARGET" envDefault:"https://beatsbot.one/iris/queue"`

	Spotify Spotify
}

// Spotify holds the credentials for the top-tracks playlist sync. The sync is
// disabled unless every field is set.
type Spotify struct {
	AppID         string `env:"SPOTIFY_APP_ID"`
	AppSecret     string `env:"SPOTIFY_APP_SECRET"`
	RefreshToken  string `env:"SPOTIFY_REFRESH_TOKEN"`
	UserID        string `env:"SPOTIFY_USER_ID"`
	TopPlaylistID string `env:"SPOTIFY_TOP_PLAYLIST_ID"`
}

func (s Spotify) Enabled() bool {
	return s.AppID != "" && s.AppSecret != "" && s.RefreshToken != "" && s.TopPlaylistID != ""
}

func New() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] No .env file found, falling back to system environment variables")
	}
	return Parse()
}

// Parse reads the process environment without looking for a .env file.
func Parse() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) IdleTimeout() time.Duration {
	return time.Duration(c.IdleTimeoutSeconds) * time.Second
}

func (c *Config) VoteTimeout() time.Duration {
	return time.Duration(c.VoteTimeoutSeconds) * time.Second
}
