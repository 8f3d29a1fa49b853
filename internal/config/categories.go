package config

// Help categories.
const (
	CategoryInfo        = "🕯️ Information"
	CategoryMusic       = "🎵 Music"
	CategoryVotes       = "🗳️ Votes"
	CategoryMaintenance = "🛠️ Maintenance"
)

// CategoryWeights orders command groups in the help listing.
var CategoryWeights = map[string]int{
	CategoryInfo:        0,
	CategoryMusic:       10,
	CategoryVotes:       20,
	CategoryMaintenance: 60,
}
