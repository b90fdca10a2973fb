package viablecast

// Eligible reports whether a person with the given totals across all shows
// belongs in ViableCast. People with no known episodes are kept so that the
// episode extractor can fill them in.
func Eligible(totalShows, totalEpisodes int) bool {
	switch {
	case totalEpisodes == 0:
		return true
	case totalEpisodes > 7:
		return true
	case totalShows == 1 && totalEpisodes >= 1:
		return false
	case totalShows == 2 && totalEpisodes >= 2:
		return false
	default:
		return true
	}
}
