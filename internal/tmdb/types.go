package tmdb

// ListItem is one entry of a v4 list.
type ListItem struct {
	ID           int64  `json:"id"`
	MediaType    string `json:"media_type"`
	Name         string `json:"name"`
	Title        string `json:"title"`
	FirstAirDate string `json:"first_air_date"`
}

// ListPage is one page of a v4 list.
type ListPage struct {
	ID           int64      `json:"id"`
	Name         string     `json:"name"`
	Page         int        `json:"page"`
	TotalPages   int        `json:"total_pages"`
	TotalResults int        `json:"total_results"`
	Results      []ListItem `json:"results"`
}

// TVResult is a show returned by search or find.
type TVResult struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	OriginalName string  `json:"original_name"`
	FirstAirDate string  `json:"first_air_date"`
	Popularity   float64 `json:"popularity"`
}

// FindResponse models /find/{external_id}.
type FindResponse struct {
	TVResults     []TVResult `json:"tv_results"`
	PersonResults []struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	} `json:"person_results"`
}

// SearchResponse models /search/tv.
type SearchResponse struct {
	Page         int        `json:"page"`
	Results      []TVResult `json:"results"`
	TotalPages   int        `json:"total_pages"`
	TotalResults int        `json:"total_results"`
}

// Network is a broadcaster of a show.
type Network struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// EpisodeRef is an episode summary embedded in show details.
type EpisodeRef struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	AirDate       string `json:"air_date"`
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
}

// SeasonRef is a season summary embedded in show details.
type SeasonRef struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	AirDate      string `json:"air_date"`
	SeasonNumber int    `json:"season_number"`
	EpisodeCount int    `json:"episode_count"`
}

// TVDetails models /tv/{id}.
type TVDetails struct {
	ID               int64       `json:"id"`
	Name             string      `json:"name"`
	FirstAirDate     string      `json:"first_air_date"`
	NumberOfSeasons  int         `json:"number_of_seasons"`
	NumberOfEpisodes int         `json:"number_of_episodes"`
	Networks         []Network   `json:"networks"`
	Seasons          []SeasonRef `json:"seasons"`
	LastEpisodeToAir *EpisodeRef `json:"last_episode_to_air"`
}

// SeasonDetails models /tv/{id}/season/{n}.
type SeasonDetails struct {
	ID           int64        `json:"id"`
	Name         string       `json:"name"`
	SeasonNumber int          `json:"season_number"`
	Episodes     []EpisodeRef `json:"episodes"`
}

// ExternalIDs models /tv/{id}/external_ids. TVDB IDs arrive as numbers.
type ExternalIDs struct {
	IMDbID     string `json:"imdb_id"`
	TVDBID     int64  `json:"tvdb_id"`
	WikidataID string `json:"wikidata_id"`
}

// AggregateRole is one character a person played.
type AggregateRole struct {
	CreditID     string `json:"credit_id"`
	Character    string `json:"character"`
	EpisodeCount int    `json:"episode_count"`
}

// AggregateCast is one person in aggregate credits.
type AggregateCast struct {
	ID                int64           `json:"id"`
	Name              string          `json:"name"`
	Gender            int             `json:"gender"`
	TotalEpisodeCount int             `json:"total_episode_count"`
	Roles             []AggregateRole `json:"roles"`
}

// AggregateCredits models /tv/{id}/aggregate_credits and its season variant.
type AggregateCredits struct {
	ID   int64           `json:"id"`
	Cast []AggregateCast `json:"cast"`
}

// Person models /person/{id}.
type Person struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	IMDbID   string `json:"imdb_id"`
	Gender   int    `json:"gender"`
	Birthday string `json:"birthday"`
}

// TVCredit is a show credit of a person.
type TVCredit struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	CreditID     string `json:"credit_id"`
	EpisodeCount int    `json:"episode_count"`
	Character    string `json:"character"`
	Job          string `json:"job"`
}

// TVCredits models /person/{id}/tv_credits.
type TVCredits struct {
	ID   int64      `json:"id"`
	Cast []TVCredit `json:"cast"`
	Crew []TVCredit `json:"crew"`
}

// CreditEpisode is one episode listed in a credit.
type CreditEpisode struct {
	SeasonNumber  int    `json:"season_number"`
	EpisodeNumber int    `json:"episode_number"`
	AirDate       string `json:"air_date"`
}

// CreditSeason is one season listed in a credit.
type CreditSeason struct {
	SeasonNumber int `json:"season_number"`
	EpisodeCount int `json:"episode_count"`
}

// Credit models /credit/{credit_id}.
type Credit struct {
	ID         string `json:"id"`
	CreditType string `json:"credit_type"`
	MediaType  string `json:"media_type"`
	Media      struct {
		ID       int64           `json:"id"`
		Name     string          `json:"name"`
		Episodes []CreditEpisode `json:"episodes"`
		Seasons  []CreditSeason  `json:"seasons"`
	} `json:"media"`
}

// Gender labels used in worksheets.
const (
	GenderFemale = "Female"
	GenderMale   = "Male"
)

// GenderLabel maps TMDb gender codes to worksheet labels.
func GenderLabel(code int) string {
	switch code {
	case 1:
		return GenderFemale
	case 2:
		return GenderMale
	default:
		return ""
	}
}
