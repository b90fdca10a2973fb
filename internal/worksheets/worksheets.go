// Package worksheets declares the layout of every pipeline worksheet: its
// name, header columns in order, and the merge policy applied to its rows.
package worksheets

import "realitease/internal/merge"

// Worksheet names.
const (
	ShowInfo       = "ShowInfo"
	CastInfo       = "CastInfo"
	UpdateInfo     = "UpdateInfo"
	ViableCast     = "ViableCast"
	RealiteaseInfo = "RealiteaseInfo"
)

// ShowInfo columns.
const (
	ShowKey           = "Show"
	ShowName          = "ShowName"
	ShowNetwork       = "Network"
	ShowTotalSeasons  = "ShowTotalSeasons"
	ShowTotalEpisodes = "ShowTotalEpisodes"
	ShowIMDbSeriesID  = "IMDbSeriesID"
	ShowTMDbID        = "TheMovieDB ID"
	ShowTVDbID        = "TVdbID"
	ShowMostRecent    = "Most Recent Episode"
	ShowOverride      = "OVERRIDE"
	ShowWikidataID    = "WikidataID"
)

// SkipMarker in ShowInfo OVERRIDE excludes a show from later stages.
const SkipMarker = "SKIP"

// CastInfo columns.
const (
	CastID            = "CastID"
	CastName          = "CastName"
	CastIMDbID        = "CastIMDbID"
	CastShowID        = "ShowID"
	CastShowName      = "ShowName"
	CastShowIMDbID    = "ShowIMDbID"
	CastTotalEpisodes = "TotalEpisodes"
	CastSeasons       = "Seasons"
	CastSeasonsUpdate = "Seasons-Update"
	CastGender        = "Gender"
	CastBirthday      = "Birthday"
	CastZodiac        = "Zodiac"
	CastBioUpdate     = "Bio-Update"
)

// UpdateInfo columns.
const (
	UpdatePersonTMDbID  = "PersonTMDbID"
	UpdatePersonName    = "PersonName"
	UpdatePersonIMDbID  = "PersonIMDbID"
	UpdateTotalShows    = "TotalShows"
	UpdateTotalEpisodes = "TotalEpisodes"
	UpdateShowIMDbIDs   = "ShowIMDbIDs"
	UpdateShowTMDbIDs   = "ShowTMDbIDs"
)

// ViableCast columns. EpisodeCount and Seasons (G and H) are written only by
// the episode extractor.
const (
	ViableShowIMDbID   = "Show IMDbID"
	ViableCastID       = "CastID"
	ViableCastName     = "CastName"
	ViableCastIMDbID   = "Cast IMDbID"
	ViableShowID       = "ShowID"
	ViableShowName     = "ShowName"
	ViableEpisodeCount = "EpisodeCount"
	ViableSeasons      = "Seasons"
)

// RealiteaseInfo columns.
const (
	FinalCastName    = "CastName"
	FinalCastIMDbID  = "CastIMDbID"
	FinalCastTMDbID  = "CastTMDbID"
	FinalShowNames   = "ShowNames"
	FinalShowIMDbIDs = "ShowIMDbIDs"
	FinalShowTMDbIDs = "ShowTMDbIDs"
	FinalShowCount   = "ShowCount"
	FinalGender      = "Gender"
	FinalBirthday    = "Birthday"
	FinalZodiac      = "Zodiac"
)

// Layout couples a worksheet name with its header and merge policy.
type Layout struct {
	Name   string
	Header []string
	Policy merge.Policy
}

// ShowInfoLayout returns the ShowInfo layout.
func ShowInfoLayout() Layout {
	return Layout{
		Name: ShowInfo,
		Header: []string{
			ShowKey, ShowName, ShowNetwork, ShowTotalSeasons, ShowTotalEpisodes,
			ShowIMDbSeriesID, ShowTMDbID, ShowTVDbID, ShowMostRecent, ShowOverride, ShowWikidataID,
		},
		Policy: merge.NewPolicy(
			merge.WithOverride(ShowOverride),
			merge.WithAlwaysRefresh(ShowMostRecent),
		),
	}
}

// CastInfoLayout returns the CastInfo layout. refreshEpisodes makes
// TotalEpisodes track the latest fetched count.
func CastInfoLayout(refreshEpisodes bool) Layout {
	opts := []merge.Option{
		merge.WithGuard(CastSeasonsUpdate, CastSeasons),
		merge.WithGuard(CastBioUpdate, CastGender, CastBirthday, CastZodiac),
	}
	if refreshEpisodes {
		opts = append(opts, merge.WithAlwaysRefresh(CastTotalEpisodes))
	}
	return Layout{
		Name: CastInfo,
		Header: []string{
			CastID, CastName, CastIMDbID, CastShowID, CastShowName, CastShowIMDbID,
			CastTotalEpisodes, CastSeasons, CastSeasonsUpdate, CastGender, CastBirthday, CastZodiac, CastBioUpdate,
		},
		Policy: merge.NewPolicy(opts...),
	}
}

// UpdateInfoLayout returns the UpdateInfo layout.
func UpdateInfoLayout() Layout {
	return Layout{
		Name: UpdateInfo,
		Header: []string{
			UpdatePersonTMDbID, UpdatePersonName, UpdatePersonIMDbID,
			UpdateTotalShows, UpdateTotalEpisodes, UpdateShowIMDbIDs, UpdateShowTMDbIDs,
		},
		Policy: merge.NewPolicy(
			merge.WithUnion(UpdateShowIMDbIDs, UpdateShowTMDbIDs),
			merge.WithAlwaysRefresh(UpdateTotalShows, UpdateTotalEpisodes),
		),
	}
}

// ViableCastLayout returns the ViableCast layout.
func ViableCastLayout() Layout {
	return Layout{
		Name: ViableCast,
		Header: []string{
			ViableShowIMDbID, ViableCastID, ViableCastName, ViableCastIMDbID,
			ViableShowID, ViableShowName, ViableEpisodeCount, ViableSeasons,
		},
		Policy: merge.NewPolicy(),
	}
}

// RealiteaseInfoLayout returns the RealiteaseInfo layout.
func RealiteaseInfoLayout() Layout {
	return Layout{
		Name: RealiteaseInfo,
		Header: []string{
			FinalCastName, FinalCastIMDbID, FinalCastTMDbID, FinalShowNames, FinalShowIMDbIDs,
			FinalShowTMDbIDs, FinalShowCount, FinalGender, FinalBirthday, FinalZodiac,
		},
		Policy: merge.NewPolicy(
			merge.WithNameUnion(FinalShowNames),
			merge.WithUnion(FinalShowIMDbIDs, FinalShowTMDbIDs),
			merge.WithAlwaysRefresh(FinalShowCount),
		),
	}
}

// All returns every layout in pipeline order.
func All() []Layout {
	return []Layout{
		ShowInfoLayout(),
		CastInfoLayout(false),
		UpdateInfoLayout(),
		ViableCastLayout(),
		RealiteaseInfoLayout(),
	}
}
