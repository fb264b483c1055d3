package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/i474232898/city-explorer/internal/explorer"
)

const (
	NameTMDB = "tmdb"

	tmdbImageBase = "https://image.tmdb.org/t/p/w154"
)

// TMDBProvider searches The Movie Database by the location's search query.
type TMDBProvider struct {
	upstream
	apiKey string
	ttl    time.Duration
}

func NewTMDBProvider(client *http.Client, apiKey string, ttl time.Duration, opts ...Option) *TMDBProvider {
	return &TMDBProvider{
		upstream: newUpstream(NameTMDB, "https://api.themoviedb.org/3/search/movie", client, opts...),
		apiKey:   apiKey,
		ttl:      ttl,
	}
}

func (p *TMDBProvider) Kind() explorer.Kind {
	return explorer.KindMovies
}

func (p *TMDBProvider) TTL() time.Duration {
	return p.ttl
}

func (p *TMDBProvider) Fetch(ctx context.Context, loc explorer.Location) ([]explorer.Movie, error) {
	if p.apiKey == "" {
		return nil, p.fail(0, errMissingAPIKey)
	}

	values := url.Values{}
	values.Set("api_key", p.apiKey)
	values.Set("language", "en-US")
	values.Set("query", loc.SearchQuery)
	values.Set("page", "1")
	values.Set("include_adult", "false")

	var payload struct {
		Results []struct {
			Title       string  `json:"title"`
			Overview    string  `json:"overview"`
			VoteAverage float64 `json:"vote_average"`
			VoteCount   int64   `json:"vote_count"`
			PosterPath  string  `json:"poster_path"`
			Popularity  float64 `json:"popularity"`
			ReleaseDate string  `json:"release_date"`
		} `json:"results"`
	}

	if err := p.getJSON(ctx, fmt.Sprintf("%s?%s", p.baseURL, values.Encode()), &payload); err != nil {
		return nil, err
	}
	if payload.Results == nil {
		return nil, p.malformed("results missing")
	}

	movies := make([]explorer.Movie, 0, len(payload.Results))
	for _, m := range payload.Results {
		released, err := parseReleaseDate(m.ReleaseDate)
		if err != nil {
			return nil, p.malformed(fmt.Sprintf("release_date %q", m.ReleaseDate))
		}

		image := ""
		if m.PosterPath != "" {
			image = tmdbImageBase + m.PosterPath
		}

		movies = append(movies, explorer.Movie{
			Title:        m.Title,
			Overview:     m.Overview,
			AverageVotes: m.VoteAverage,
			TotalVotes:   m.VoteCount,
			ImageURL:     image,
			Popularity:   m.Popularity,
			ReleasedOn:   released,
		})
	}
	return movies, nil
}

// TMDB omits release_date for unreleased titles.
func parseReleaseDate(s string) (string, error) {
	if s == "" {
		return "", nil
	}
	ts, err := time.Parse("2006-01-02", s)
	if err != nil {
		return "", err
	}
	return explorer.FormatDate(ts), nil
}
