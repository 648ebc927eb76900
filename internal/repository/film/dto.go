package film

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/kinotech/filmdex/internal/db"
	"github.com/kinotech/filmdex/internal/domain"
)

// filmDoc mirrors the JSON film document held by the store.
type filmDoc struct {
	ID          string             `json:"id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Rating      *float64           `json:"imdb_rating"`
	Genres      []domain.GenreRef  `json:"genres"`
	Actors      []domain.PersonRef `json:"actors"`
	Directors   []domain.PersonRef `json:"directors"`
	Writers     []domain.PersonRef `json:"writers"`
}

func (d filmDoc) toDomain() domain.Film {
	return domain.Film{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Rating:      d.Rating,
		Genres:      d.Genres,
		Actors:      d.Actors,
		Directors:   d.Directors,
		Writers:     d.Writers,
	}
}

// parseFilmJSON decodes a film document. JSON.GET with a "$" path wraps
// the document in a one-element array; bare objects are accepted too.
func parseFilmJSON(raw []byte) (domain.Film, error) {
	if len(raw) > 0 && raw[0] == '[' {
		var docs []filmDoc
		if err := json.Unmarshal(raw, &docs); err != nil {
			return domain.Film{}, fmt.Errorf("decode film document: %w", err)
		}
		if len(docs) == 0 {
			return domain.Film{}, fmt.Errorf("decode film document: empty path result")
		}
		return docs[0].toDomain(), nil
	}

	var doc filmDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return domain.Film{}, fmt.Errorf("decode film document: %w", err)
	}
	return doc.toDomain(), nil
}

// parseEntryFilm decodes a film out of a search entry carrying the whole
// document under the "$" projection.
func parseEntryFilm(entry db.SearchEntry) (domain.Film, error) {
	raw, ok := entry.Fields["$"]
	if !ok || raw == "" {
		return domain.Film{}, fmt.Errorf("entry %s: missing document payload", entry.Key)
	}
	f, err := parseFilmJSON([]byte(raw))
	if err != nil {
		return domain.Film{}, fmt.Errorf("entry %s: %w", entry.Key, err)
	}
	return f, nil
}

// parseSummary builds a listing summary from projected search fields.
func parseSummary(entry db.SearchEntry) domain.FilmSummary {
	s := domain.FilmSummary{
		ID:    entry.Fields["id"],
		Title: entry.Fields["title"],
	}
	if s.ID == "" {
		s.ID = trimKeyPrefix(entry.Key)
	}
	if raw, ok := entry.Fields["imdb_rating"]; ok && raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			s.Rating = &v
		}
	}
	return s
}
