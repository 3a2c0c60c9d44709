package source

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/suhasramanand/homefit-sub000/internal/scoring"
	"github.com/suhasramanand/homefit-sub000/internal/types"
)

// PGSource is a Postgres-backed listing source. It loads the preference
// set and candidate listings, applies the score engine, then filters,
// sorts, and pages the result. This is the reference upstream the HTTP
// client talks to in a deployed system.
type PGSource struct {
	pool *pgxpool.Pool
}

// ConnectPG establishes a connection pool and returns a Postgres source.
func ConnectPG(ctx context.Context, databaseURL string) (*PGSource, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &PGSource{pool: pool}, nil
}

// Close releases the connection pool.
func (s *PGSource) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// FetchMatches loads the preference set, scores every candidate listing,
// and returns the requested page.
func (s *PGSource) FetchMatches(ctx context.Context, prefSetID uuid.UUID, query types.Query) (*types.MatchPage, error) {
	query.Normalize()

	prefs, err := s.LoadPreferenceSet(ctx, prefSetID)
	if err != nil {
		return nil, err
	}

	listings, totalCount, err := s.loadListings(ctx, query.Filters)
	if err != nil {
		return nil, err
	}

	entries := make([]types.MatchEntry, 0, len(listings))
	for _, l := range listings {
		if !matchesFilters(l, query.Filters) {
			continue
		}
		entries = append(entries, types.MatchEntry{
			Listing:    l,
			MatchScore: scoring.Score(l, *prefs),
		})
	}

	sortEntries(entries, query.SortBy, query.SortOrder)

	filteredCount := len(entries)
	start := (query.Page - 1) * query.PageSize
	if start > filteredCount {
		start = filteredCount
	}
	end := start + query.PageSize
	if end > filteredCount {
		end = filteredCount
	}

	return &types.MatchPage{
		Results:       entries[start:end],
		TotalCount:    totalCount,
		FilteredCount: filteredCount,
	}, nil
}

// LoadPreferenceSet reads one preference set row.
func (s *PGSource) LoadPreferenceSet(ctx context.Context, id uuid.UUID) (*types.PreferenceSet, error) {
	var p types.PreferenceSet
	p.ID = id
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, budget_min, budget_max, bedrooms, bathrooms,
		        neighborhoods, amenities, updated_at
		 FROM preference_sets WHERE id = $1`,
		id,
	).Scan(&p.UserID, &p.BudgetMin, &p.BudgetMax, &p.Bedrooms, &p.Bathrooms,
		&p.Neighborhoods, &p.Amenities, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &Error{Op: "load preferences", StatusCode: 404, Message: fmt.Sprintf("preference set %s not found", id)}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load preference set: %w", err)
	}
	return &p, nil
}

// loadListings reads candidate listings with the numeric filters pushed
// into SQL, plus the unfiltered candidate count. Neighborhood and amenity
// filters use the same loose substring semantics as scoring, so they are
// applied in Go.
func (s *PGSource) loadListings(ctx context.Context, f types.FilterSet) ([]types.Listing, int, error) {
	var totalCount int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM listings`).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("failed to count listings: %w", err)
	}

	clauses := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if f.PriceMin > 0 {
		clauses = append(clauses, "price >= "+arg(f.PriceMin))
	}
	if f.PriceMax > 0 {
		clauses = append(clauses, "price <= "+arg(f.PriceMax))
	}
	if len(f.Bedrooms) > 0 {
		clauses = append(clauses, "bedrooms = ANY("+arg(f.Bedrooms)+")")
	}
	if len(f.Bathrooms) > 0 {
		clauses = append(clauses, "bathrooms = ANY("+arg(f.Bathrooms)+")")
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, title, price, bedrooms, bathrooms, neighborhood, city,
		        address, amenities, image_urls, created_at
		 FROM listings WHERE `+strings.Join(clauses, " AND "),
		args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query listings: %w", err)
	}
	defer rows.Close()

	var listings []types.Listing
	for rows.Next() {
		var l types.Listing
		if err := rows.Scan(&l.ID, &l.Title, &l.Price, &l.Bedrooms, &l.Bathrooms,
			&l.Neighborhood, &l.City, &l.Address, &l.Amenities, &l.ImageURLs, &l.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to read listings: %w", err)
	}
	return listings, totalCount, nil
}

// matchesFilters applies the neighborhood and amenity narrowing with the
// same case-insensitive substring semantics the score engine uses.
func matchesFilters(l types.Listing, f types.FilterSet) bool {
	if len(f.Neighborhoods) > 0 {
		haystack := strings.ToLower(l.Neighborhood + " " + l.City + " " + l.Address)
		found := false
		for _, want := range f.Neighborhoods {
			want = strings.ToLower(strings.TrimSpace(want))
			if want != "" && strings.Contains(haystack, want) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	for _, want := range f.Amenities {
		want = strings.ToLower(strings.TrimSpace(want))
		if want == "" {
			continue
		}
		found := false
		for _, have := range l.Amenities {
			have = strings.ToLower(strings.TrimSpace(have))
			if have != "" && (strings.Contains(have, want) || strings.Contains(want, have)) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// sortEntries orders scored entries by the requested field and direction.
// Ties fall back to listing ID so pagination is stable across requests.
func sortEntries(entries []types.MatchEntry, by types.SortField, order types.SortOrder) {
	less := func(i, j int) bool {
		var cmp int
		switch by {
		case types.SortByPrice:
			switch {
			case entries[i].Listing.Price < entries[j].Listing.Price:
				cmp = -1
			case entries[i].Listing.Price > entries[j].Listing.Price:
				cmp = 1
			}
		case types.SortByDateAdded:
			switch {
			case entries[i].Listing.CreatedAt.Before(entries[j].Listing.CreatedAt):
				cmp = -1
			case entries[i].Listing.CreatedAt.After(entries[j].Listing.CreatedAt):
				cmp = 1
			}
		default: // matchScore
			cmp = entries[i].MatchScore.Value - entries[j].MatchScore.Value
		}
		if cmp == 0 {
			return entries[i].Listing.ID.String() < entries[j].Listing.ID.String()
		}
		if order == types.SortAsc {
			return cmp < 0
		}
		return cmp > 0
	}
	sort.SliceStable(entries, less)
}
