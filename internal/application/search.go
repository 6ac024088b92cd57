package application

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/tablebook/user-service/pkg/apperr"
)

// SearchUsers performs a multi_match search on email and name against the
// Elasticsearch index maintained by the event worker. When no index is
// configured it falls back to the repository's ILIKE search.
func (s *Service) SearchUsers(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if size <= 0 || size > 50 {
		size = 10
	}
	if s.ES == nil || s.ESUsersIndex == "" {
		return s.searchViaRepo(ctx, q, size)
	}

	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "name"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESUsersIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "search failed", err)
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "search decode failed", err)
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func (s *Service) searchViaRepo(ctx context.Context, q string, size int) ([]map[string]any, error) {
	page, err := s.Repo.Search(ctx, q, size, 0)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "search failed", err)
	}
	out := make([]map[string]any, 0, len(page.Users))
	for _, u := range page.Users {
		out = append(out, map[string]any{
			"id":    u.ID(),
			"email": u.Email(),
			"name":  u.Name(),
			"phone": u.Phone(),
		})
	}
	return out, nil
}
