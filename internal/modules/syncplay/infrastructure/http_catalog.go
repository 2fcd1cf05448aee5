package infrastructure

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sglre6355/syncbot/internal/modules/syncplay/application/ports"
	"github.com/sglre6355/syncbot/internal/modules/syncplay/domain"
)

// HTTPCatalog resolves media items through the media server's item API.
type HTTPCatalog struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPCatalog creates a new HTTPCatalog for the server at baseURL.
func NewHTTPCatalog(baseURL, token string) *HTTPCatalog {
	return &HTTPCatalog{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type itemsResponse struct {
	Items []itemDTO `json:"Items"`
}

type itemDTO struct {
	ID           domain.MediaItemID `json:"Id"`
	Name         string             `json:"Name"`
	AlbumArtist  string             `json:"AlbumArtist"`
	Album        string             `json:"Album"`
	RunTimeTicks int64              `json:"RunTimeTicks"`
	IsLive       bool               `json:"IsLive"`
}

// ResolveItems fetches the given items and returns them in the order of ids.
func (c *HTTPCatalog) ResolveItems(
	ctx context.Context,
	ids []domain.MediaItemID,
) ([]domain.Item, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	query := url.Values{}
	query.Set("Ids", strings.Join(parts, ","))

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodGet,
		c.baseURL+"/Items?"+query.Encode(),
		nil,
	)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request items: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request items: unexpected status %s", resp.Status)
	}

	var body itemsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}

	byID := make(map[domain.MediaItemID]itemDTO, len(body.Items))
	for _, dto := range body.Items {
		byID[dto.ID] = dto
	}

	items := make([]domain.Item, len(ids))
	for i, id := range ids {
		dto, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}
		item := domain.Item{
			ID:       id,
			Name:     dto.Name,
			Artist:   dto.AlbumArtist,
			Album:    dto.Album,
			Duration: domain.Ticks(dto.RunTimeTicks).Duration(),
			Source:   c.StreamURL(id),
			IsStream: dto.IsLive,
		}
		if !item.IsValid() {
			return nil, fmt.Errorf("%w: %s", ErrItemUnplayable, id)
		}
		items[i] = item
	}
	return items, nil
}

// StreamURL returns a URL the audio player can stream the item from,
// authenticated with the current token.
func (c *HTTPCatalog) StreamURL(id domain.MediaItemID) string {
	query := url.Values{}
	query.Set("static", "true")
	query.Set("api_key", c.token)
	return c.baseURL + "/Audio/" + id.String() + "/stream?" + query.Encode()
}

// Ensure HTTPCatalog implements ports.ItemCatalog and StreamSource.
var (
	_ ports.ItemCatalog = (*HTTPCatalog)(nil)
	_ StreamSource      = (*HTTPCatalog)(nil)
)
