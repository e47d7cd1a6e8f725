package arcgis

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cartolab/geopipe/internal/geo"
)

// Client queries ArcGIS FeatureServer endpoints.
type Client struct {
	HTTPClient *http.Client
}

// NewClient returns a client with the given request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// ServiceLayers fetches FeatureServer metadata and returns its layers.
func (c *Client) ServiceLayers(serviceURL string) ([]Layer, error) {
	fetchURL := strings.TrimRight(serviceURL, "/") + "?f=json"

	log.Debug().Str("url", fetchURL).Msg("Fetching service metadata")

	var meta ServiceMetadata
	if err := c.getJSON(fetchURL, &meta); err != nil {
		return nil, fmt.Errorf("fetch service metadata: %w", err)
	}
	if meta.Error != nil {
		return nil, fmt.Errorf("feature server error: %w", meta.Error)
	}
	if len(meta.Layers) == 0 {
		return nil, fmt.Errorf("no layers found at %s", serviceURL)
	}

	return meta.Layers, nil
}

// QueryLayer runs a filtered query against one layer and returns the
// matching features as a WGS84 collection. An empty where clause selects
// everything.
func (c *Client) QueryLayer(serviceURL, layerID, where string) (*geo.FeatureCollection, error) {
	queryURL := fmt.Sprintf("%s/%s/query", strings.TrimRight(serviceURL, "/"), layerID)
	u, err := url.Parse(queryURL)
	if err != nil {
		return nil, fmt.Errorf("invalid service URL %s: %w", serviceURL, err)
	}

	if where == "" {
		where = "1=1"
	}

	q := u.Query()
	q.Set("f", "json")
	q.Set("where", where)
	q.Set("outFields", "*")
	q.Set("returnGeometry", "true")
	q.Set("outSR", "4326")
	u.RawQuery = q.Encode()

	log.Info().
		Str("layer", layerID).
		Str("where", where).
		Msg("Querying feature layer")

	var resp QueryResponse
	if err := c.getJSON(u.String(), &resp); err != nil {
		return nil, fmt.Errorf("query layer %s: %w", layerID, err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("query layer %s: %w", layerID, resp.Error)
	}
	if resp.ExceededTransferLimit {
		log.Warn().
			Str("layer", layerID).
			Msg("Feature transfer limit exceeded, results may be incomplete")
	}

	fc := geo.NewFeatureCollection(geo.WGS84)
	fc.Features = make([]geo.Feature, 0, len(resp.Features))
	for i, f := range resp.Features {
		g, err := f.Geometry.ToOrb()
		if err != nil {
			return nil, fmt.Errorf("layer %s feature %d: %w", layerID, i, err)
		}
		fc.Append(g, f.Attributes)
	}

	return fc, nil
}

func (c *Client) getJSON(urlStr string, target interface{}) error {
	resp, err := c.HTTPClient.Get(urlStr)
	if err != nil {
		if urlErr, ok := err.(*url.Error); ok && urlErr.Timeout() {
			return fmt.Errorf("request timed out: %w", err)
		}
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("parse JSON: %w", err)
	}

	return nil
}
