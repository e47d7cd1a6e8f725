// Package arcgis queries ArcGIS FeatureServer REST endpoints and converts
// ESRI JSON features into the internal model.
package arcgis

import "encoding/json"

// ServiceMetadata is the subset of FeatureServer metadata we need to list
// queryable layers.
type ServiceMetadata struct {
	CurrentVersion json.Number `json:"currentVersion"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	Layers         []Layer     `json:"layers"`
	Tables         []Layer     `json:"tables"`
	Error          *APIError   `json:"error"`
}

// Layer describes one layer of a feature service.
type Layer struct {
	ID           json.Number `json:"id"`
	Name         string      `json:"name"`
	Type         string      `json:"type"`
	GeometryType string      `json:"geometryType"`
}

// QueryResponse is the result of a layer query.
type QueryResponse struct {
	Features              []Feature `json:"features"`
	ExceededTransferLimit bool      `json:"exceededTransferLimit"`
	Error                 *APIError `json:"error"`
}

// Feature is one ESRI JSON feature: an attribute map plus a geometry
// holding either x/y, paths or rings.
type Feature struct {
	Attributes map[string]interface{} `json:"attributes"`
	Geometry   *Geometry              `json:"geometry"`
}

// Geometry is the ESRI JSON geometry envelope.
type Geometry struct {
	X     *float64      `json:"x"`
	Y     *float64      `json:"y"`
	Paths [][][]float64 `json:"paths"`
	Rings [][][]float64 `json:"rings"`
}

// APIError is the error object ArcGIS embeds in otherwise-200 responses.
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return e.Message
}
