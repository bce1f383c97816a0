package server

import (
	"time"

	"github.com/GriffinCanCode/swatchqc/internal/pipeline"
)

// RegionStatus is one region in the status document. Index is 1-based.
type RegionStatus struct {
	Index  int        `json:"index"`
	Hex    string     `json:"hex"`
	RGB    [3]float64 `json:"rgb"`
	Lab    [3]float64 `json:"lab"`
	Method string     `json:"method"`
}

// StatusResponse is the /api/status document.
type StatusResponse struct {
	Seq             uint64         `json:"seq"`
	Timestamp       time.Time      `json:"timestamp"`
	BoxColors       []string       `json:"box_colors"`
	Regions         []RegionStatus `json:"regions"`
	Similarities    []string       `json:"similarities"`
	CurrentLighting string         `json:"current_lighting"`
	MaxDeltaE       float64        `json:"max_delta_e"`
	PassFail        string         `json:"pass_fail"`
	StatusMessage   string         `json:"status_message"`
	Groups          [][]int        `json:"groups"`
}

// NewStatusResponse renders a snapshot for clients. Group members are 1-based,
// matching the status message.
func NewStatusResponse(s pipeline.Snapshot) StatusResponse {
	resp := StatusResponse{
		Seq:             s.Seq,
		Timestamp:       s.Timestamp,
		BoxColors:       s.Hexes(),
		Similarities:    s.SimilarityLabels(),
		CurrentLighting: s.Lighting,
		MaxDeltaE:       s.MaxDeltaERounded(),
		PassFail:        s.Status,
		StatusMessage:   s.Message,
		Groups:          make([][]int, len(s.Groups)),
	}
	for i, g := range s.Groups {
		members := make([]int, len(g))
		for j, idx := range g {
			members[j] = idx + 1
		}
		resp.Groups[i] = members
	}
	for _, r := range s.Regions {
		resp.Regions = append(resp.Regions, RegionStatus{
			Index:  r.Index + 1,
			Hex:    r.Hex,
			RGB:    [3]float64{r.RGB.R, r.RGB.G, r.RGB.B},
			Lab:    [3]float64{r.Lab.L, r.Lab.A, r.Lab.B},
			Method: string(r.Method),
		})
	}
	return resp
}

// StatusMessage is a status document pushed over /ws.
type StatusMessage struct {
	Type string `json:"type"`
	StatusResponse
}

// ClientMessage is anything a WebSocket client sends.
type ClientMessage struct {
	Type     string  `json:"type"`
	Lighting *string `json:"lighting,omitempty"`
	TraceID  string  `json:"trace_id,omitempty"`
}

// LightingMessage acknowledges a lighting change.
type LightingMessage struct {
	Type     string `json:"type"`
	Lighting string `json:"lighting"`
}

// ErrorMessage reports a rejected WebSocket message.
type ErrorMessage struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the JSON body of a failed HTTP request.
type ErrorResponse struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// SetLightingRequest is the /api/set_lighting body. A missing field selects
// the default lighting.
type SetLightingRequest struct {
	Lighting *string `json:"lighting"`
}

// SetLightingResponse answers /api/set_lighting.
type SetLightingResponse struct {
	Success  bool   `json:"success"`
	Lighting string `json:"lighting"`
}

// SetCameraRequest is the /api/set_camera body.
type SetCameraRequest struct {
	URL string `json:"url"`
}

// SetCameraResponse answers /api/set_camera.
type SetCameraResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
