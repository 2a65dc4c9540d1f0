package web

import "encoding/json"

// Frame types for the live channel.
const (
	FrameTypeRequest  = "req"
	FrameTypeResponse = "res"
	FrameTypeEvent    = "event"
)

// Live channel methods and events.
const (
	MethodGallerySearch = "gallery.search"
	MethodGalleryMore   = "gallery.more"

	EventHello         = "hello"
	EventGalleryUpdate = "gallery.update"
)

// Frame is the envelope of every live channel message.
type Frame struct {
	Type string `json:"type"`

	// Request fields
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`

	// Response fields
	OK      *bool           `json:"ok,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`

	// Event fields
	Event string `json:"event,omitempty"`
	Seq   int64  `json:"seq,omitempty"`

	Error *ErrorShape `json:"error,omitempty"`
}

// ErrorShape is the error body of a failed response.
type ErrorShape struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Hello is pushed once after the socket opens.
type Hello struct {
	ConnID    string   `json:"connId"`
	Version   string   `json:"version"`
	Methods   []string `json:"methods"`
	SessionOK bool     `json:"sessionOk"`
}

// SearchParams are the params of gallery.search.
type SearchParams struct {
	Search string `json:"search"`
}

// GalleryUpdate is the payload of gallery.update. Browsers apply an update
// only when its generation is at least the newest one they have seen.
type GalleryUpdate struct {
	Generation uint64 `json:"generation"`
	Search     string `json:"search"`
	Page       int    `json:"page"`
	Loading    bool   `json:"loading"`
	HasMore    bool   `json:"hasMore"`
	Empty      bool   `json:"empty"`
	Failed     bool   `json:"failed"`
	Count      int    `json:"count"`
	HTML       string `json:"html"`
}

// NewRequest creates a request frame.
func NewRequest(id, method string, params any) (Frame, error) {
	raw, err := json.Marshal(params)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: FrameTypeRequest, ID: id, Method: method, Params: raw}, nil
}

// NewResponse creates a success response frame.
func NewResponse(id string, payload any) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	ok := true
	return Frame{Type: FrameTypeResponse, ID: id, OK: &ok, Payload: raw}, nil
}

// NewErrorResponse creates an error response frame.
func NewErrorResponse(id string, errShape ErrorShape) Frame {
	ok := false
	return Frame{Type: FrameTypeResponse, ID: id, OK: &ok, Error: &errShape}
}

// NewEvent creates an event frame.
func NewEvent(event string, payload any, seq int64) (Frame, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Type: FrameTypeEvent, Event: event, Payload: raw, Seq: seq}, nil
}
