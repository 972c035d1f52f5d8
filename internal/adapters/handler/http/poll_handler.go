package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/dood/internal/core/domain"
	"github.com/vncsmyrnk/dood/internal/core/ports"
	"github.com/vncsmyrnk/dood/internal/metrics"
)

type PollHandler struct {
	service ports.PollService
}

func NewPollHandler(service ports.PollService) *PollHandler {
	return &PollHandler{
		service: service,
	}
}

type initiatorRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// optionRequest accepts either a bare string label or an object.
type optionRequest struct {
	Value    string `json:"value"`
	Date     string `json:"date"`
	DateTime string `json:"date_time"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

func (o *optionRequest) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &o.Value)
	}
	type plain optionRequest
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode((*plain)(o))
}

type createPollRequest struct {
	Type        string           `json:"type"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	Location    string           `json:"location"`
	Hidden      bool             `json:"hidden"`
	Initiator   initiatorRequest `json:"initiator"`
	Options     []optionRequest  `json:"options"`
}

type pollRecordResponse struct {
	*domain.PollRecord
	Links domain.PollLinks `json:"links"`
}

func newPollRecordResponse(record *domain.PollRecord) pollRecordResponse {
	return pollRecordResponse{PollRecord: record, Links: record.Links()}
}

// CreatePoll creates a poll on doodle.com and records the returned admin key
// so the poll can be managed later.
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req createPollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}

	input := ports.CreatePollInput{
		Type:           req.Type,
		Title:          req.Title,
		Description:    req.Description,
		Location:       req.Location,
		Hidden:         req.Hidden,
		InitiatorName:  req.Initiator.Name,
		InitiatorEmail: req.Initiator.Email,
	}
	for _, opt := range req.Options {
		input.Options = append(input.Options, ports.OptionInput{
			Value:    opt.Value,
			Date:     opt.Date,
			DateTime: opt.DateTime,
			Start:    opt.Start,
			End:      opt.End,
		})
	}

	record, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	metrics.IncPollCreated(record.Type)

	writeJSON(w, http.StatusCreated, newPollRecordResponse(record))
}

// ListPolls returns recorded polls, newest first, ten per page.
func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid page"})
			return
		}
		page = n
	}

	records, err := h.service.ListPolls(r.Context(), ports.ListPollsInput{Page: page})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := make([]pollRecordResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, newPollRecordResponse(record))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetPoll returns the poll document as fetched from doodle.com.
func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "missing poll id"})
		return
	}

	poll, err := h.service.GetPoll(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, poll)
}

// GetLinks returns the public and admin URLs of a recorded poll.
func (h *PollHandler) GetLinks(w http.ResponseWriter, r *http.Request) {
	links, err := h.service.GetLinks(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, links)
}
