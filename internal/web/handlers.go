package web

import (
	"errors"
	"fmt"
	"io"
	"math"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/JonMunkholm/licor/internal/core"
	"github.com/JonMunkholm/licor/internal/dictionary"
	"github.com/JonMunkholm/licor/internal/logging"
	"github.com/JonMunkholm/licor/internal/metrics"
	"github.com/JonMunkholm/licor/internal/stats"
)

const multipartSlack = 1 << 20

// ParseResponse is the body returned by POST /api/parse.
type ParseResponse struct {
	ID              uuid.UUID           `json:"id"`
	Filename        string              `json:"filename,omitempty"`
	Device          string              `json:"device"`
	Config          string              `json:"config"`
	Metadata        core.Metadata       `json:"metadata"`
	Rows            int                 `json:"rows"`
	Variables       []core.VariableInfo `json:"variables"`
	FallbackColumns []string            `json:"fallback_columns"`
	Summaries       []stats.Summary     `json:"summaries"`
	Columns         map[string][]any    `json:"columns,omitempty"` // Only with ?rows=true
}

// DeviceInfo describes a device accepted by ?device=.
type DeviceInfo struct {
	Name      string `json:"name"`
	Model     string `json:"model"`
	Supported bool   `json:"supported"`
}

// MeasurementInfo describes a configuration accepted by ?config=.
type MeasurementInfo struct {
	Name              string   `json:"name"`
	Label             string   `json:"label"`
	RequiredVariables []string `json:"required_variables"`
}

// VariableResponse is one dictionary entry.
type VariableResponse struct {
	Name         string        `json:"name"`
	DisplayLabel string        `json:"display_label"`
	Units        string        `json:"units,omitempty"`
	Description  string        `json:"description"`
	DataType     core.DataType `json:"data_type"`
	Section      string        `json:"section"`
	Subsection   string        `json:"subsection"`
	SourceTable  string        `json:"source_table,omitempty"`
	SectionTitle string        `json:"section_title,omitempty"`
}

// handleParse parses the uploaded log and returns its metadata, variables
// and column summaries.
//
// Query parameters:
//   - device: 6800 or 6400 (default from LICOR_DEVICE)
//   - config: standard, fluorometer, aquatic or soil (default from LICOR_CONFIG)
//   - rows: "true" to include column values
//
// The log is the raw request body, or the "file" part of a multipart form.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	parser, err := s.parserFor(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	includeRows, err := queryBool(r, "rows")
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		s.respondError(w, r, err)
		return
	}
	defer s.limiter.Release()

	// The size limit applies to the log itself; the slack covers multipart framing.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Convert.MaxFileSize+multipartSlack)

	body, filename, err := requestBody(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	id := uuid.New()
	logger := logging.WithFields(ctx,
		"parse_id", id.String(),
		"file", filename,
		"device", parser.Device(),
		"config", parser.Measurement(),
	)

	done := s.metrics.Start(metrics.SourceAPI)
	ds, err := parser.ParseReader(core.NewSizeLimitReader(body, s.cfg.Convert.MaxFileSize))
	done(ds, err)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	logger.Info("log parsed",
		"rows", ds.NumRows(),
		"columns", ds.NumColumns(),
		"fallback_columns", ds.FallbackColumns(),
	)

	resp := ParseResponse{
		ID:              id,
		Filename:        filename,
		Device:          parser.Device().String(),
		Config:          parser.Measurement().String(),
		Metadata:        ds.Metadata,
		Rows:            ds.NumRows(),
		Variables:       ds.Variables,
		FallbackColumns: ds.FallbackColumns(),
		Summaries:       stats.Dataset(ds),
	}
	if resp.FallbackColumns == nil {
		resp.FallbackColumns = []string{}
	}
	if includeRows {
		resp.Columns = columnValues(ds)
	}
	writeJSON(w, http.StatusOK, resp)
}

// parserFor builds a parser from the device and config query parameters.
func (s *Server) parserFor(r *http.Request) (*core.Parser, error) {
	q := r.URL.Query()

	deviceName := q.Get("device")
	if deviceName == "" {
		deviceName = s.cfg.Convert.Device
	}
	device, err := core.ParseDevice(deviceName)
	if err != nil {
		return nil, badRequest(err)
	}

	configName := q.Get("config")
	if configName == "" {
		configName = s.cfg.Convert.Measurement
	}
	measurement, err := core.ParseMeasurement(configName)
	if err != nil {
		return nil, badRequest(err)
	}

	parser, err := core.NewParser(device, measurement, s.dict)
	if err != nil {
		return nil, badRequest(err)
	}
	return parser, nil
}

// requestBody returns the uploaded log and its file name, if known.
// Multipart forms are streamed part by part; the log is never buffered to disk.
func requestBody(r *http.Request) (io.Reader, string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return r.Body, r.URL.Query().Get("filename"), nil
	}

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, "", badRequest(err)
	}
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, "", badRequest(errors.New(`multipart form has no "file" part`))
		}
		if err != nil {
			return nil, "", badRequest(fmt.Errorf("read multipart form: %w", err))
		}
		if part.FormName() == "file" {
			return part, part.FileName(), nil
		}
		part.Close()
	}
}

// columnValues returns each column's cells keyed by column name.
// Nulls and non-finite floats become JSON null.
func columnValues(ds *core.Dataset) map[string][]any {
	out := make(map[string][]any, len(ds.Columns))
	for i := range ds.Columns {
		c := &ds.Columns[i]
		values := make([]any, c.Len())
		for row := range values {
			v := c.Value(row)
			if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
				v = nil
			}
			values[row] = v
		}
		out[c.Name] = values
	}
	return out
}

func queryBool(r *http.Request, name string) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, badRequest(fmt.Errorf("invalid %s=%q: must be true or false", name, raw))
	}
	return b, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"variables":  s.dict.Len(),
		"parse_pool": s.limiter.Status(),
	})
}

func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices := core.Devices()
	out := make([]DeviceInfo, len(devices))
	for i, d := range devices {
		out[i] = DeviceInfo{Name: d.String(), Model: d.Name(), Supported: d.Supported()}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListMeasurements(w http.ResponseWriter, r *http.Request) {
	all := core.Measurements()
	out := make([]MeasurementInfo, len(all))
	for i, m := range all {
		out[i] = MeasurementInfo{
			Name:              m.String(),
			Label:             m.Label(),
			RequiredVariables: m.RequiredVariables(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

// handleListVariables lists dictionary entries, optionally narrowed by
// ?section= and ?source_table=.
func (s *Server) handleListVariables(w http.ResponseWriter, r *http.Request) {
	section := r.URL.Query().Get("section")
	sourceTable := r.URL.Query().Get("source_table")

	out := make([]VariableResponse, 0, len(s.entries))
	for _, e := range s.entries {
		if section != "" && e.Section != section {
			continue
		}
		if sourceTable != "" && !strings.EqualFold(e.SourceTable, sourceTable) {
			continue
		}
		out = append(out, variableResponse(e))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetVariable(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	e, ok := s.variables[name]
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{
			Error:   fmt.Sprintf("variable %q is not in the dictionary", name),
			Message: fmt.Sprintf("variable %q is not in the dictionary", name),
			Action:  "List known variables with GET /api/variables",
			Code:    "VAR002",
		})
		return
	}
	writeJSON(w, http.StatusOK, variableResponse(e))
}

func variableResponse(e dictionary.Entry) VariableResponse {
	return VariableResponse{
		Name:         e.InternalName,
		DisplayLabel: e.DisplayLabel,
		Units:        e.Units,
		Description:  e.Description,
		DataType:     e.DataType,
		Section:      e.Section,
		Subsection:   e.Subsection,
		SourceTable:  e.SourceTable,
		SectionTitle: e.SectionTitle,
	}
}
