package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/mirador-kb/internal/models"
	"github.com/miradorstack/mirador-kb/internal/utils"
)

// KnowledgeBase is the domain facade served by both transports.
type KnowledgeBase interface {
	Analyze(ctx context.Context, project string, opts models.AnalyzeOptions) (models.AnalysisResult, error)
	AnalyzeBundle(ctx context.Context, project string, bundle models.TelemetryBundle) (models.AnalysisResult, error)
	RecordIncident(ctx context.Context, project string, draft models.IncidentDraft) (models.Incident, error)
	UpdateIncident(ctx context.Context, project, id string, patch models.IncidentPatch) (models.Incident, error)
	GetIncident(ctx context.Context, project, id string) (models.Incident, error)
	SearchIncidents(ctx context.Context, project string, filter models.SearchFilter) ([]models.Incident, error)
	RecordFix(ctx context.Context, project, incidentID string, draft models.FixDraft) (models.FixRecord, error)
	UpdateFixOutcome(ctx context.Context, project, incidentID string, outcome models.FixOutcome) (models.Incident, error)
	Stats(ctx context.Context, project string) (models.KnowledgeBaseStats, error)
	ListPatterns(ctx context.Context, project string) ([]models.Pattern, error)
	AddPattern(ctx context.Context, project string, pattern models.Pattern) (models.Pattern, error)
	UpdatePattern(ctx context.Context, project, id string, patch models.PatternPatch) (models.Pattern, error)
	UpsertPattern(ctx context.Context, project string, pattern models.Pattern) (models.Pattern, error)
	DeletePattern(ctx context.Context, project, id string) (bool, error)
}

// ToStruct converts a JSON-serialisable value into a structpb.Struct.
func ToStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, fmt.Errorf("convert payload: %w", err)
	}
	return out, nil
}

// FromStruct decodes a structpb.Struct into dst using its JSON field names.
func FromStruct(in *structpb.Struct, dst any) error {
	if in == nil {
		return fmt.Errorf("request is nil")
	}
	data, err := protojson.Marshal(in)
	if err != nil {
		return fmt.Errorf("convert payload: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}

// StatusCode maps a domain error onto a gRPC code.
func StatusCode(err error) codes.Code {
	switch {
	case err == nil:
		return codes.OK
	case errors.Is(err, utils.ErrNotFound):
		return codes.NotFound
	case errors.Is(err, utils.ErrInvalidInput):
		return codes.InvalidArgument
	case errors.Is(err, utils.ErrStorageUnavailable):
		return codes.Unavailable
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded
	case errors.Is(err, context.Canceled):
		return codes.Canceled
	default:
		return codes.Internal
	}
}

// HTTPStatus maps a domain error onto an HTTP status code.
func HTTPStatus(err error) int {
	switch StatusCode(err) {
	case codes.OK:
		return http.StatusOK
	case codes.NotFound:
		return http.StatusNotFound
	case codes.InvalidArgument:
		return http.StatusBadRequest
	case codes.Unavailable:
		return http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func toStatus(err error) error {
	return status.Error(StatusCode(err), err.Error())
}

type projectRequest struct {
	Project string `json:"project"`
}

func (r projectRequest) validate() error {
	if r.Project == "" {
		return utils.InvalidInput("api", "project is required")
	}
	return nil
}

type analyzeRequest struct {
	projectRequest
	Options models.AnalyzeOptions  `json:"options"`
	Bundle  *models.TelemetryBundle `json:"bundle,omitempty"`
}

type recordIncidentRequest struct {
	projectRequest
	Incident models.IncidentDraft `json:"incident"`
}

type updateIncidentRequest struct {
	projectRequest
	ID    string               `json:"id"`
	Patch models.IncidentPatch `json:"patch"`
}

type incidentIDRequest struct {
	projectRequest
	ID string `json:"id"`
}

type searchIncidentsRequest struct {
	projectRequest
	Filter models.SearchFilter `json:"filter"`
}

type recordFixRequest struct {
	projectRequest
	IncidentID string          `json:"incidentId"`
	Fix        models.FixDraft `json:"fix"`
}

type updateFixOutcomeRequest struct {
	projectRequest
	IncidentID string            `json:"incidentId"`
	Outcome    models.FixOutcome `json:"outcome"`
}

type upsertPatternRequest struct {
	projectRequest
	Pattern models.Pattern `json:"pattern"`
}

type updatePatternRequest struct {
	projectRequest
	ID    string              `json:"id"`
	Patch models.PatternPatch `json:"patch"`
}

type patternIDRequest struct {
	projectRequest
	ID string `json:"id"`
}

type analysisResponse struct {
	Result models.AnalysisResult `json:"result"`
}

type incidentResponse struct {
	Incident models.Incident `json:"incident"`
}

type incidentsResponse struct {
	Incidents []models.Incident `json:"incidents"`
}

type fixResponse struct {
	Fix models.FixRecord `json:"fix"`
}

type statsResponse struct {
	Stats models.KnowledgeBaseStats `json:"stats"`
}

type patternsResponse struct {
	Patterns []models.Pattern `json:"patterns"`
}

type patternResponse struct {
	Pattern models.Pattern `json:"pattern"`
}

type deleteResponse struct {
	Deleted bool `json:"deleted"`
}
