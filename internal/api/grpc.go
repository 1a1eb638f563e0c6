package api

import (
	"context"
	"log/slog"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/miradorstack/mirador-kb/internal/models"
)

// ServiceName is the fully-qualified gRPC service name.
const ServiceName = "miradorkb.v1.KnowledgeBase"

// KnowledgeBaseServer is the gRPC contract. Every message is a google.protobuf.Struct
// carrying the JSON shape of the corresponding domain request or response.
type KnowledgeBaseServer interface {
	Analyze(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordIncident(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateIncident(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetIncident(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SearchIncidents(context.Context, *structpb.Struct) (*structpb.Struct, error)
	RecordFix(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateFixOutcome(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPatterns(context.Context, *structpb.Struct) (*structpb.Struct, error)
	AddPattern(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdatePattern(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpsertPattern(context.Context, *structpb.Struct) (*structpb.Struct, error)
	DeletePattern(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(KnowledgeBaseServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func methodDesc(name string, call unaryMethod) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(KnowledgeBaseServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + ServiceName + "/" + name,
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(KnowledgeBaseServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ServiceDesc describes the KnowledgeBase service for grpc.Server.RegisterService.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*KnowledgeBaseServer)(nil),
	Methods: []grpc.MethodDesc{
		methodDesc("Analyze", KnowledgeBaseServer.Analyze),
		methodDesc("RecordIncident", KnowledgeBaseServer.RecordIncident),
		methodDesc("UpdateIncident", KnowledgeBaseServer.UpdateIncident),
		methodDesc("GetIncident", KnowledgeBaseServer.GetIncident),
		methodDesc("SearchIncidents", KnowledgeBaseServer.SearchIncidents),
		methodDesc("RecordFix", KnowledgeBaseServer.RecordFix),
		methodDesc("UpdateFixOutcome", KnowledgeBaseServer.UpdateFixOutcome),
		methodDesc("GetStats", KnowledgeBaseServer.GetStats),
		methodDesc("ListPatterns", KnowledgeBaseServer.ListPatterns),
		methodDesc("AddPattern", KnowledgeBaseServer.AddPattern),
		methodDesc("UpdatePattern", KnowledgeBaseServer.UpdatePattern),
		methodDesc("UpsertPattern", KnowledgeBaseServer.UpsertPattern),
		methodDesc("DeletePattern", KnowledgeBaseServer.DeletePattern),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "miradorkb/v1/knowledge_base.proto",
}

// RegisterKnowledgeBaseServer attaches srv to s.
func RegisterKnowledgeBaseServer(s grpc.ServiceRegistrar, srv KnowledgeBaseServer) {
	s.RegisterService(&ServiceDesc, srv)
}

// GRPCHandler adapts a KnowledgeBase to the gRPC contract.
type GRPCHandler struct {
	kb     KnowledgeBase
	logger *slog.Logger
}

// NewGRPCHandler constructs the gRPC adapter.
func NewGRPCHandler(logger *slog.Logger, kb KnowledgeBase) *GRPCHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &GRPCHandler{kb: kb, logger: logger}
}

type validator interface {
	validate() error
}

func handle[Req validator, Resp any](ctx context.Context, logger *slog.Logger, method string, in *structpb.Struct, call func(context.Context, Req) (Resp, error)) (*structpb.Struct, error) {
	var req Req
	if err := FromStruct(in, &req); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if err := req.validate(); err != nil {
		return nil, toStatus(err)
	}
	resp, err := call(ctx, req)
	if err != nil {
		if StatusCode(err) == codes.Internal {
			logger.Error("rpc failed", slog.String("method", method), slog.Any("error", err))
		}
		return nil, toStatus(err)
	}
	out, err := ToStruct(resp)
	if err != nil {
		logger.Error("encode response failed", slog.String("method", method), slog.Any("error", err))
		return nil, status.Error(codes.Internal, "failed to encode response")
	}
	return out, nil
}

// Analyze runs an analysis over collected telemetry, a supplied bundle or a stored incident.
func (h *GRPCHandler) Analyze(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, h.logger, "Analyze", in, func(ctx context.Context, req analyzeRequest) (analysisResponse, error) {
		result, err := analyze(ctx, h.kb, req)
		return analysisResponse{Result: result}, err
	})
}

func analyze(ctx context.Context, kb KnowledgeBase, req analyzeRequest) (models.AnalysisResult, error) {
	if req.Bundle != nil && req.Options.IncidentID == "" {
		return kb.AnalyzeBundle(ctx, req.Project, *req.Bundle)
	}
	return kb.Analyze(ctx, req.Project, req.Options)
}

// RecordIncident stores a new incident.
func (h *GRPCHandler) RecordIncident(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, h.logger, "RecordIncident", in, func(ctx context.Context, req recordIncidentRequest) (incidentResponse, error) {
		incident, err := h.kb.RecordIncident(ctx, req.Project, req.Incident)
		return incidentResponse{Incident: incident}, err
	})
}

// UpdateIncident merges a patch into an incident.
func (h *GRPCHandler) UpdateIncident(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, h.logger, "UpdateIncident", in, func(ctx context.Context, req updateIncidentRequest) (incidentResponse, error) {
		incident, err := h.kb.UpdateIncident(ctx, req.Project, req.ID, req.Patch)
		return incidentResponse{Incident: incident}, err
	})
}

// GetIncident returns one incident.
func (h *GRPCHandler) GetIncident(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, h.logger, "GetIncident", in, func(ctx context.Context, req incidentIDRequest) (incidentResponse, error) {
		incident, err := h.kb.GetIncident(ctx, req.Project, req.ID)
		return incidentResponse{Incident: incident}, err
	})
}

// SearchIncidents filters stored incidents.
func (h *GRPCHandler) SearchIncidents(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, h.logger, "SearchIncidents", in, func(ctx context.Context, req searchIncidentsRequest) (incidentsResponse, error) {
		found, err := h.kb.SearchIncidents(ctx, req.Project, req.Filter)
		return incidentsResponse{Incidents: found}, err
	})
}

// RecordFix attaches a fix attempt to an incident.
func (h *GRPCHandler) RecordFix(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, h.logger, "RecordFix", in, func(ctx context.Context, req recordFixRequest) (fixResponse, error) {
		fix, err := h.kb.RecordFix(ctx, req.Project, req.IncidentID, req.Fix)
		return fixResponse{Fix: fix}, err
	})
}

// UpdateFixOutcome sets the outcome of an incident's fix.
func (h *GRPCHandler) UpdateFixOutcome(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, h.logger, "UpdateFixOutcome", in, func(ctx context.Context, req updateFixOutcomeRequest) (incidentResponse, error) {
		incident, err := h.kb.UpdateFixOutcome(ctx, req.Project, req.IncidentID, req.Outcome)
		return incidentResponse{Incident: incident}, err
	})
}

// GetStats summarises the project's knowledge base.
func (h *GRPCHandler) GetStats(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, h.logger, "GetStats", in, func(ctx context.Context, req projectRequest) (statsResponse, error) {
		stats, err := h.kb.Stats(ctx, req.Project)
		return statsResponse{Stats: stats}, err
	})
}

// ListPatterns returns the project's pattern catalog.
func (h *GRPCHandler) ListPatterns(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, h.logger, "ListPatterns", in, func(ctx context.Context, req projectRequest) (patternsResponse, error) {
		all, err := h.kb.ListPatterns(ctx, req.Project)
		return patternsResponse{Patterns: all}, err
	})
}

// AddPattern adds a new pattern; an empty id is generated.
func (h *GRPCHandler) AddPattern(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, h.logger, "AddPattern", in, func(ctx context.Context, req upsertPatternRequest) (patternResponse, error) {
		pattern, err := h.kb.AddPattern(ctx, req.Project, req.Pattern)
		return patternResponse{Pattern: pattern}, err
	})
}

// UpdatePattern merges a patch into an existing pattern.
func (h *GRPCHandler) UpdatePattern(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, h.logger, "UpdatePattern", in, func(ctx context.Context, req updatePatternRequest) (patternResponse, error) {
		pattern, err := h.kb.UpdatePattern(ctx, req.Project, req.ID, req.Patch)
		return patternResponse{Pattern: pattern}, err
	})
}

// UpsertPattern creates or redefines a pattern.
func (h *GRPCHandler) UpsertPattern(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, h.logger, "UpsertPattern", in, func(ctx context.Context, req upsertPatternRequest) (patternResponse, error) {
		pattern, err := h.kb.UpsertPattern(ctx, req.Project, req.Pattern)
		return patternResponse{Pattern: pattern}, err
	})
}

// DeletePattern removes a pattern.
func (h *GRPCHandler) DeletePattern(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	return handle(ctx, h.logger, "DeletePattern", in, func(ctx context.Context, req patternIDRequest) (deleteResponse, error) {
		deleted, err := h.kb.DeletePattern(ctx, req.Project, req.ID)
		return deleteResponse{Deleted: deleted}, err
	})
}
