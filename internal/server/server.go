// Package server exposes the assessment engine over gRPC.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	pb "github.com/ppiankov/compliancewatch/api/compliancewatch/v1"
	"github.com/ppiankov/compliancewatch/internal/app"
	"github.com/ppiankov/compliancewatch/internal/embedding"
	"github.com/ppiankov/compliancewatch/internal/knowledge"
	"github.com/ppiankov/compliancewatch/internal/logging"
	"github.com/ppiankov/compliancewatch/internal/model"
)

// Config holds gRPC server configuration.
type Config struct {
	Port int
}

// Server implements the ComplianceService gRPC server.
type Server struct {
	pb.UnimplementedComplianceServiceServer

	app *app.App
	cfg Config

	grpcServer *grpc.Server
}

// New creates a gRPC server backed by a.
func New(a *app.App, cfg Config) *Server {
	s := &Server{
		app: a,
		cfg: cfg,
		grpcServer: grpc.NewServer(
			grpc.ChainUnaryInterceptor(loggingInterceptor),
		),
	}
	pb.RegisterComplianceServiceServer(s.grpcServer, s)
	return s
}

// Serve starts the gRPC server on the configured port. Blocks until stopped.
func (s *Server) Serve() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.Port))
	if err != nil {
		return goerr.Wrap(err, "failed to listen", goerr.V("port", s.cfg.Port))
	}
	return s.ServeOn(lis)
}

// ServeOn starts the gRPC server on the given listener.
func (s *Server) ServeOn(lis net.Listener) error {
	logging.Default().Info("grpc server listening", "addr", lis.Addr().String())
	return s.grpcServer.Serve(lis)
}

// GracefulStop gracefully shuts down the gRPC server.
func (s *Server) GracefulStop() {
	s.grpcServer.GracefulStop()
}

type assessRequest struct {
	Category     string `json:"category"`
	SourceSystem string `json:"source_system"`
	Payload      any    `json:"payload"`
}

type policyRequest struct {
	DocID         string `json:"doc_id"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	EffectiveFrom string `json:"effective_from"`
	Scope         string `json:"scope"`
}

type caseRequest struct {
	CaseID   string `json:"case_id"`
	Summary  string `json:"summary"`
	Decision string `json:"decision"`
	Reasons  string `json:"reasons"`
	Tags     any    `json:"tags"`
	TagsJSON any    `json:"tags_json"`
}

type documentRequest struct {
	ID string `json:"id"`
}

// Assess implements the Assess RPC.
func (s *Server) Assess(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req assessRequest
	if err := decode(in, &req); err != nil {
		return nil, toStatus(err)
	}
	category, err := parseCategory(req.Category, req.SourceSystem)
	if err != nil {
		return nil, toStatus(err)
	}
	result, err := s.app.Engine().Assess(ctx, category, req.Payload)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(result)
}

// AssessContext implements the AssessContext RPC.
func (s *Server) AssessContext(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req assessRequest
	if err := decode(in, &req); err != nil {
		return nil, toStatus(err)
	}
	category, err := parseCategory(req.Category, req.SourceSystem)
	if err != nil {
		return nil, toStatus(err)
	}
	result, err := s.app.Engine().AssessContext(ctx, category, req.Payload)
	if err != nil {
		return nil, toStatus(err)
	}
	return encode(result)
}

// IngestPolicy implements the IngestPolicy RPC.
func (s *Server) IngestPolicy(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req policyRequest
	if err := decode(in, &req); err != nil {
		return nil, toStatus(err)
	}
	counts, err := s.app.Store().IngestPolicy(model.PolicyDocument{
		ID:            req.DocID,
		Title:         req.Title,
		Content:       req.Content,
		EffectiveFrom: req.EffectiveFrom,
		Scope:         req.Scope,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	logging.From(ctx).Info("policy ingested", "doc_id", req.DocID, "policies", counts.Policies)
	return encodeCounts(req.DocID, counts)
}

// IngestCase implements the IngestCase RPC.
func (s *Server) IngestCase(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req caseRequest
	if err := decode(in, &req); err != nil {
		return nil, toStatus(err)
	}
	tags := req.Tags
	if tags == nil {
		tags = req.TagsJSON
	}
	counts, err := s.app.Store().IngestCase(model.CaseDocument{
		ID:       req.CaseID,
		Summary:  req.Summary,
		Decision: model.Decision(req.Decision),
		Reasons:  req.Reasons,
		Tags:     knowledge.ParseTags(tags),
	})
	if err != nil {
		return nil, toStatus(err)
	}
	logging.From(ctx).Info("case ingested", "case_id", req.CaseID, "cases", counts.Cases)
	return encodeCounts(req.CaseID, counts)
}

// GetDocument implements the GetDocument RPC.
func (s *Server) GetDocument(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	var req documentRequest
	if err := decode(in, &req); err != nil {
		return nil, toStatus(err)
	}
	s.app.Engine().EnsureSeeded(ctx)

	store := s.app.Store()
	docType := model.CitationPolicy
	raw := store.PolicyJSON(req.ID)
	if raw == "" {
		docType = model.CitationCase
		raw = store.CaseJSON(req.ID)
	}
	if raw == "" {
		return nil, status.Errorf(codes.NotFound, "document %q not found", req.ID)
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, status.Errorf(codes.Internal, "decode document: %v", err)
	}
	return encode(map[string]any{"id": req.ID, "type": docType, "document": doc})
}

// Seed implements the Seed RPC.
func (s *Server) Seed(ctx context.Context, in *structpb.Struct) (*structpb.Struct, error) {
	counts, seeded := s.app.Store().Seed()
	return encode(map[string]any{
		"policies": counts.Policies,
		"cases":    counts.Cases,
		"seeded":   seeded,
	})
}

func parseCategory(category, alias string) (model.Category, error) {
	if strings.TrimSpace(category) == "" {
		category = alias
	}
	return model.ParseCategory(category)
}

var errBadRequest = errors.New("malformed request")

// decode maps a Struct onto a request type through its JSON form.
func decode(in *structpb.Struct, v any) error {
	data, err := json.Marshal(in.AsMap())
	if err != nil {
		return goerr.Wrap(errBadRequest, err.Error())
	}
	if err := json.Unmarshal(data, v); err != nil {
		return goerr.Wrap(errBadRequest, err.Error())
	}
	return nil
}

func encode(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

func encodeCounts(id string, counts knowledge.Counts) (*structpb.Struct, error) {
	return encode(map[string]any{
		"id":       id,
		"policies": counts.Policies,
		"cases":    counts.Cases,
	})
}

// toStatus maps domain errors onto gRPC status codes.
func toStatus(err error) error {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, model.ErrUnknownCategory),
		errors.Is(err, model.ErrUnknownDecision),
		errors.Is(err, knowledge.ErrInvalidDocument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, embedding.ErrProvider):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

// loggingInterceptor attaches a request-scoped logger and logs each call.
func loggingInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	logger := logging.Default().With(
		"request_id", uuid.NewString(),
		"method", info.FullMethod,
	)
	start := time.Now()
	resp, err := handler(logging.With(ctx, logger), req)

	code := status.Code(err)
	attrs := []any{"code", code.String(), "duration", time.Since(start)}
	switch code {
	case codes.OK:
		logger.Debug("rpc completed", attrs...)
	case codes.Internal, codes.Unavailable:
		logger.Error("rpc failed", append(attrs, slog.Any("error", err))...)
	default:
		logger.Info("rpc rejected", append(attrs, slog.Any("error", err))...)
	}
	return resp, err
}
