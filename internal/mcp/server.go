// Package mcp exposes the assessment engine and knowledge base to agents
// over the Model Context Protocol.
package mcp

import (
	"context"
	"strings"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ppiankov/compliancewatch/internal/assess"
	"github.com/ppiankov/compliancewatch/internal/knowledge"
)

// Resource URI schemes.
const (
	PolicyScheme = "policy://"
	CaseScheme   = "case://"
)

// Server wraps the MCP SDK server around an assessment engine.
type Server struct {
	mcpServer *mcpsdk.Server
	engine    *assess.Engine
	store     *knowledge.Store
}

// New creates an MCP server with all tools and resources registered.
func New(engine *assess.Engine, version string) *Server {
	s := &Server{
		engine: engine,
		store:  engine.Store(),
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "compliancewatch",
			Version: version,
		},
		nil,
	)

	s.registerTools()
	s.registerResources()
	return s
}

// Run starts the MCP server on stdio transport. Blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Connect serves a single session on t. Used with in-memory transports.
func (s *Server) Connect(ctx context.Context, t mcpsdk.Transport) (*mcpsdk.ServerSession, error) {
	return s.mcpServer.Connect(ctx, t, nil)
}

// registerTools adds all compliancewatch tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "seed_demo_kb",
		Description: "Populate the knowledge base with demo policies and cases. Does nothing when documents already exist.",
	}, s.handleSeed)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "demo_payload",
		Description: "Return an example payload for a category: decision, procurement or analytics.",
	}, s.handleDemoPayload)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "schema_hint",
		Description: "Describe the payload fields the risk rules read for a category.",
	}, s.handleSchemaHint)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "ingest_policy",
		Description: "Add or replace a policy clause in the knowledge base.",
	}, s.handleIngestPolicy)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "ingest_case",
		Description: "Add or replace a historical compliance case (audit finding or rejection record).",
		InputSchema: ingestCaseSchema(),
	}, s.handleIngestCase)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "assess_compliance_risk",
		Description: "Assess a business action: rule signals, cited policies and cases, risk probability and level, follow-up questions.",
		InputSchema: assessSchema(),
	}, s.handleAssess)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "assess_compliance_context",
		Description: "Gather evidence for a business action (rule signals, policy hits, case hits) without scoring. Follow with calculate_risk_score.",
		InputSchema: assessSchema(),
	}, s.handleAssessContext)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "calculate_risk_score",
		Description: "Score evidence returned by assess_compliance_context into a probability and level.",
		InputSchema: scoreSchema(),
	}, s.handleCalculateScore)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "assess_demo",
		Description: "Run a complete assessment on the built-in demo payload for a category.",
	}, s.handleAssessDemo)
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(&mcpsdk.ResourceTemplate{
		URITemplate: PolicyScheme + "{id}",
		Name:        "policy",
		Description: "A policy clause as JSON. Unknown ids return empty text.",
		MIMEType:    "application/json",
	}, s.readDocument(PolicyScheme, s.store.PolicyJSON))

	s.mcpServer.AddResourceTemplate(&mcpsdk.ResourceTemplate{
		URITemplate: CaseScheme + "{id}",
		Name:        "case",
		Description: "A historical case as JSON. Unknown ids return empty text.",
		MIMEType:    "application/json",
	}, s.readDocument(CaseScheme, s.store.CaseJSON))
}

func (s *Server) readDocument(scheme string, lookup func(string) string) mcpsdk.ResourceHandler {
	return func(ctx context.Context, req *mcpsdk.ReadResourceRequest) (*mcpsdk.ReadResourceResult, error) {
		s.engine.EnsureSeeded(ctx)
		uri := req.Params.URI
		id := strings.TrimPrefix(uri, scheme)
		return &mcpsdk.ReadResourceResult{
			Contents: []*mcpsdk.ResourceContents{{
				URI:      uri,
				MIMEType: "application/json",
				Text:     lookup(id),
			}},
		}, nil
	}
}
