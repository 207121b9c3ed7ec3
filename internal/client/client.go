// Package client talks to a remote compliancewatch gRPC server.
package client

import (
	"context"
	"encoding/json"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	pb "github.com/ppiankov/compliancewatch/api/compliancewatch/v1"
	"github.com/ppiankov/compliancewatch/internal/assess"
	"github.com/ppiankov/compliancewatch/internal/knowledge"
	"github.com/ppiankov/compliancewatch/internal/model"
)

// DefaultTimeout bounds each call when the caller's context has no deadline.
const DefaultTimeout = 30 * time.Second

// Client connects to a compliancewatch gRPC server.
type Client struct {
	conn    *grpc.ClientConn
	client  pb.ComplianceServiceClient
	timeout time.Duration
}

// Document is a stored policy or case as returned by GetDocument.
type Document struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Document map[string]any `json:"document"`
}

// SeedResult reports the knowledge base size after a Seed call.
type SeedResult struct {
	knowledge.Counts
	Seeded bool `json:"seeded"`
}

// New creates a gRPC client for addr. The connection is established lazily.
func New(addr string) (*Client, error) {
	conn, err := grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to connect to compliancewatch server", goerr.V("addr", addr))
	}
	return &Client{
		conn:    conn,
		client:  pb.NewComplianceServiceClient(conn),
		timeout: DefaultTimeout,
	}, nil
}

// Assess runs a full assessment remotely.
func (c *Client) Assess(ctx context.Context, category model.Category, payload any) (*assess.Result, error) {
	var out assess.Result
	err := c.call(ctx, c.client.Assess, map[string]any{"category": string(category), "payload": payload}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// AssessContext collects signals and retrieval hits remotely, without scoring.
func (c *Client) AssessContext(ctx context.Context, category model.Category, payload any) (*assess.Context, error) {
	var out assess.Context
	err := c.call(ctx, c.client.AssessContext, map[string]any{"category": string(category), "payload": payload}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// IngestPolicy adds or replaces a policy on the server.
func (c *Client) IngestPolicy(ctx context.Context, doc model.PolicyDocument) (knowledge.Counts, error) {
	var out knowledge.Counts
	err := c.call(ctx, c.client.IngestPolicy, doc, &out)
	return out, err
}

// IngestCase adds or replaces a case on the server.
func (c *Client) IngestCase(ctx context.Context, doc model.CaseDocument) (knowledge.Counts, error) {
	var out knowledge.Counts
	err := c.call(ctx, c.client.IngestCase, doc, &out)
	return out, err
}

// GetDocument fetches a stored policy or case by id.
func (c *Client) GetDocument(ctx context.Context, id string) (*Document, error) {
	var out Document
	if err := c.call(ctx, c.client.GetDocument, map[string]any{"id": id}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Seed asks the server to load the demo knowledge base if it is empty.
func (c *Client) Seed(ctx context.Context) (SeedResult, error) {
	var out SeedResult
	err := c.call(ctx, c.client.Seed, map[string]any{}, &out)
	return out, err
}

// Close closes the gRPC connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

type rpc func(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error)

func (c *Client) call(ctx context.Context, method rpc, req, out any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	in, err := toStruct(req)
	if err != nil {
		return err
	}
	resp, err := method(ctx, in)
	if err != nil {
		return err
	}

	data, err := json.Marshal(resp.AsMap())
	if err != nil {
		return goerr.Wrap(err, "failed to encode response")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return goerr.Wrap(err, "failed to decode response")
	}
	return nil
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode request")
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, goerr.Wrap(err, "failed to encode request")
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to encode request")
	}
	return s, nil
}
