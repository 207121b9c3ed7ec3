package server

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	pb "github.com/ppiankov/compliancewatch/api/compliancewatch/v1"
	"github.com/ppiankov/compliancewatch/internal/app"
	"github.com/ppiankov/compliancewatch/internal/assess"
	"github.com/ppiankov/compliancewatch/internal/config"
	"github.com/ppiankov/compliancewatch/internal/model"
)

// testServer spins up an in-process gRPC server on a random port and returns a client.
func testServer(t *testing.T, cfg *config.Config) (pb.ComplianceServiceClient, *app.App) {
	t.Helper()

	a, err := app.New(context.Background(), cfg, "test-hash")
	if err != nil {
		t.Fatalf("app.New: %v", err)
	}
	srv := New(a, Config{})

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.ServeOn(lis)

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		srv.GracefulStop()
		t.Fatalf("dial: %v", err)
	}

	t.Cleanup(func() {
		conn.Close()
		srv.GracefulStop()
		a.Close()
	})
	return pb.NewComplianceServiceClient(conn), a
}

func mustStruct(t *testing.T, m map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(m)
	if err != nil {
		t.Fatalf("NewStruct: %v", err)
	}
	return s
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func demoProcurement() map[string]any {
	return map[string]any(assess.DemoPayload(model.CategoryProcurement))
}

func TestAssessProcurement(t *testing.T) {
	client, _ := testServer(t, config.DefaultConfig())

	resp, err := client.Assess(context.Background(), mustStruct(t, map[string]any{
		"category": "procurement",
		"payload":  demoProcurement(),
	}))
	require.NoError(t, err)

	m := resp.AsMap()
	assert.Equal(t, "procurement", m["category"])
	assert.NotEmpty(t, m["assessment_id"])

	risk := m["risk"].(map[string]any)
	assert.Greater(t, risk["probability"].(float64), 0.5)

	signals := m["signals"].([]any)
	assert.NotEmpty(t, signals)
	citations := m["citations"].([]any)
	assert.NotEmpty(t, citations, "lazy seed should make demo documents citable")
}

func TestAssessSourceSystemAlias(t *testing.T) {
	client, _ := testServer(t, config.DefaultConfig())

	resp, err := client.Assess(context.Background(), mustStruct(t, map[string]any{
		"source_system": "Analytics",
		"payload":       "合同付款期限为 120 天",
	}))
	require.NoError(t, err)
	assert.Equal(t, "analytics", resp.AsMap()["category"])
}

func TestAssessUnknownCategory(t *testing.T) {
	client, _ := testServer(t, config.DefaultConfig())

	_, err := client.Assess(context.Background(), mustStruct(t, map[string]any{
		"category": "payroll",
		"payload":  map[string]any{},
	}))
	require.Error(t, err)
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestAssessContextHasNoScore(t *testing.T) {
	client, _ := testServer(t, config.DefaultConfig())

	resp, err := client.AssessContext(context.Background(), mustStruct(t, map[string]any{
		"category": "procurement",
		"payload":  demoProcurement(),
	}))
	require.NoError(t, err)

	m := resp.AsMap()
	assert.NotContains(t, m, "risk")
	assert.Contains(t, m, "policy_hits")
	assert.Contains(t, m, "case_hits")
	assert.NotEmpty(t, m["query"])
}

func TestIngestAndGetDocument(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SeedDemo = false
	client, _ := testServer(t, cfg)
	ctx := context.Background()

	resp, err := client.IngestPolicy(ctx, mustStruct(t, map[string]any{
		"doc_id":  "POL-900",
		"title":   "供应商准入",
		"content": "新供应商须完成尽职调查问卷。",
	}))
	require.NoError(t, err)
	assert.Equal(t, float64(1), resp.AsMap()["policies"])

	resp, err = client.IngestCase(ctx, mustStruct(t, map[string]any{
		"case_id":   "CASE-900",
		"summary":   "供应商未完成问卷即准入",
		"decision":  "non_compliant",
		"reasons":   "缺少尽职调查",
		"tags_json": `["procurement"]`,
	}))
	require.NoError(t, err)
	assert.Equal(t, float64(1), resp.AsMap()["cases"])

	doc, err := client.GetDocument(ctx, mustStruct(t, map[string]any{"id": "CASE-900"}))
	require.NoError(t, err)
	m := doc.AsMap()
	assert.Equal(t, "case", m["type"])
	inner := m["document"].(map[string]any)
	assert.Equal(t, "non_compliant", inner["decision"])
	assert.Equal(t, []any{"procurement"}, inner["tags"])

	_, err = client.GetDocument(ctx, mustStruct(t, map[string]any{"id": "NOPE"}))
	assert.Equal(t, codes.NotFound, status.Code(err))
}

func TestIngestRejectsInvalid(t *testing.T) {
	client, _ := testServer(t, config.DefaultConfig())
	ctx := context.Background()

	_, err := client.IngestPolicy(ctx, mustStruct(t, map[string]any{"doc_id": " "}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.IngestCase(ctx, mustStruct(t, map[string]any{
		"case_id": "C-1", "decision": "maybe",
	}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = client.IngestPolicy(ctx, mustStruct(t, map[string]any{"doc_id": 42}))
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestSeedIsIdempotent(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.SeedDemo = false
	client, _ := testServer(t, cfg)
	ctx := context.Background()

	first, err := client.Seed(ctx, &structpb.Struct{})
	require.NoError(t, err)
	assert.Equal(t, true, first.AsMap()["seeded"])

	second, err := client.Seed(ctx, &structpb.Struct{})
	require.NoError(t, err)
	assert.Equal(t, false, second.AsMap()["seeded"])
	assert.Equal(t, first.AsMap()["policies"], second.AsMap()["policies"])
}

func TestEmbeddingOutageIsUnavailable(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Similarity.Strategy = "embedding"
	cfg.Similarity.EmbeddingURL = "http://127.0.0.1:1/embed"
	cfg.Similarity.Timeout = time.Second
	client, _ := testServer(t, cfg)

	_, err := client.Assess(context.Background(), mustStruct(t, map[string]any{
		"category": "procurement",
		"payload":  demoProcurement(),
	}))
	require.Error(t, err)
	assert.Equal(t, codes.Unavailable, status.Code(err))
}

func TestConcurrentAssessments(t *testing.T) {
	client, _ := testServer(t, config.DefaultConfig())

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := client.Assess(context.Background(), &structpb.Struct{Fields: map[string]*structpb.Value{
				"category": structpb.NewStringValue("decision"),
				"payload":  structpb.NewStringValue("关于采购办公设备的决策"),
			}})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}

type countingReloader struct {
	calls atomic.Int32
}

func (c *countingReloader) Reload(context.Context) error {
	c.calls.Add(1)
	return nil
}

func TestReloaderSkipsMissingPaths(t *testing.T) {
	existing := writeTempFile(t, "denylist.yaml", "suppliers: []\n")

	r, err := NewReloader(&countingReloader{}, []string{"", existing, filepath.Join(t.TempDir(), "missing.yaml")})
	require.NoError(t, err)
	defer r.watcher.Close()

	assert.Equal(t, []string{existing}, r.Paths())
}

func TestReloaderDebouncesWrites(t *testing.T) {
	path := writeTempFile(t, "config.yaml", "seed_demo: true\n")
	target := &countingReloader{}

	r, err := NewReloader(target, []string{path})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	for i := 0; i < 3; i++ {
		os.WriteFile(path, []byte("seed_demo: false\n"), 0644)
		time.Sleep(50 * time.Millisecond)
	}
	time.Sleep(800 * time.Millisecond) // debounce is 500ms

	assert.Equal(t, int32(1), target.calls.Load())
}

func TestHotReloadDenylist(t *testing.T) {
	denyPath := writeTempFile(t, "denylist.yaml", "suppliers: []\n")
	cfgPath := writeTempFile(t, "config.yaml", "denylist_path: "+denyPath+"\n")

	a, err := app.Load(context.Background(), cfgPath)
	require.NoError(t, err)
	defer a.Close()

	srv := New(a, Config{})
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go srv.ServeOn(lis)
	defer srv.GracefulStop()

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	defer conn.Close()
	client := pb.NewComplianceServiceClient(conn)

	req := mustStruct(t, map[string]any{
		"category": "procurement",
		"payload": map[string]any{
			"project_name":       "网络设备采购",
			"amount":             50000,
			"procurement_method": "询价",
			"supplier_name":      "黑名单科技有限公司",
			"attachments":        []any{"quote.pdf"},
		},
	})

	before, err := client.Assess(context.Background(), req)
	require.NoError(t, err)
	assert.NotEqual(t, "block", before.AsMap()["risk"].(map[string]any)["level"])

	require.NoError(t, os.WriteFile(denyPath, []byte("suppliers:\n  - \"黑名单*\"\n"), 0644))
	require.NoError(t, a.Reload(context.Background()))

	after, err := client.Assess(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "block", after.AsMap()["risk"].(map[string]any)["level"])
}
