// Integration tests against a SurrealDB container.
package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/xoptymiz/xoptymiz/internal/models"
)

var testStore *Store
var testContainer testcontainers.Container

// TestMain sets up and tears down the SurrealDB container for all tests.
func TestMain(m *testing.M) {
	// Disable ryuk (cleanup container) as it can cause issues in some environments
	os.Setenv("TESTCONTAINERS_RYUK_DISABLED", "true")

	ctx := context.Background()

	var err error
	testContainer, err = testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "surrealdb/surrealdb:v3.0.0-beta.1",
			ExposedPorts: []string{"8000/tcp"},
			Cmd:          []string{"start", "--log", "info", "--user", "root", "--pass", "root"},
			WaitingFor:   wait.ForLog("Started web server").WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		log.Fatalf("Failed to start SurrealDB container: %v", err)
	}

	host, err := testContainer.Host(ctx)
	if err != nil {
		log.Fatalf("Failed to get container host: %v", err)
	}
	// Workaround: testcontainers may return "null" as host in some environments
	if host == "" || host == "null" {
		host = "localhost"
	}
	mappedPort, err := testContainer.MappedPort(ctx, "8000")
	if err != nil {
		log.Fatalf("Failed to get mapped port: %v", err)
	}

	testStore, err = New(ctx, Config{
		URL:       fmt.Sprintf("ws://%s:%s/rpc", host, mappedPort.Port()),
		Namespace: "test",
		Database:  "test",
		Username:  "root",
		Password:  "root",
		AuthLevel: "root",
	}, nil)
	if err != nil {
		log.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := testStore.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	code := m.Run()

	_ = testStore.Close(ctx)
	_ = testContainer.Terminate(ctx)

	os.Exit(code)
}

func wipe(t *testing.T) {
	t.Helper()
	if err := testStore.WipeData(context.Background()); err != nil {
		t.Fatalf("wipe failed: %v", err)
	}
}

func testPage(url string) models.Page {
	return models.Page{
		URL:           url,
		Title:         "Test Page",
		WordCount:     100,
		SentenceCount: 10,
		Readability:   80,
		Language:      "en",
		ContentHash:   "abc123",
	}
}

func entityByText(t *testing.T, text string) models.Entity {
	t.Helper()
	results, err := surrealdb.Query[[]models.Entity](context.Background(), testStore.db, `
		SELECT `+entityFields+`
		FROM type::record("entity", $id)
	`, map[string]any{"id": models.EntityID(text)})
	if err != nil {
		t.Fatalf("read entity: %v", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		t.Fatalf("entity %q not found", text)
	}
	return (*results)[0].Result[0]
}

func TestIngestCreatesGraph(t *testing.T) {
	wipe(t)
	ctx := context.Background()

	alice := models.NewEntity("Alice", models.EntityPerson, 8, 0.9)
	acme := models.NewEntity("Acme", models.EntityOrganization, 7, 0.8)
	rel := models.Relationship{
		FromID: alice.ID, ToID: acme.ID,
		FromText: alice.Text, ToText: acme.Text,
		Type: models.RelWorksFor, Strength: 0.5, Confidence: 0.4,
	}

	receipt, err := testStore.Ingest(ctx, testPage("https://example.com/a"),
		[]models.Entity{alice, acme}, []models.Relationship{rel})
	if err != nil {
		t.Fatalf("ingest failed: %v", err)
	}

	if receipt.PageVersion != 1 {
		t.Errorf("version = %d, want 1", receipt.PageVersion)
	}
	if receipt.Domain != "example.com" {
		t.Errorf("domain = %s, want example.com", receipt.Domain)
	}

	got := entityByText(t, "Alice")
	if got.Importance != 8 || got.MentionCount != 1 {
		t.Errorf("alice = importance %d, mentions %d", got.Importance, got.MentionCount)
	}

	overview, err := testStore.Overview(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if overview.Pages != 1 || overview.Entities != 2 || overview.Relationships != 1 || overview.Domains != 1 {
		t.Errorf("overview = %+v", overview)
	}
}

func TestIngestIdempotence(t *testing.T) {
	wipe(t)
	ctx := context.Background()

	alice := models.NewEntity("Alice", models.EntityPerson, 8, 0.9)
	page := testPage("https://example.com/repeat")

	for i := 0; i < 2; i++ {
		if _, err := testStore.Ingest(ctx, page, []models.Entity{alice}, nil); err != nil {
			t.Fatalf("ingest %d failed: %v", i+1, err)
		}
	}

	version, err := testStore.pageVersion(ctx, models.PageID(page.URL))
	if err != nil {
		t.Fatal(err)
	}
	if version != 2 {
		t.Errorf("version after two ingests = %d, want 2", version)
	}

	got := entityByText(t, "Alice")
	if got.MentionCount != 2 {
		t.Errorf("mention count = %d, want 2 (exactly one per call)", got.MentionCount)
	}

	overview, err := testStore.Overview(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if overview.Pages != 1 {
		t.Errorf("pages = %d, want a single record", overview.Pages)
	}
}

func TestEntityMergeRules(t *testing.T) {
	wipe(t)
	ctx := context.Background()

	first := models.NewEntity("Quantum", models.EntityConcept, 5, 0.6)
	second := models.NewEntity("Quantum", models.EntityConcept, 8, 0.8)

	if _, err := testStore.Ingest(ctx, testPage("https://example.com/m1"), []models.Entity{first}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := testStore.Ingest(ctx, testPage("https://example.com/m2"), []models.Entity{second}, nil); err != nil {
		t.Fatal(err)
	}

	got := entityByText(t, "Quantum")
	if got.Importance != 8 {
		t.Errorf("importance = %d, want max(5,8)=8", got.Importance)
	}
	if got.Confidence < 0.699 || got.Confidence > 0.701 {
		t.Errorf("confidence = %f, want mean(0.6,0.8)=0.7", got.Confidence)
	}
	if got.PageCount != 2 {
		t.Errorf("page count = %d, want 2", got.PageCount)
	}
}

func TestNoDuplicateRelationshipEdges(t *testing.T) {
	wipe(t)
	ctx := context.Background()

	a := models.NewEntity("Alpha", models.EntityConcept, 7, 0.9)
	b := models.NewEntity("Beta", models.EntityConcept, 7, 0.9)

	mk := func(strength, confidence float64) []models.Relationship {
		return []models.Relationship{{
			FromID: a.ID, ToID: b.ID, FromText: a.Text, ToText: b.Text,
			Type: models.RelAssociatedWith, Strength: strength, Confidence: confidence,
		}}
	}

	if _, err := testStore.Ingest(ctx, testPage("https://example.com/e1"), []models.Entity{a, b}, mk(0.4, 0.4)); err != nil {
		t.Fatal(err)
	}
	if _, err := testStore.Ingest(ctx, testPage("https://example.com/e1"), []models.Entity{a, b}, mk(0.8, 0.6)); err != nil {
		t.Fatal(err)
	}

	results, err := surrealdb.Query[[]struct {
		Strength   float64 `json:"strength"`
		Confidence float64 `json:"confidence"`
	}](ctx, testStore.db, `SELECT strength, confidence FROM related_to`, nil)
	if err != nil {
		t.Fatal(err)
	}
	edges := (*results)[0].Result
	if len(edges) != 1 {
		t.Fatalf("edge count = %d, want 1", len(edges))
	}
	if edges[0].Strength < 0.599 || edges[0].Strength > 0.601 {
		t.Errorf("strength = %f, want mean(0.4,0.8)=0.6", edges[0].Strength)
	}
	if edges[0].Confidence < 0.499 || edges[0].Confidence > 0.501 {
		t.Errorf("confidence = %f, want mean(0.4,0.6)=0.5", edges[0].Confidence)
	}
}

func TestContainmentEdgeKeepsMaxImportance(t *testing.T) {
	wipe(t)
	ctx := context.Background()

	page := testPage("https://example.com/contain")
	if _, err := testStore.Ingest(ctx, page, []models.Entity{models.NewEntity("Gadget", models.EntityProduct, 9, 0.9)}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := testStore.Ingest(ctx, page, []models.Entity{models.NewEntity("Gadget", models.EntityProduct, 4, 0.9)}, nil); err != nil {
		t.Fatal(err)
	}

	results, err := surrealdb.Query[[]struct {
		Importance int `json:"importance"`
	}](ctx, testStore.db, `SELECT importance FROM mentions`, nil)
	if err != nil {
		t.Fatal(err)
	}
	edges := (*results)[0].Result
	if len(edges) != 1 {
		t.Fatalf("mention edge count = %d, want 1", len(edges))
	}
	if edges[0].Importance != 9 {
		t.Errorf("edge importance = %d, want max(9,4)=9", edges[0].Importance)
	}
}

func TestDomainRollupRecomputed(t *testing.T) {
	wipe(t)
	ctx := context.Background()

	e1 := models.NewEntity("One", models.EntityConcept, 6, 0.8)
	e2 := models.NewEntity("Two", models.EntityConcept, 6, 0.8)

	if _, err := testStore.Ingest(ctx, testPage("https://example.com/p1"), []models.Entity{e1}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := testStore.Ingest(ctx, testPage("https://example.com/p2"), []models.Entity{e1, e2}, nil); err != nil {
		t.Fatal(err)
	}

	results, err := surrealdb.Query[[]models.Domain](ctx, testStore.db, `
		SELECT name, page_count, entity_count FROM domain WHERE name = $name
	`, map[string]any{"name": "example.com"})
	if err != nil {
		t.Fatal(err)
	}
	domains := (*results)[0].Result
	if len(domains) != 1 {
		t.Fatalf("domain count = %d, want 1", len(domains))
	}
	if domains[0].PageCount != 2 {
		t.Errorf("page count = %d, want 2", domains[0].PageCount)
	}
	if domains[0].EntityCount != 2 {
		t.Errorf("entity count = %d, want 2 distinct entities", domains[0].EntityCount)
	}
}

func TestStoreErrorOnRollback(t *testing.T) {
	wipe(t)

	_, err := testStore.Ingest(context.Background(), models.Page{}, nil, nil)
	var se *StoreError
	if !errors.As(err, &se) {
		t.Fatalf("expected *StoreError, got %v", err)
	}
}

func TestTopEntitiesAndHistogram(t *testing.T) {
	wipe(t)
	ctx := context.Background()

	ents := []models.Entity{
		models.NewEntity("Major", models.EntityConcept, 9, 0.9),
		models.NewEntity("Minor", models.EntityConcept, 3, 0.9),
		models.NewEntity("Carol", models.EntityPerson, 6, 0.9),
	}
	if _, err := testStore.Ingest(ctx, testPage("https://example.com/t"), ents, nil); err != nil {
		t.Fatal(err)
	}

	top, err := testStore.TopEntities(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 || top[0].Text != "Major" {
		t.Errorf("top entities = %+v", top)
	}

	hist, err := testStore.TypeHistogram(ctx)
	if err != nil {
		t.Fatal(err)
	}
	counts := map[string]int{}
	for _, h := range hist {
		counts[h.Type] = h.Count
	}
	if counts["CONCEPT"] != 2 || counts["PERSON"] != 1 {
		t.Errorf("histogram = %v", counts)
	}
}

func TestContentGaps(t *testing.T) {
	wipe(t)
	ctx := context.Background()

	shared := models.NewEntity("Shared", models.EntityConcept, 9, 0.9)
	lonely := models.NewEntity("Lonely", models.EntityConcept, 8, 0.9)
	weak := models.NewEntity("Weak", models.EntityConcept, 3, 0.9)

	if _, err := testStore.Ingest(ctx, testPage("https://example.com/g1"), []models.Entity{shared, lonely, weak}, nil); err != nil {
		t.Fatal(err)
	}
	if _, err := testStore.Ingest(ctx, testPage("https://example.com/g2"), []models.Entity{shared}, nil); err != nil {
		t.Fatal(err)
	}

	gaps, err := testStore.ContentGaps(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(gaps) != 1 || gaps[0].Text != "Lonely" {
		t.Errorf("gaps = %+v, want only Lonely", gaps)
	}
}

func TestVisualizationFiltersEdges(t *testing.T) {
	wipe(t)
	ctx := context.Background()

	big := models.NewEntity("Big", models.EntityConcept, 9, 0.9)
	mid := models.NewEntity("Mid", models.EntityConcept, 7, 0.9)
	tiny := models.NewEntity("Tiny", models.EntityConcept, 2, 0.9)

	rels := []models.Relationship{
		{FromID: big.ID, ToID: mid.ID, Type: models.RelAssociatedWith, Strength: 0.5, Confidence: 0.5},
		{FromID: big.ID, ToID: tiny.ID, Type: models.RelAssociatedWith, Strength: 0.5, Confidence: 0.5},
	}
	if _, err := testStore.Ingest(ctx, testPage("https://example.com/v"), []models.Entity{big, mid, tiny}, rels); err != nil {
		t.Fatal(err)
	}

	graph, err := testStore.Visualization(ctx, 10, 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(graph.Nodes) != 2 {
		t.Errorf("node count = %d, want 2 (importance >= 5)", len(graph.Nodes))
	}
	if len(graph.Edges) != 1 {
		t.Fatalf("edge count = %d, want only the Big-Mid edge", len(graph.Edges))
	}
	if graph.Edges[0].FromID != big.ID || graph.Edges[0].ToID != mid.ID {
		t.Errorf("unexpected edge: %+v", graph.Edges[0])
	}
}

func TestExportDocument(t *testing.T) {
	wipe(t)
	ctx := context.Background()

	alice := models.NewEntity("Alice", models.EntityPerson, 8, 0.9)
	if _, err := testStore.Ingest(ctx, testPage("https://example.com/doc"), []models.Entity{alice}, nil); err != nil {
		t.Fatal(err)
	}

	doc, err := testStore.Export(ctx, "example.com", ExportOptions{IncludeMetadata: true})
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"# example.com", "## Table of Contents", "Test Page", "Alice (PERSON, importance 8)"} {
		if !strings.Contains(doc, want) {
			t.Errorf("export missing %q:\n%s", want, doc)
		}
	}
}

func TestExportEmptyDomainPlaceholder(t *testing.T) {
	wipe(t)

	doc, err := testStore.Export(context.Background(), "nothing.example", ExportOptions{})
	if err != nil {
		t.Fatalf("empty domain must not error: %v", err)
	}
	if !strings.Contains(doc, "nothing.example") {
		t.Errorf("placeholder must name the domain:\n%s", doc)
	}
	if strings.Contains(doc, "## 1.") {
		t.Errorf("placeholder must have no page sections:\n%s", doc)
	}
}
