package syncer

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuehub/venue-booking/internal/domain"
)

func skipIfNoIntegration(t *testing.T) {
	if os.Getenv("INTEGRATION_TEST") != "true" {
		t.Skip("Skipping integration test. Set INTEGRATION_TEST=true to run")
	}
}

// getPostgresPool creates a PostgreSQL connection pool for testing
func getPostgresPool(t *testing.T) *pgxpool.Pool {
	skipIfNoIntegration(t)

	host := os.Getenv("TEST_POSTGRES_HOST")
	if host == "" {
		host = "localhost"
	}

	port := os.Getenv("TEST_POSTGRES_PORT")
	if port == "" {
		port = "5432"
	}

	user := os.Getenv("TEST_POSTGRES_USER")
	if user == "" {
		user = "postgres"
	}

	password := os.Getenv("TEST_POSTGRES_PASSWORD")
	if password == "" {
		password = "postgres"
	}

	dbname := os.Getenv("TEST_POSTGRES_DB")
	if dbname == "" {
		dbname = "venue_booking_test"
	}

	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		user, password, host, port, dbname)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("Failed to create PostgreSQL pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("Failed to ping PostgreSQL: %v", err)
	}

	_, err = pool.Exec(ctx, "DELETE FROM venues WHERE id LIKE 'test-%'")
	if err != nil {
		t.Logf("Warning: failed to clean up venues: %v", err)
	}

	return pool
}

func insertVenueDoc(t *testing.T, pool *pgxpool.Pool, doc map[string]interface{}) string {
	id := "test-" + uuid.New().String()
	raw, err := json.Marshal(doc)
	require.NoError(t, err)
	_, err = pool.Exec(context.Background(),
		"INSERT INTO venues (id, doc) VALUES ($1, $2)", id, raw)
	require.NoError(t, err)
	return id
}

func getVenueDoc(t *testing.T, pool *pgxpool.Pool, id string) map[string]interface{} {
	var raw []byte
	err := pool.QueryRow(context.Background(),
		"SELECT doc FROM venues WHERE id = $1", id).Scan(&raw)
	require.NoError(t, err)
	doc := map[string]interface{}{}
	require.NoError(t, json.Unmarshal(raw, &doc))
	return doc
}

func categoryElem(id, name string) map[string]interface{} {
	return map[string]interface{}{"id": id, "name": name, "icon": "", "active": true}
}

func TestArrayFieldHandler_Sync(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	ctx := context.Background()
	h := NewArrayFieldHandler(pool, domain.ReferenceKindCategory, "venues", "categories")

	matching := insertVenueDoc(t, pool, map[string]interface{}{
		"name": "Venue A",
		"categories": []interface{}{
			categoryElem("cat-1", "Food"),
			categoryElem("cat-2", "Music"),
		},
	})
	unrelated := insertVenueDoc(t, pool, map[string]interface{}{
		"name": "Venue B",
		"categories": []interface{}{
			categoryElem("cat-2", "Music"),
		},
	})

	old := &domain.ReferenceEntity{ID: "cat-1", Kind: domain.ReferenceKindCategory, Name: "Food", Active: true}
	updated := &domain.ReferenceEntity{ID: "cat-1", Kind: domain.ReferenceKindCategory, Name: "Dining", Active: true}

	require.NoError(t, h.Sync(ctx, old, updated))

	doc := getVenueDoc(t, pool, matching)
	cats := doc["categories"].([]interface{})
	require.Len(t, cats, 2)

	// The matching element picks up the rename; its sibling is untouched.
	first := cats[0].(map[string]interface{})
	second := cats[1].(map[string]interface{})
	assert.Equal(t, "Dining", first["name"])
	assert.Equal(t, "cat-1", first["id"])
	assert.Equal(t, "Music", second["name"])

	// Documents whose array does not contain the id are never touched.
	other := getVenueDoc(t, pool, unrelated)
	otherCats := other["categories"].([]interface{})
	assert.Equal(t, "Music", otherCats[0].(map[string]interface{})["name"])

	// A second run with the same patch leaves the state unchanged.
	require.NoError(t, h.Sync(ctx, old, updated))
	again := getVenueDoc(t, pool, matching)
	assert.Equal(t, doc, again)
}

func TestObjectFieldHandler_Sync(t *testing.T) {
	pool := getPostgresPool(t)
	defer pool.Close()

	ctx := context.Background()
	h := NewObjectFieldHandler(pool, domain.ReferenceKindCity, "venues", "city")

	matching := insertVenueDoc(t, pool, map[string]interface{}{
		"name": "Venue A",
		"city": map[string]interface{}{"id": "city-1", "name": "Bangkok", "icon": "", "active": true},
	})
	unrelated := insertVenueDoc(t, pool, map[string]interface{}{
		"name": "Venue B",
		"city": map[string]interface{}{"id": "city-2", "name": "Chiang Mai", "icon": "", "active": true},
	})

	old := &domain.ReferenceEntity{ID: "city-1", Kind: domain.ReferenceKindCity, Name: "Bangkok", Active: true}
	updated := &domain.ReferenceEntity{ID: "city-1", Kind: domain.ReferenceKindCity, Name: "Krung Thep", Active: true}

	require.NoError(t, h.Sync(ctx, old, updated))

	doc := getVenueDoc(t, pool, matching)
	city := doc["city"].(map[string]interface{})
	assert.Equal(t, "Krung Thep", city["name"])
	assert.Equal(t, "city-1", city["id"])
	// Fields outside the patch survive the merge.
	assert.Equal(t, true, city["active"])

	other := getVenueDoc(t, pool, unrelated)
	assert.Equal(t, "Chiang Mai", other["city"].(map[string]interface{})["name"])

	// Re-running the same sync is idempotent.
	require.NoError(t, h.Sync(ctx, old, updated))
	again := getVenueDoc(t, pool, matching)
	assert.Equal(t, doc, again)
}

func TestChangedFieldsForHandlers(t *testing.T) {
	old := &domain.ReferenceEntity{ID: "cat-1", Name: "Food", Icon: "fork", Active: true}

	t.Run("nothing changed", func(t *testing.T) {
		patch, err := changedFields(old, old)
		require.NoError(t, err)
		assert.Nil(t, patch)
	})

	t.Run("only the changed field is patched", func(t *testing.T) {
		updated := &domain.ReferenceEntity{ID: "cat-1", Name: "Dining", Icon: "fork", Active: true}
		patch, err := changedFields(old, updated)
		require.NoError(t, err)

		got := map[string]interface{}{}
		require.NoError(t, json.Unmarshal(patch, &got))
		assert.Equal(t, map[string]interface{}{"name": "Dining"}, got)
	})

	t.Run("nil old patches every denormalized field", func(t *testing.T) {
		patch, err := changedFields(nil, old)
		require.NoError(t, err)

		got := map[string]interface{}{}
		require.NoError(t, json.Unmarshal(patch, &got))
		assert.Len(t, got, 3)
	})
}
