package structuredclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recallmem/recall/internal/structstore"
	"github.com/recallmem/recall/pkg/intent"
	"github.com/recallmem/recall/pkg/recallerrs"
)

func paymentSchema() structstore.SchemaDef {
	return structstore.SchemaDef{
		Name: "payment",
		Fields: []structstore.FieldDef{
			{Name: "payee", Type: structstore.FieldString, Required: true},
			{Name: "amount", Type: structstore.FieldNumber, Required: true},
		},
	}
}

func newTestClient(t *testing.T) (*Client, structstore.SchemaDef) {
	t.Helper()
	store, err := structstore.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	schema := paymentSchema()
	require.NoError(t, store.RegisterSchema(context.Background(), schema))

	return &Client{store: store}, schema
}

func TestResolveMatchMostRecentWithNoCriteria(t *testing.T) {
	c, schema := newTestClient(t)
	ctx := context.Background()

	_, err := c.store.Insert(ctx, schema, "t", map[string]any{"payee": "Jayden", "amount": 50.0})
	require.NoError(t, err)
	_, err = c.store.Insert(ctx, schema, "t", map[string]any{"payee": "Marcus", "amount": 20.0})
	require.NoError(t, err)

	rec, err := c.resolveMatch(ctx, schema, "t", nil)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Marcus", rec.Data["payee"])
}

func TestResolveMatchByField(t *testing.T) {
	c, schema := newTestClient(t)
	ctx := context.Background()

	_, err := c.store.Insert(ctx, schema, "t", map[string]any{"payee": "Jayden", "amount": 50.0})
	require.NoError(t, err)
	_, err = c.store.Insert(ctx, schema, "t", map[string]any{"payee": "Marcus", "amount": 20.0})
	require.NoError(t, err)

	mc := &intent.MatchCriteria{Field: "payee", Value: "Jayden"}
	rec, err := c.resolveMatch(ctx, schema, "t", mc)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Jayden", rec.Data["payee"])
}

func TestResolveMatchUnknownFieldFallsBackToMostRecent(t *testing.T) {
	c, schema := newTestClient(t)
	ctx := context.Background()

	_, err := c.store.Insert(ctx, schema, "t", map[string]any{"payee": "Jayden", "amount": 50.0})
	require.NoError(t, err)

	mc := &intent.MatchCriteria{Field: "nonexistent", Value: "x"}
	rec, err := c.resolveMatch(ctx, schema, "t", mc)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Jayden", rec.Data["payee"])
}

func TestDirectInsertAndUpdateAndDelete(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	var insertedSchema string
	c.OnInsert(func(ctx context.Context, schema string, rec *structstore.Record) error {
		insertedSchema = schema
		return nil
	})

	rec, err := c.Insert(ctx, "payment", "t", map[string]any{"payee": "Jayden", "amount": 50.0})
	require.NoError(t, err)
	assert.Equal(t, "payment", insertedSchema)

	updated, err := c.Update(ctx, "payment", "t", rec.ID, map[string]any{"amount": 75.0})
	require.NoError(t, err)
	assert.Equal(t, 75.0, updated.Data["amount"])

	require.NoError(t, c.Delete(ctx, "payment", "t", rec.ID))

	_, err = c.Get(ctx, "payment", "t", rec.ID)
	var notFound *recallerrs.RecordNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestSearchFieldPassthrough(t *testing.T) {
	c, _ := newTestClient(t)
	ctx := context.Background()

	_, err := c.Insert(ctx, "payment", "t", map[string]any{"payee": "Jayden Smith", "amount": 50.0})
	require.NoError(t, err)

	results, err := c.SearchField(ctx, "payment", "t", "payee", "jayden")
	require.NoError(t, err)
	require.Len(t, results, 1)
}
