// Backend-level integration tests: the full Attach, table lifecycle,
// annotation versioning, and Detach flow through the SQLite backend,
// including reference tables and shadow segmentation storage that the
// CLI surface does not reach directly.
package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/annostore/internal/sqlite"
	"github.com/mesh-intelligence/annostore/pkg/types"
)

// newAttachedBackend creates a backend attached to a temp directory.
func newAttachedBackend(t *testing.T) *sqlite.Backend {
	t.Helper()
	b := sqlite.NewBackend()
	cfg := types.Config{
		Backend:   types.BackendSQLite,
		DataDir:   t.TempDir(),
		Namespace: "testvol",
	}
	require.NoError(t, b.Attach(cfg))
	t.Cleanup(func() { b.Detach() })
	return b
}

func synapseRecord(pre, post [3]float64, size float64) types.Record {
	return types.Record{
		"pre_pt":  map[string]any{"position": pre[:]},
		"ctr_pt":  map[string]any{"position": []float64{0, 0, 0}},
		"post_pt": map[string]any{"position": post[:]},
		"size":    size,
	}
}

func TestSynapseTableEndToEnd(t *testing.T) {
	b := newAttachedBackend(t)

	md, err := b.CreateTable("synapses", "synapse", types.TableOptions{
		Description: "proofread synapses",
		UserID:      "u1",
	})
	require.NoError(t, err)
	assert.Equal(t, "testvol__synapses", md.TableName)

	records := []types.Record{
		synapseRecord([3]float64{1, 2, 3}, [3]float64{4, 5, 6}, 100),
		synapseRecord([3]float64{7, 8, 9}, [3]float64{10, 11, 12}, 200),
	}
	require.NoError(t, b.InsertAnnotations("synapses", records))

	got, err := b.GetAnnotations("synapses", []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []float64{1, 2, 3}, got[0]["pre_pt_position"])
	assert.Equal(t, float64(100), got[0]["size"])
	assert.Equal(t, true, got[0]["valid"])

	// Update supersedes row 1 with row 3.
	update := synapseRecord([3]float64{1, 2, 3}, [3]float64{4, 5, 6}, 150)
	update["id"] = int64(1)
	newID, err := b.UpdateAnnotation("synapses", update)
	require.NoError(t, err)
	assert.Equal(t, int64(3), newID)

	got, err = b.GetAnnotations("synapses", []int64{1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, false, got[0]["valid"])
	assert.Equal(t, int64(3), got[0]["superceded_id"])

	// Delete tombstones the new head without unwinding the chain.
	n, err := b.DeleteAnnotations("synapses", []int64{3})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestReferenceTableEndToEnd(t *testing.T) {
	b := newAttachedBackend(t)

	_, err := b.CreateTable("somas", "bound_tag", types.TableOptions{UserID: "u1"})
	require.NoError(t, err)

	// Reference schema without a target is refused.
	_, err = b.CreateTable("soma_refs", "simple_reference", types.TableOptions{UserID: "u1"})
	require.ErrorIs(t, err, types.ErrValidation)

	md, err := b.CreateTable("soma_refs", "simple_reference", types.TableOptions{
		UserID:         "u1",
		ReferenceTable: "somas",
	})
	require.NoError(t, err)
	assert.Equal(t, "somas", md.ReferenceTable)

	require.NoError(t, b.InsertAnnotations("somas", []types.Record{
		{"pt": map[string]any{"position": []float64{1, 2, 3}}, "tag": "soma"},
	}))
	require.NoError(t, b.InsertAnnotations("soma_refs", []types.Record{
		{"target_id": 1},
	}))

	got, err := b.GetAnnotations("soma_refs", []int64{1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, int64(1), got[0]["target_id"])
}

func TestSegmentationSourceCreatesShadowTable(t *testing.T) {
	b := newAttachedBackend(t)

	md, err := b.CreateTable("synapses", "synapse", types.TableOptions{
		UserID:             "u1",
		SegmentationSource: "pcg_v2",
	})
	require.NoError(t, err)
	assert.Equal(t, "pcg_v2", md.SegmentationSource)

	require.NoError(t, b.InsertAnnotations("synapses", []types.Record{
		synapseRecord([3]float64{1, 2, 3}, [3]float64{4, 5, 6}, 50),
	}))

	// Drop removes both the annotation and the segmentation storage.
	require.NoError(t, b.DropTable("synapses"))
	_, err = b.GetTableMetadata("synapses")
	require.ErrorIs(t, err, types.ErrTableNotFound)

	// The name is reusable after drop.
	_, err = b.CreateTable("synapses", "synapse", types.TableOptions{UserID: "u2"})
	require.NoError(t, err)
}

func TestInsertLimitIsAtomic(t *testing.T) {
	b := newAttachedBackend(t)
	_, err := b.CreateTable("somas", "bound_tag", types.TableOptions{UserID: "u1"})
	require.NoError(t, err)

	records := make([]types.Record, types.InsertLimit+1)
	for i := range records {
		records[i] = types.Record{
			"pt": map[string]any{"position": []float64{0, 0, 0}}, "tag": "x",
		}
	}
	err = b.InsertAnnotations("somas", records)
	var limitErr *types.InsertLimitError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, types.InsertLimit+1, limitErr.Count)
	require.ErrorIs(t, err, types.ErrLimitExceeded)

	got, err := b.GetAnnotations("somas", []int64{1})
	require.NoError(t, err)
	assert.Empty(t, got)
}
