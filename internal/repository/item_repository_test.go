package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
)

func TestMergeFilterGuardsSlotFields(t *testing.T) {
	filter := mergeFilter("u1", bson.M{"thumbnail": "url", "sharePath": "p"})

	assert.Equal(t, "u1", filter["_id"])
	// the whole slot only matches while unset; sharePath is not write-once
	assert.Equal(t, bson.M{"$exists": false}, filter["thumbnail"])
	assert.Equal(t, bson.M{"$exists": false}, filter["thumbnailError"])
	_, guarded := filter["sharePath"]
	assert.False(t, guarded)
}

func TestMergeFilterErrorFlagsAreSlots(t *testing.T) {
	for _, f := range []string{
		"thumbnail", "thumbnailError",
		"optimized", "optimizedError",
		"poster", "posterError",
	} {
		filter := mergeFilter("u", bson.M{f: "x"})
		assert.Contains(t, filter, f, f)
		assert.Len(t, filter, 3, "uid plus both halves of the slot")
	}
}

func TestMergeFilterPlainFieldsUnguarded(t *testing.T) {
	filter := mergeFilter("u", bson.M{"original": "url", "index": 3})
	assert.Len(t, filter, 1, "only _id expected")
}
