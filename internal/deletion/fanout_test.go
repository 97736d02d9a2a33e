package deletion

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	models "media-pipeline/internal/media"
	"media-pipeline/internal/testutil"
)

func TestArtifactPathsVideo(t *testing.T) {
	item := &models.Item{
		UID: "b", Coll: "a", Basename: "video.mp4",
		Category: "video", MimeType: "video/mp4", IsProcessable: true,
	}
	assert.ElementsMatch(t, []string{
		"a/b/video.mp4",
		"a/b/optim_video.jpeg",
		"a/b/thumb_video.jpeg",
		"a/b/poster_video.jpeg",
	}, ArtifactPaths(item))
}

func TestArtifactPathsImage(t *testing.T) {
	item := &models.Item{
		UID: "u1", Coll: "lists/7", Basename: "pic.png",
		Category: "image", MimeType: "image/png", IsProcessable: true,
	}
	assert.ElementsMatch(t, []string{
		"lists/7/u1/pic.png",
		"lists/7/u1/optim_pic.png",
		"lists/7/u1/thumb_pic.png",
	}, ArtifactPaths(item))
}

func TestArtifactPathsShareCopy(t *testing.T) {
	item := &models.Item{
		UID: "u2", Coll: "a", Basename: "doc.pdf",
		Category: "file", MimeType: "application/pdf",
		SharePath: "a/u2/share_doc.pdf",
	}
	assert.ElementsMatch(t, []string{
		"a/u2/share_doc.pdf",
		"a/u2/doc.pdf",
	}, ArtifactPaths(item))
}

func TestArtifactPathsPlainFile(t *testing.T) {
	item := &models.Item{
		UID: "u3", Coll: "a", Basename: "notes.txt",
		Category: "file", MimeType: "text/plain",
	}
	assert.Equal(t, []string{"a/u3/notes.txt"}, ArtifactPaths(item))
}

func TestDeleteSequencesDocumentAfterArtifacts(t *testing.T) {
	store := testutil.NewFakeStore()
	repo := testutil.NewFakeRepo()
	ctx := context.Background()

	item := &models.Item{
		UID: "b", Coll: "a", Basename: "pic.jpeg",
		Category: "image", MimeType: "image/jpeg", IsProcessable: true, Index: 0,
	}
	require.NoError(t, repo.Insert(ctx, item))
	require.NoError(t, repo.Insert(ctx, &models.Item{UID: "c", Coll: "a", Basename: "z.txt", Index: 1}))
	require.NoError(t, repo.Insert(ctx, &models.Item{UID: "d", Coll: "a", Basename: "y.txt", Index: 2}))

	for _, p := range ArtifactPaths(item) {
		_, err := store.Upload(ctx, p, "image/jpeg", []byte("x"), nil, true)
		require.NoError(t, err)
	}

	f := NewFanout(store, repo, zap.NewNop().Sugar())
	require.NoError(t, f.Delete(ctx, item))

	for _, p := range ArtifactPaths(item) {
		assert.False(t, store.Has(p), "artifact %s survived", p)
	}
	_, err := repo.GetByUID(ctx, "b")
	assert.Error(t, err)

	// survivors renumbered back to contiguity
	c, _ := repo.GetByUID(ctx, "c")
	d, _ := repo.GetByUID(ctx, "d")
	assert.Equal(t, 0, c.Index)
	assert.Equal(t, 1, d.Index)
}

func TestDeleteSettlesDespiteMissingArtifacts(t *testing.T) {
	store := testutil.NewFakeStore()
	repo := testutil.NewFakeRepo()
	ctx := context.Background()

	// only the original exists; derivative deletes all miss
	item := &models.Item{
		UID: "b", Coll: "a", Basename: "pic.jpeg",
		Category: "image", MimeType: "image/jpeg", IsProcessable: true,
	}
	require.NoError(t, repo.Insert(ctx, item))

	f := NewFanout(store, repo, zap.NewNop().Sugar())
	assert.NoError(t, f.Delete(ctx, item))
	assert.Empty(t, repo.Items)
}

func TestDeleteToleratesVanishedDocument(t *testing.T) {
	store := testutil.NewFakeStore()
	repo := testutil.NewFakeRepo()

	item := &models.Item{UID: "ghost", Coll: "a", Basename: "pic.jpeg", MimeType: "image/jpeg", Category: "image"}
	f := NewFanout(store, repo, zap.NewNop().Sugar())
	assert.NoError(t, f.Delete(context.Background(), item))
}
