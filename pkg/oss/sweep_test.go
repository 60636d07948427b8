package oss

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_AbortStaleUploads(t *testing.T) {
	s, store := newTestService(t)

	old := time.Now().Add(-48 * time.Hour)
	fresh := time.Now().Add(-time.Minute)

	// 第一页写满 listUploadsMax 条，触发翻页
	first := make([]MultipartUpload, 0, listUploadsMax)
	for i := 0; i < listUploadsMax; i++ {
		initiated := fresh
		if i%2 == 0 {
			initiated = old
		}
		first = append(first, MultipartUpload{Key: fmt.Sprintf("big/%03d.zip", i), UploadID: fmt.Sprintf("u%03d", i), Initiated: initiated})
	}
	last := first[len(first)-1]
	store.uploadPages = map[string][]MultipartUpload{
		"": first,
		last.Key: {
			{Key: "big/x.zip", UploadID: "ux", Initiated: old},
			{Key: "big/y.zip", UploadID: "uy"},
		},
	}

	aborted, err := s.AbortStaleUploads(context.Background(), "big/", 24*time.Hour)
	require.NoError(t, err)
	assert.Len(t, aborted, listUploadsMax/2+1)
	assert.Equal(t, "u000", store.aborted[0])
	assert.Equal(t, "ux", store.aborted[len(store.aborted)-1])

	require.Len(t, store.uploadOpts, 2)
	assert.Equal(t, ListUploadsOptions{Prefix: "big/", MaxUploads: listUploadsMax}, store.uploadOpts[0])
	assert.Equal(t, last.Key, store.uploadOpts[1].KeyMarker)
	assert.Equal(t, last.UploadID, store.uploadOpts[1].UploadIDMarker)
}

func TestService_AbortStaleUploadsFailure(t *testing.T) {
	s, store := newTestService(t)
	store.uploadPages = map[string][]MultipartUpload{
		"": {{Key: "a.zip", UploadID: "u1", Initiated: time.Now().Add(-time.Hour)}},
	}
	store.failOn["AbortMultipartUpload"] = errors.New("NoSuchUpload")

	aborted, err := s.AbortStaleUploads(context.Background(), "", time.Minute)
	require.Error(t, err)
	assert.True(t, IsOp(err, OpAbortMultipartUpload))
	assert.Empty(t, aborted)
}
