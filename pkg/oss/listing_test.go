package oss

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// twoPageDir dir/ 下两页数据，第一页带一个子目录
func twoPageDir(store *fakeStore) {
	store.page("dir/", "", &ObjectPage{
		Objects:        []ObjectProperties{{Key: "dir/a.txt", Size: 1, ETag: "e1", Type: "Normal", StorageClass: "Standard"}},
		CommonPrefixes: []string{"dir/sub/"},
		NextMarker:     "m1",
	})
	store.page("dir/", "m1", &ObjectPage{
		Objects: []ObjectProperties{{Key: "dir/b.txt", Size: 2}},
	})
	store.page("dir/sub/", "", &ObjectPage{
		Objects: []ObjectProperties{{Key: "dir/sub/c.txt", Size: 3}},
	})
}

func TestListDirObjects(t *testing.T) {
	ctx := context.Background()

	t.Run("按marker翻页直到nextMarker为空", func(t *testing.T) {
		s, store := newTestService(t)
		twoPageDir(store)

		page, err := s.ListDirObjects(ctx, "dir/", false)
		require.NoError(t, err)
		assert.Equal(t, []string{"dir/a.txt", "dir/b.txt"}, page.Keys())
		assert.Equal(t, []string{"dir/sub/"}, page.Prefixes)
		assert.Equal(t, "", page.NextMarker)
		assert.Equal(t, ObjectInfo{
			Prefix:       "dir/",
			Key:          "dir/a.txt",
			ETag:         "e1",
			Type:         "Normal",
			StorageClass: "Standard",
			Size:         1,
		}, page.Objects[0])

		assert.Equal(t, []ListOptions{
			{Delimiter: "/", Prefix: "dir/", MaxKeys: 1000},
			{Delimiter: "/", Prefix: "dir/", MaxKeys: 1000, Marker: "m1"},
		}, store.listCalls)
	})

	t.Run("递归时每页都重新遍历已累积的子目录", func(t *testing.T) {
		s, store := newTestService(t)
		twoPageDir(store)

		page, err := s.ListDirObjects(ctx, "dir/", true)
		require.NoError(t, err)
		assert.Equal(t, []string{"dir/a.txt", "dir/sub/c.txt", "dir/b.txt", "dir/sub/c.txt"}, page.Keys())
		assert.Equal(t, "dir/sub/", page.Objects[1].Prefix)

		prefixes := make([]string, 0, len(store.listCalls))
		for _, c := range store.listCalls {
			prefixes = append(prefixes, c.Prefix+"@"+c.Marker)
		}
		assert.Equal(t, []string{"dir/@", "dir/sub/@", "dir/@m1", "dir/sub/@"}, prefixes)
	})

	t.Run("空目录", func(t *testing.T) {
		s, _ := newTestService(t)
		page, err := s.ListDirObjects(ctx, "empty/", true)
		require.NoError(t, err)
		assert.Empty(t, page.Objects)
		assert.Empty(t, page.Prefixes)
		assert.NotNil(t, page.Objects)
	})

	t.Run("列举失败", func(t *testing.T) {
		s, store := newTestService(t)
		store.failOn["ListObjects"] = &serviceErr{code: "NoSuchBucket", message: "bucket not exist"}
		_, err := s.ListDirObjects(ctx, "dir/", false)
		require.Error(t, err)
		assert.True(t, IsOp(err, OpList))
	})
}

func TestDeleteDir(t *testing.T) {
	ctx := context.Background()

	t.Run("批量删除后删除目录标记", func(t *testing.T) {
		s, store := newTestService(t)
		twoPageDir(store)

		require.NoError(t, s.DeleteDir(ctx, "dir"))
		assert.Equal(t, [][]string{{"dir/a.txt", "dir/sub/c.txt", "dir/b.txt", "dir/sub/c.txt"}}, store.deleteBatches)
		assert.Equal(t, []string{"dir/"}, store.deleted)
	})

	t.Run("空目录跳过批量删除", func(t *testing.T) {
		s, store := newTestService(t)
		require.NoError(t, s.DeleteDir(ctx, "empty/"))
		assert.Empty(t, store.deleteBatches)
		assert.Equal(t, []string{"empty/"}, store.deleted)
	})

	t.Run("批量删除失败", func(t *testing.T) {
		s, store := newTestService(t)
		twoPageDir(store)
		store.failOn["DeleteObjects"] = errors.New("timeout")
		err := s.DeleteDir(ctx, "dir/")
		require.Error(t, err)
		assert.True(t, IsOp(err, OpDelete))
		assert.Empty(t, store.deleted)
	})
}

func TestObjectInfo_FileInfo(t *testing.T) {
	modified := time.Unix(1700000000, 0)

	info := ObjectInfo{Key: "a/b.txt", Size: 9, LastModified: modified}.FileInfo()
	assert.Equal(t, &FileInfo{Path: "a/b.txt", Dirname: "a", Type: FileTypeFile, Size: 9, Timestamp: 1700000000}, info)

	dir := ObjectInfo{Key: "a/", Size: 0}.FileInfo()
	assert.Equal(t, &FileInfo{Path: "a", Type: FileTypeDir}, dir)
}
