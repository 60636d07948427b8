package oss

import (
	"context"
	"strings"
	"time"
)

const (
	listDelimiter = "/"
	listMaxKeys   = 1000
)

// ObjectInfo 列举到的对象，Prefix 为发起列举时的目录
type ObjectInfo struct {
	Prefix       string    `json:"prefix"`
	Key          string    `json:"key"`
	LastModified time.Time `json:"lastModified"`
	ETag         string    `json:"eTag"`
	Type         string    `json:"type"`
	StorageClass string    `json:"storageClass"`
	Size         int64     `json:"size"`
}

// FileInfo 转换为标准化描述
func (o ObjectInfo) FileInfo() *FileInfo {
	info := normalize(o.Key)
	if info.Type == FileTypeFile {
		info.Size = o.Size
	}
	if !o.LastModified.IsZero() {
		info.Timestamp = o.LastModified.Unix()
	}
	return info
}

// ListingPage 目录列举结果
type ListingPage struct {
	Objects    []ObjectInfo `json:"objects"`
	Prefixes   []string     `json:"prefix"`
	NextMarker string       `json:"nextMarker"`
}

// Keys 全部对象的key
func (p *ListingPage) Keys() []string {
	keys := make([]string, 0, len(p.Objects))
	for _, o := range p.Objects {
		keys = append(keys, o.Key)
	}
	return keys
}

// ListDirObjects 按 marker 翻页列举目录。
// recursive 为 true 时，每翻一页都会对已累积的全部子目录重新递归一次，结果中可能出现重复对象。
func (s *Service) ListDirObjects(ctx context.Context, prefix string, recursive bool) (*ListingPage, error) {
	result := &ListingPage{
		Objects:  []ObjectInfo{},
		Prefixes: []string{},
	}

	marker := ""
	for {
		opts := ListOptions{
			Delimiter: listDelimiter,
			Prefix:    prefix,
			MaxKeys:   listMaxKeys,
			Marker:    marker,
		}

		var page *ObjectPage
		err := s.call(OpList, func() (err error) {
			page, err = s.store.ListObjects(ctx, s.config.Bucket, opts)
			return
		})
		if err != nil {
			return nil, s.fail(ctx, OpList, "列举阿里云文件失败", err)
		}
		marker = page.NextMarker

		for _, o := range page.Objects {
			result.Objects = append(result.Objects, ObjectInfo{
				Prefix:       prefix,
				Key:          o.Key,
				LastModified: o.LastModified,
				ETag:         o.ETag,
				Type:         o.Type,
				StorageClass: o.StorageClass,
				Size:         o.Size,
			})
		}
		result.Prefixes = append(result.Prefixes, page.CommonPrefixes...)

		if recursive {
			for _, sub := range result.Prefixes {
				next, err := s.ListDirObjects(ctx, sub, recursive)
				if err != nil {
					return nil, err
				}
				result.Objects = append(result.Objects, next.Objects...)
			}
		}

		if marker == "" {
			break
		}
	}
	result.NextMarker = marker
	return result, nil
}

// DeleteDir 删除目录下的全部对象以及目录标记本身
func (s *Service) DeleteDir(ctx context.Context, dirname string) error {
	dirname = strings.TrimRight(dirname, "/") + "/"
	s.log.WithTrace(ctx).WithObject(dirname).Info("删除阿里云目录")

	listing, err := s.ListDirObjects(ctx, dirname, true)
	if err != nil {
		return err
	}

	if keys := listing.Keys(); len(keys) > 0 {
		err = s.call(OpDelete, func() error {
			return s.store.DeleteObjects(ctx, s.config.Bucket, keys)
		})
		if err != nil {
			return s.fail(ctx, OpDelete, "批量删除目录文件失败", err)
		}
	}

	err = s.call(OpDelete, func() error {
		return s.store.DeleteObject(ctx, s.config.Bucket, dirname)
	})
	if err != nil {
		return s.fail(ctx, OpDelete, "删除目录失败", err)
	}
	return nil
}
