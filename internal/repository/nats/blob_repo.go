package nats

import (
	"bytes"
	"context"
	"errors"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"Yam_Community/internal/model"
	"Yam_Community/internal/pkg"
)

const contentTypeKey = "content-type"

// objectStore is the slice of jetstream.ObjectStore the blob repository uses.
type objectStore interface {
	Put(ctx context.Context, meta jetstream.ObjectMeta, reader io.Reader) (*jetstream.ObjectInfo, error)
	GetBytes(ctx context.Context, name string, opts ...jetstream.GetObjectOpt) ([]byte, error)
	GetInfo(ctx context.Context, name string, opts ...jetstream.GetObjectInfoOpt) (*jetstream.ObjectInfo, error)
	Delete(ctx context.Context, name string) error
}

// BlobRepository 上传审核通过的图片，返回可访问的 URL
type BlobRepository struct {
	store   objectStore
	baseURL string
}

func newBlobRepository(store objectStore, baseURL string) *BlobRepository {
	return &BlobRepository{store: store, baseURL: strings.TrimRight(baseURL, "/")}
}

// Connect 连接 NATS 并准备对象桶，返回的连接由调用方关闭
func Connect(ctx context.Context, url, bucket, baseURL string) (*BlobRepository, *nats.Conn, error) {
	nc, err := nats.Connect(url, nats.Name("community-media"))
	if err != nil {
		return nil, nil, err
	}
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, err
	}
	store, err := js.CreateOrUpdateObjectStore(ctx, jetstream.ObjectStoreConfig{
		Bucket:      bucket,
		Description: "community banners and post images",
	})
	if err != nil {
		nc.Close()
		return nil, nil, err
	}
	return newBlobRepository(store, baseURL), nc, nil
}

// Upload stores the file under a fresh name and returns its public URL.
func (r *BlobRepository) Upload(ctx context.Context, f *model.File) (string, error) {
	if f.Empty() {
		return "", pkg.Invalid("empty upload")
	}
	name := uuid.NewString() + extension(f.Name)
	_, err := r.store.Put(ctx, jetstream.ObjectMeta{
		Name:     name,
		Metadata: map[string]string{contentTypeKey: f.ContentType},
	}, bytes.NewReader(f.Data))
	if err != nil {
		return "", pkg.Store("blob.upload", err)
	}
	return r.baseURL + "/" + name, nil
}

// Remove 删除 Upload 返回的对象，对象不存在视为成功
func (r *BlobRepository) Remove(ctx context.Context, url string) error {
	name := strings.TrimPrefix(url, r.baseURL+"/")
	if name == url || name == "" || strings.Contains(name, "/") {
		return pkg.Invalid("not a media url: %s", url)
	}
	err := r.store.Delete(ctx, name)
	if err == nil || errors.Is(err, jetstream.ErrObjectNotFound) {
		return nil
	}
	return pkg.Store("blob.remove", err)
}

func (r *BlobRepository) Open(ctx context.Context, name string) (*model.File, error) {
	info, err := r.store.GetInfo(ctx, name)
	if errors.Is(err, jetstream.ErrObjectNotFound) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, pkg.Store("blob.open", err)
	}
	data, err := r.store.GetBytes(ctx, name)
	if errors.Is(err, jetstream.ErrObjectNotFound) {
		return nil, pkg.ErrNotFound
	}
	if err != nil {
		return nil, pkg.Store("blob.open", err)
	}
	ct := info.Metadata[contentTypeKey]
	if ct == "" {
		ct = "application/octet-stream"
	}
	return &model.File{Name: name, ContentType: ct, Data: data}, nil
}

// extension keeps a short, lower-case file extension from the client file name.
func extension(filename string) string {
	ext := strings.ToLower(path.Ext(path.Base(strings.ReplaceAll(filename, "\\", "/"))))
	if len(ext) < 2 || len(ext) > 6 {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
