package blob

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Disk stores objects as plain files under a root directory. References are
// baseURL-relative so the HTTP layer can serve the root as static content.
type Disk struct {
	root    string
	baseURL string
}

var _ Store = (*Disk)(nil)

func NewDisk(root, baseURL string) (*Disk, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Disk{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

func (d *Disk) path(key string) (string, error) {
	cleaned := path.Clean("/" + key)
	if cleaned == "/" {
		return "", ErrInvalidKey
	}
	// cleaned is absolute and cannot escape the root after the join
	return filepath.Join(d.root, filepath.FromSlash(cleaned)), nil
}

func (d *Disk) Upload(ctx context.Context, key string, data []byte) (string, error) {
	p, err := d.path(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", err
	}
	return d.DownloadReference(key), nil
}

func (d *Disk) DownloadReference(key string) string {
	return d.baseURL + "/" + strings.TrimLeft(path.Clean("/"+key), "/")
}

func (d *Disk) Open(ctx context.Context, key string) ([]byte, error) {
	p, err := d.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

func (d *Disk) Delete(ctx context.Context, key string) error {
	p, err := d.path(key)
	if err != nil {
		return err
	}
	err = os.Remove(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func (d *Disk) Metadata(ctx context.Context, key string) (Info, error) {
	p, err := d.path(key)
	if err != nil {
		return Info{}, err
	}
	fi, err := os.Stat(p)
	if errors.Is(err, fs.ErrNotExist) {
		return Info{}, ErrNotFound
	}
	if err != nil {
		return Info{}, err
	}
	return Info{Key: key, Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

// Root is the directory served for download references.
func (d *Disk) Root() string {
	return d.root
}
