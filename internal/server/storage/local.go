package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gopherblog/internal/common"
	"github.com/dmitrijs2005/gopherblog/internal/filex"
)

// LocalStorage writes covers into a single directory. References look like
// "uploads/<random hex><ext>".
type LocalStorage struct {
	dir string
}

// NewLocalStorage creates dir if needed.
func NewLocalStorage(dir string) (*LocalStorage, error) {
	abs, err := filex.EnsureDir(dir)
	if err != nil {
		return nil, err
	}
	return &LocalStorage{dir: abs}, nil
}

// Dir is the absolute directory the files live in.
func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) Save(ctx context.Context, u *Upload) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name, err := common.MakeRandHexString(16)
	if err != nil {
		return "", err
	}
	name += u.Ext

	if err := os.WriteFile(filepath.Join(s.dir, name), u.Data, 0o640); err != nil {
		return "", fmt.Errorf("write cover: %w", err)
	}

	return path.Join(common.UploadsPrefix, name), nil
}

// Delete removes the file behind ref. A file that is already gone is not an
// error.
func (s *LocalStorage) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name, err := s.fileName(ref)
	if err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove cover: %w", err)
	}
	return nil
}

func (s *LocalStorage) fileName(ref string) (string, error) {
	name, ok := strings.CutPrefix(ref, common.UploadsPrefix+"/")
	if !ok || name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
		return "", fmt.Errorf("%w: bad cover reference %q", common.ErrorValidation, ref)
	}
	return name, nil
}
