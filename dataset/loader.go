package dataset

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/YuminosukeSato/petclassifier/core/tensor"
	"github.com/YuminosukeSato/petclassifier/pkg/errors"
	"github.com/YuminosukeSato/petclassifier/pkg/log"
)

// Loader reads a class-per-directory image tree.
type Loader struct {
	shape   tensor.Shape
	classes []string
	logger  log.Logger
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithLogger sets the logger used for progress messages.
func WithLogger(l log.Logger) LoaderOption {
	return func(ld *Loader) {
		ld.logger = l
	}
}

// NewLoader returns a Loader producing images of the given shape, labeling
// samples by their position in classes.
func NewLoader(shape tensor.Shape, classes []string, opts ...LoaderOption) *Loader {
	ld := &Loader{
		shape:   shape,
		classes: classes,
	}
	for _, opt := range opts {
		opt(ld)
	}
	if ld.logger == nil {
		ld.logger = log.Named("dataset.Loader")
	}
	return ld
}

// Load reads root/<class>/* for every configured class. Files that cannot
// be decoded and missing class directories are reported as warnings and
// skipped. ErrEmptyDataset is returned when nothing could be loaded.
func (ld *Loader) Load(root string) (*Dataset, error) {
	if err := ld.shape.Validate(); err != nil {
		return nil, err
	}
	if len(ld.classes) == 0 {
		return nil, errors.NewValidationError("classes", "at least one class is required", ld.classes)
	}

	start := time.Now()
	ds := &Dataset{Classes: append([]string(nil), ld.classes...)}

	for label, class := range ld.classes {
		dir := filepath.Join(root, class)
		files, err := listImageFiles(dir)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				errors.Warn(errors.NewMissingClassDirWarning(class, dir))
				continue
			}
			return nil, err
		}

		loaded := 0
		for _, path := range files {
			im, err := DecodeFile(path, ld.shape)
			if err != nil {
				errors.Warn(errors.NewImageDecodeWarning(path, err))
				continue
			}
			ds.Images = append(ds.Images, im)
			ds.Labels = append(ds.Labels, label)
			loaded++
		}
		ld.logger.Debug("Loaded class directory",
			log.PathKey, dir,
			log.LabelKey, class,
			log.SamplesKey, loaded,
		)
	}

	if ds.Len() == 0 {
		return nil, errors.Wrapf(errors.ErrEmptyDataset, "root %s", root)
	}

	ld.logger.Info("Dataset loaded",
		log.PathKey, root,
		log.SamplesKey, ds.Len(),
		log.ClassesKey, ds.Classes,
		log.ShapeKey, ld.shape.Dims(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return ds, nil
}

// listImageFiles returns the regular, non-hidden files of dir sorted by name.
func listImageFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !e.Type().IsRegular() {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}
