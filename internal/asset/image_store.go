package asset

import (
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nfnt/resize"
	"go.uber.org/zap"
)

// maxSuffix bounds the collision search in Import.
const maxSuffix = 10000

var ErrTooManyCollisions = errors.New("no free image file name")

type Config struct {
	Dir      string
	MaxWidth uint
}

// ConfigFromEnv reads IMAGE_DIR (default ./images) and IMAGE_MAX_WIDTH (0 keeps
// the original size).
func ConfigFromEnv() Config {
	cfg := Config{Dir: os.Getenv("IMAGE_DIR")}
	if cfg.Dir == "" {
		cfg.Dir = "./images"
	}
	if v, err := strconv.ParseUint(os.Getenv("IMAGE_MAX_WIDTH"), 10, 32); err == nil {
		cfg.MaxWidth = uint(v)
	}
	return cfg
}

// ImageStore keeps product images in one directory. Products reference them by
// file name only.
type ImageStore struct {
	Dir      string
	MaxWidth uint
	logger   *zap.SugaredLogger
}

func NewImageStore(cfg Config, logger *zap.SugaredLogger) *ImageStore {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &ImageStore{Dir: cfg.Dir, MaxWidth: cfg.MaxWidth, logger: logger}
}

// Path returns the location of a stored image.
func (s *ImageStore) Path(name string) string {
	return filepath.Join(s.Dir, filepath.Base(name))
}

// Import copies src into the store and returns the stored file name. An
// existing file is never overwritten: name.png becomes name_1.png, name_2.png
// and so on. PNG and JPEG images wider than MaxWidth are scaled down.
func (s *ImageStore) Import(src string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer in.Close()

	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create image dir: %w", err)
	}
	out, name, err := s.create(filepath.Base(src))
	if err != nil {
		return "", err
	}

	if err := s.write(out, in, name); err != nil {
		out.Close()
		os.Remove(filepath.Join(s.Dir, name))
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(filepath.Join(s.Dir, name))
		return "", fmt.Errorf("write image: %w", err)
	}
	s.logger.Infow("image stored", "src", src, "name", name)
	return name, nil
}

// create opens the first free name derived from base with O_EXCL.
func (s *ImageStore) create(base string) (*os.File, string, error) {
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	name := base
	for i := 1; i <= maxSuffix; i++ {
		f, err := os.OpenFile(filepath.Join(s.Dir, name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, name, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, "", fmt.Errorf("create image: %w", err)
		}
		name = stem + "_" + strconv.Itoa(i) + ext
	}
	return nil, "", ErrTooManyCollisions
}

func (s *ImageStore) write(out io.Writer, in io.ReadSeeker, name string) error {
	if s.MaxWidth > 0 {
		resized, err := s.resized(out, in, name)
		if err != nil || resized {
			return err
		}
		if _, err := in.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("rewind image: %w", err)
		}
	}
	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copy image: %w", err)
	}
	return nil
}

// resized re-encodes in scaled to MaxWidth when it is a PNG or JPEG wider than
// that. It reports false, writing nothing, for any other input.
func (s *ImageStore) resized(out io.Writer, in io.Reader, name string) (bool, error) {
	img, format, err := image.Decode(in)
	if err != nil {
		return false, nil
	}
	if uint(img.Bounds().Dx()) <= s.MaxWidth {
		return false, nil
	}
	scaled := resize.Resize(s.MaxWidth, 0, img, resize.Lanczos3)
	switch format {
	case "png":
		err = png.Encode(out, scaled)
	case "jpeg":
		err = jpeg.Encode(out, scaled, &jpeg.Options{Quality: 90})
	default:
		return false, nil
	}
	if err != nil {
		return true, fmt.Errorf("encode image: %w", err)
	}
	s.logger.Debugw("image resized", "name", name, "from", img.Bounds().Dx(), "to", s.MaxWidth)
	return true, nil
}
