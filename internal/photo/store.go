// Package photo downloads, crops and stores profile pictures.
package photo

import (
	"context"
	"encoding/hex"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/lalith-99/echohub/internal/apperr"
	"github.com/zeebo/blake3"
)

const (
	maxDownload = 10 << 20

	// DefaultFile is served for users who never uploaded a photo.
	DefaultFile = "default.jpg"
)

// Crop is the rectangle kept from the downloaded image. End coordinates
// are exclusive.
type Crop struct {
	XStart, YStart, XEnd, YEnd int
}

type Store struct {
	dir       string
	publicURL string
	client    *http.Client
}

// NewStore keeps pictures in dir and builds their URLs under
// publicURL + "/pfps/".
func NewStore(dir, publicURL string, client *http.Client) *Store {
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &Store{dir: dir, publicURL: publicURL, client: client}
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) URL(file string) string {
	return s.publicURL + "/pfps/" + file
}

func (s *Store) DefaultURL() string { return s.URL(DefaultFile) }

// Upload fetches imgURL, crops it and writes it as the picture of uid.
// It returns the public URL of the stored file.
func (s *Store) Upload(ctx context.Context, uid int, imgURL string, crop Crop) (string, error) {
	if crop.XEnd <= crop.XStart || crop.YEnd <= crop.YStart {
		return "", apperr.BadRequest("end is smaller than or equal to start")
	}
	if crop.XStart < 0 || crop.YStart < 0 {
		return "", apperr.BadRequest("start coordinates must not be negative")
	}

	img, err := s.fetch(ctx, imgURL)
	if err != nil {
		return "", err
	}

	bounds := img.Bounds()
	if crop.XEnd > bounds.Dx() || crop.YEnd > bounds.Dy() {
		return "", apperr.BadRequest("dimensions out of bounds of image")
	}

	sub, ok := img.(interface {
		SubImage(r image.Rectangle) image.Image
	})
	if !ok {
		return "", fmt.Errorf("decoded image of type %T cannot be cropped", img)
	}
	rect := image.Rect(crop.XStart, crop.YStart, crop.XEnd, crop.YEnd).Add(bounds.Min)
	cropped := sub.SubImage(rect)

	file := FileName(uid)
	if err := s.write(file, cropped); err != nil {
		return "", err
	}
	return s.URL(file), nil
}

func (s *Store) fetch(ctx context.Context, imgURL string) (image.Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imgURL, nil)
	if err != nil {
		return nil, apperr.BadRequest("invalid image url")
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, apperr.BadRequest("error occurred when downloading image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.BadRequest("error occurred when downloading image")
	}

	img, format, err := image.Decode(io.LimitReader(resp.Body, maxDownload))
	if err != nil {
		return nil, apperr.BadRequest("only jpeg images allowed")
	}
	if format != "jpeg" {
		return nil, apperr.BadRequest("only jpeg images allowed")
	}
	return img, nil
}

func (s *Store) write(file string, img image.Image) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create photo dir: %w", err)
	}

	tmp, err := os.CreateTemp(s.dir, file+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp photo: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := jpeg.Encode(tmp, img, &jpeg.Options{Quality: 90}); err != nil {
		tmp.Close()
		return fmt.Errorf("encode photo: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp photo: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(s.dir, file)); err != nil {
		return fmt.Errorf("store photo: %w", err)
	}
	return nil
}

// FileName is the stable file name of a user's picture.
func FileName(uid int) string {
	sum := blake3.Sum256([]byte(strconv.Itoa(uid)))
	return hex.EncodeToString(sum[:]) + ".jpg"
}
