package thumbnail

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/group-chat-api/internal/storage"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, h/2, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

// pngHeaderOnly returns a PNG signature plus an IHDR chunk declaring w x h.
// No pixel data follows, so the bytes stay tiny whatever the dimensions.
func pngHeaderOnly(w, h uint32) []byte {
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")

	chunk := make([]byte, 4+13)
	copy(chunk, "IHDR")
	binary.BigEndian.PutUint32(chunk[4:], w)
	binary.BigEndian.PutUint32(chunk[8:], h)
	chunk[12] = 8 // bit depth
	chunk[13] = 6 // RGBA

	_ = binary.Write(&buf, binary.BigEndian, uint32(13))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}

func put(t *testing.T, store storage.Storage, path string, data []byte) {
	t.Helper()
	require.NoError(t, storage.Save(context.Background(), store, path, bytes.NewReader(data)))
}

// trackingStore counts open handles so tests can assert every one is closed.
type trackingStore struct {
	storage.Storage
	open int
}

type trackedReader struct {
	io.ReadCloser
	s *trackingStore
}

func (r *trackedReader) Close() error {
	r.s.open--
	return r.ReadCloser.Close()
}

func (s *trackingStore) Open(ctx context.Context, p string) (io.ReadCloser, error) {
	rc, err := s.Storage.Open(ctx, p)
	if err != nil {
		return nil, err
	}
	s.open++
	return &trackedReader{ReadCloser: rc, s: s}, nil
}

func TestNormalize_WithinBoundsLeavesBytesUntouched(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()

	for _, size := range [][2]int{{1, 1}, {300, 300}, {300, 10}, {42, 299}} {
		original := jpegBytes(t, size[0], size[1])
		path := "profile_pics/a@example.com/small.jpg"
		put(t, store, path, original)
		writesBefore := store.Writes(path)

		changed, err := NewNormalizer(store, 300).Normalize(ctx, path)
		require.NoError(t, err)
		assert.False(t, changed)

		stored, err := storage.ReadAll(ctx, store, path)
		require.NoError(t, err)
		assert.Equal(t, original, stored, "size %v", size)
		assert.Equal(t, writesBefore, store.Writes(path), "no write for size %v", size)
	}
}

func TestNormalize_ShrinksOversizedImagesToPNG(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()

	cases := []struct {
		w, h         int
		wantW, wantH int
	}{
		{600, 600, 300, 300},
		{1000, 500, 300, 150},
		{500, 1000, 150, 300},
		{301, 100, 300, 100},
		{640, 480, 300, 225},
		{5000, 3, 300, 1},
	}

	for _, tc := range cases {
		path := "group_profile_pics/general/logo.jpg"
		put(t, store, path, jpegBytes(t, tc.w, tc.h))

		changed, err := NewNormalizer(store, 300).Normalize(ctx, path)
		require.NoError(t, err)
		require.True(t, changed)

		stored, err := storage.ReadAll(ctx, store, path)
		require.NoError(t, err)

		cfg, format, err := image.DecodeConfig(bytes.NewReader(stored))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Equal(t, tc.wantW, cfg.Width, "%dx%d", tc.w, tc.h)
		assert.Equal(t, tc.wantH, cfg.Height, "%dx%d", tc.w, tc.h)
	}
}

func TestFitSize_PreservesAspectRatio(t *testing.T) {
	for w := 1; w <= 2000; w += 97 {
		for h := 1; h <= 2000; h += 89 {
			gotW, gotH, resize := FitSize(w, h, 300)
			if w <= 300 && h <= 300 {
				require.False(t, resize)
				continue
			}
			require.True(t, resize)
			require.LessOrEqual(t, gotW, 300)
			require.LessOrEqual(t, gotH, 300)
			require.True(t, gotW == 300 || gotH == 300)

			// The shorter side keeps the original ratio within one pixel.
			if w >= h {
				assert.InDelta(t, float64(h)*300/float64(w), float64(gotH), 1.0, "%dx%d -> %dx%d", w, h, gotW, gotH)
			} else {
				assert.InDelta(t, float64(w)*300/float64(h), float64(gotW), 1.0, "%dx%d -> %dx%d", w, h, gotW, gotH)
			}
		}
	}
}

func TestNormalize_DecodeError(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	store := &trackingStore{Storage: mem}
	path := "profile_pics/a@example.com/notes.png"
	put(t, mem, path, []byte("definitely not an image"))

	changed, err := NewNormalizer(store, 300).Normalize(ctx, path)
	require.Error(t, err)
	assert.False(t, changed)
	assert.True(t, IsDecodeError(err))

	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, path, de.Path)
	assert.Zero(t, store.open, "read handle must be closed")

	stored, err := storage.ReadAll(ctx, mem, path)
	require.NoError(t, err)
	assert.Equal(t, "definitely not an image", string(stored))
}

func TestNormalize_RejectsHugeDimensionsFromHeader(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	store := &trackingStore{Storage: mem}
	data := pngHeaderOnly(20000, 20000)
	require.Less(t, len(data), 64)
	put(t, mem, "bomb.png", data)

	changed, err := NewNormalizer(store, 300).Normalize(ctx, "bomb.png")
	require.Error(t, err)
	assert.False(t, changed)
	assert.True(t, IsDecodeError(err))
	assert.ErrorIs(t, err, ErrTooManyPixels)
	assert.Zero(t, store.open)
	assert.Equal(t, 1, mem.Writes("bomb.png"))
}

func TestNormalize_WithMaxPixels(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemory()
	original := pngBytes(t, 200, 200)
	put(t, store, "a.png", original)

	_, err := NewNormalizer(store, 300, WithMaxPixels(100*100)).Normalize(ctx, "a.png")
	require.ErrorIs(t, err, ErrTooManyPixels)
	var de *DecodeError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "a.png", de.Path)

	stored, err := storage.ReadAll(ctx, store, "a.png")
	require.NoError(t, err)
	assert.Equal(t, original, stored)
	assert.Equal(t, 1, store.Writes("a.png"))

	// Non-positive caps keep the default, so the same image is accepted.
	changed, err := NewNormalizer(store, 300, WithMaxPixels(0)).Normalize(ctx, "a.png")
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestNormalize_ClosesHandlesAfterRewrite(t *testing.T) {
	ctx := context.Background()
	mem := storage.NewMemory()
	store := &trackingStore{Storage: mem}
	put(t, mem, "big.png", pngBytes(t, 900, 450))

	changed, err := NewNormalizer(store, 300).Normalize(ctx, "big.png")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Zero(t, store.open)
	assert.Equal(t, 2, mem.Writes("big.png"))
}

func TestNormalize_MissingBlob(t *testing.T) {
	_, err := NewNormalizer(storage.NewMemory(), 300).Normalize(context.Background(), "nope.png")
	require.ErrorIs(t, err, storage.ErrNotFound)
	assert.False(t, IsDecodeError(err))
}

func TestDecodeError_Message(t *testing.T) {
	err := &DecodeError{Path: "a.png", Err: io.ErrUnexpectedEOF}
	assert.True(t, strings.Contains(err.Error(), "a.png"))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}
