// Package upload accepts sheet-music images and audio files and forwards
// them to the object store.
package upload

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/kylinpoet/song-for-guoxi/internal/httpx/kit"
	"github.com/kylinpoet/song-for-guoxi/internal/logx"
	"github.com/kylinpoet/song-for-guoxi/internal/s3x"
)

var uploadLogger = logx.GetScope("upload")

// ErrStorageUnavailable is returned when no object store is configured.
var ErrStorageUnavailable = errors.New("object storage is not configured")

// Uploader stores a byte stream and returns its public URL.
type Uploader interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// Kind describes one upload endpoint.
type Kind struct {
	Field     string // multipart field name
	Namespace string // key prefix
	URLKey    string // response field carrying the public URL
}

var (
	Sheet = Kind{Field: "sheetFile", Namespace: s3x.NamespaceSheets, URLKey: "imageUrl"}
	Audio = Kind{Field: "audioFile", Namespace: s3x.NamespaceAudio, URLKey: "audioUrl"}
)

// Handler stores the file in kind.Field and responds {success, <URLKey>}.
// A nil uploader fails every request that carries a file.
//
//	@Summary      Upload sheet or audio
//	@Description  Multipart field sheetFile (POST /admin/upload-sheet) or audioFile (POST /admin/upload-audio)
//	@Tags         admin
//	@Accept       mpfd
//	@Produce      json
//	@Success      200   {object}  map[string]interface{}
//	@Failure      400   {object}  map[string]interface{}
//	@Failure      500   {object}  map[string]interface{}
//	@Router       /admin/upload-sheet [post]
//	@Router       /admin/upload-audio [post]
func Handler(kind Kind, up Uploader, now func() time.Time) fiber.Handler {
	if now == nil {
		now = time.Now
	}
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile(kind.Field)
		if err != nil || fh == nil {
			return kit.BadRequest("没有选择文件", nil)
		}
		if up == nil {
			return kit.InternalError(ErrStorageUnavailable)
		}
		f, err := fh.Open()
		if err != nil {
			return kit.InternalError(err)
		}
		defer f.Close()

		ctx, cancel := context.WithTimeout(c.Context(), 60*time.Second)
		defer cancel()
		key := s3x.BuildKey(kind.Namespace, fh.Filename, now())
		url, err := up.Put(ctx, key, f, fh.Size, fh.Header.Get(fiber.HeaderContentType))
		if err != nil {
			uploadLogger.Error("object store put failed", zap.String("key", key), zap.Error(err))
			return kit.InternalError(err)
		}
		uploadLogger.Sugar().Infof("uploaded %s (%d bytes)", key, fh.Size)
		return kit.OK(c, fiber.Map{kind.URLKey: url})
	}
}
