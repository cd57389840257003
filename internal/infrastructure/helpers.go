package infrastructure

import (
	"net/http"
	"strings"

	"github.com/AhmadZaarour/store-manager-web-app/pkg/e"
)

// GetExtensionFromMIME возвращает расширение файла по MIME-типу изображения.
// Поддерживает jpeg, jpg, png, webp. Возвращает ошибку e.ErrUnsupportedMediaType для неподдерживаемых типов.
func GetExtensionFromMIME(mime string) (string, error) {
	switch mime {
	case "image/jpeg", "image/jpg":
		return "jpg", nil
	case "image/png":
		return "png", nil
	case "image/webp":
		return "webp", nil
	default:
		return "bin", e.ErrUnsupportedMediaType
	}
}

// DetectImageMIME определяет MIME-тип по первым байтам файла, без параметров вида "; charset".
func DetectImageMIME(data []byte) string {
	mime := http.DetectContentType(data)
	if idx := strings.IndexByte(mime, ';'); idx >= 0 {
		mime = mime[:idx]
	}
	return strings.TrimSpace(mime)
}
