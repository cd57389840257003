package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/AhmadZaarour/store-manager-web-app/internal/infrastructure"
	"github.com/AhmadZaarour/store-manager-web-app/internal/usecase"
	"github.com/AhmadZaarour/store-manager-web-app/pkg/e"
	"github.com/jimlawless/whereami"
)

// ErrorResponse — тело ответа с ошибкой.
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   any    `json:"details,omitempty"`
	Available *int   `json:"available,omitempty"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: message}
}

// ToHTTPResponse сопоставляет ошибку сервиса со статусом и телом ответа.
func ToHTTPResponse(err error) (int, *ErrorResponse) {
	var (
		vErr *e.ValidationError
		nErr *e.NotFoundError
		cErr *e.ConflictError
	)

	switch {
	case errors.As(err, &vErr):
		res := NewErrorResponse(vErr.Msg)
		if len(vErr.Missing) > 0 {
			res.Details = vErr.Missing
		}
		res.Available = vErr.Available
		return http.StatusBadRequest, res
	case errors.As(err, &cErr):
		res := NewErrorResponse(cErr.Msg)
		if cErr.Detail != "" {
			res.Details = cErr.Detail
		}
		return http.StatusBadRequest, res
	case errors.As(err, &nErr):
		return http.StatusNotFound, NewErrorResponse(nErr.Error())
	case errors.Is(err, e.ErrInvalidJSON):
		return http.StatusBadRequest, NewErrorResponse(e.ErrInvalidJSON.Error())
	case errors.Is(err, e.ErrExpectedMultipart):
		return http.StatusBadRequest, NewErrorResponse(e.ErrExpectedMultipart.Error())
	case errors.Is(err, e.ErrUnsupportedMediaType):
		return http.StatusBadRequest, NewErrorResponse(e.ErrUnsupportedMediaType.Error())
	case errors.Is(err, e.ErrFileTooLarge):
		return http.StatusBadRequest, NewErrorResponse(e.ErrFileTooLarge.Error())
	case errors.Is(err, e.ErrNoImages):
		return http.StatusBadRequest, NewErrorResponse(e.ErrNoImages.Error())
	default:
		return http.StatusInternalServerError, NewErrorResponse(e.ErrInternalServerError.Error())
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, res := ToHTTPResponse(err)
	WriteSuccess(w, code, res)
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeFields читает тело запроса как JSON-объект.
// Пустое тело трактуется как пустой объект.
func decodeFields(r *http.Request) (usecase.Fields, error) {
	const maxBodySize = 1 << 20

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrInvalidJSON)
	}
	if strings.TrimSpace(string(body)) == "" {
		return usecase.Fields{}, nil
	}

	var fields usecase.Fields
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrInvalidJSON)
	}
	if fields == nil {
		fields = usecase.Fields{}
	}
	return fields, nil
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return e.Wrap(whereami.WhereAmI(), e.ErrFileTooLarge)
		}
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}
	return nil
}

// parseImage берёт единственный файл из поля image.
func parseImage(form *multipart.Form, maxSize int64) (*usecase.ProductImage, error) {
	files := form.File["image"]
	if len(files) == 0 {
		return nil, e.ErrNoImages
	}

	fh := files[0]
	data, mimeType, err := readFile(fh, maxSize)
	if err != nil {
		return nil, err
	}
	return usecase.NewProductImage(data, mimeType, int64(len(data)), fh.Filename), nil
}

func readFile(fh *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, "", e.Wrap(whereami.WhereAmI(), err)
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", e.Wrap(whereami.WhereAmI(), err)
	}
	if len(data) == 0 {
		return nil, "", e.Wrap(fh.Filename, e.ErrNoImages)
	}
	if maxSize > 0 && int64(len(data)) > maxSize {
		return nil, "", e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	mimeType := infrastructure.DetectImageMIME(data[:min(len(data), 512)])
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, "", e.Wrap(fh.Filename, e.ErrUnsupportedMediaType)
	}
	return data, mimeType, nil
}
