package functionshandler

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	json "github.com/goccy/go-json"

	"hris/internal/domain/directory"
	"hris/internal/platform/requestctx"
	"hris/internal/transport/http/api"
	"hris/internal/transport/http/middleware"
	"hris/internal/transport/http/shared"
)

const maxImportBytes = 10 << 20

type importJSON struct {
	Rows           json.RawMessage   `json:"rows"`
	DryRun         bool              `json:"dryRun"`
	SendInvites    bool              `json:"sendInvites"`
	Justifications map[string]string `json:"justifications"`
}

// decodeImport accepts a JSON body, a multipart form with a "file" part, or a
// raw CSV body. Options travel as form fields or query parameters for uploads.
func decodeImport(w http.ResponseWriter, r *http.Request) ([]directory.Row, directory.Options, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			return nil, directory.Options{}, errors.Join(directory.ErrInvalidUpload, err)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return nil, directory.Options{}, errors.Join(directory.ErrInvalidUpload, err)
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, directory.Options{}, errors.Join(directory.ErrInvalidUpload, err)
		}
		format := r.FormValue("format")
		if format == "" {
			format = strings.TrimPrefix(strings.ToLower(filepath.Ext(header.Filename)), ".")
		}
		opts, err := uploadOptions(r.FormValue)
		if err != nil {
			return nil, directory.Options{}, err
		}
		rows, err := directory.Parse(format, data)
		return rows, opts, err
	case "text/csv":
		data, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, directory.Options{}, errors.Join(directory.ErrInvalidUpload, err)
		}
		opts, err := uploadOptions(r.URL.Query().Get)
		if err != nil {
			return nil, directory.Options{}, err
		}
		rows, err := directory.Parse(directory.FormatCSV, data)
		return rows, opts, err
	default:
		var payload importJSON
		if err := api.Decode(r, &payload); err != nil {
			return nil, directory.Options{}, errors.Join(directory.ErrInvalidUpload, err)
		}
		rows, err := directory.ParseJSON(payload.Rows)
		return rows, directory.Options{
			DryRun:         payload.DryRun,
			SendInvites:    payload.SendInvites,
			Justifications: payload.Justifications,
		}, err
	}
}

func uploadOptions(get func(string) string) (directory.Options, error) {
	var opts directory.Options
	for name, target := range map[string]*bool{"dryRun": &opts.DryRun, "sendInvites": &opts.SendInvites} {
		raw := strings.TrimSpace(get(name))
		if raw == "" {
			continue
		}
		value, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, errors.Join(directory.ErrInvalidUpload, errors.New(name+" must be true or false"))
		}
		*target = value
	}
	if raw := strings.TrimSpace(get("justifications")); raw != "" {
		if err := json.Unmarshal([]byte(raw), &opts.Justifications); err != nil {
			return opts, errors.Join(directory.ErrInvalidUpload, errors.New("justifications must be a JSON object"))
		}
	}
	return opts, nil
}

func isUploadError(err error) bool {
	for _, target := range []error{
		directory.ErrInvalidUpload,
		directory.ErrNoRows,
		directory.ErrTooManyRows,
		directory.ErrUnknownFormat,
		directory.ErrMissingHeader,
		directory.ErrEmptyWorksheet,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (h *Handler) handleImportUsers(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	user, _ := middleware.GetUser(r.Context())

	rows, opts, err := decodeImport(w, r)
	if err != nil {
		h.failImport(w, r, err)
		return
	}
	summary, err := h.Directory.Import(r.Context(), user, rows, opts)
	if err != nil {
		h.failImport(w, r, err)
		return
	}
	if !opts.DryRun {
		shared.RecordAudit(r, h.Audit, "users.import", directory.EntityUser, "", nil, map[string]int{
			"total":   summary.Total,
			"created": summary.Created,
			"skipped": summary.Skipped,
			"failed":  summary.Failed,
		})
	}
	api.Success(w, summary, requestID)
}

func (h *Handler) failImport(w http.ResponseWriter, r *http.Request, err error) {
	requestID := middleware.GetRequestID(r.Context())
	if isUploadError(err) {
		api.Fail(w, http.StatusBadRequest, "invalid_upload", err.Error(), requestID)
		return
	}
	requestctx.Logger(r.Context()).Error("user import failed", "err", err)
	api.Fail(w, http.StatusInternalServerError, "import_failed", "failed to import users", requestID)
}
