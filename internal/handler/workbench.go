package handler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/models"
	"github.com/RubachokBoss/plagiarism-checker/workbench/internal/render"
)

// поля форм и JSON-запросов страницы

type analyzeInput struct {
	Threshold int `json:"threshold"`
}

type compareInput struct {
	File1 string `json:"file1"`
	File2 string `json:"file2"`
}

type converseInput struct {
	Text string `json:"text"`
}

type reportResponse struct {
	Location string `json:"location"`
}

func (h *Handler) Page(w http.ResponseWriter, r *http.Request) {
	st := h.workbench.State()

	var buf bytes.Buffer
	err := h.pages.Render(&buf, render.PageData{
		Session:      st.Session,
		Controls:     st.Controls,
		Progress:     st.Progress,
		Notification: st.Notification,
		View:         st.View,
		Comparison:   st.Comparison,
		Conversation: st.Conversation,
		MaxFiles:     h.workbench.MaxFiles(),
	})
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to render page")
		WriteError(w, http.StatusInternalServerError, "Failed to render page", "RENDER_FAILED")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.workbench.State())
}

func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	v := h.workbench.View()
	if v == nil {
		WriteError(w, http.StatusNotFound, "No analysis results yet", "NO_RESULTS")
		return
	}
	WriteJSON(w, http.StatusOK, v)
}

func (h *Handler) GetProgress(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.workbench.Progress())
}

func (h *Handler) DismissNotification(w http.ResponseWriter, r *http.Request) {
	h.workbench.DismissNotification()
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	if h.cfg.MaxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadSize)
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			WriteError(w, http.StatusRequestEntityTooLarge, "Upload is too large", "UPLOAD_TOO_LARGE")
			return
		}
		WriteError(w, http.StatusBadRequest, "Invalid multipart form", "INVALID_FORM")
		return
	}

	headers := r.MultipartForm.File["files[]"]
	if len(headers) == 0 {
		headers = r.MultipartForm.File["files"]
	}

	files, err := selectedFiles(headers)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to read uploaded files")
		WriteError(w, http.StatusBadRequest, "Failed to read uploaded files", "INVALID_FORM")
		return
	}

	h.runPipeline(w, r, func(ctx context.Context) error {
		return h.workbench.Upload(ctx, files)
	})
}

// selectedFiles копирует содержимое в память: временные файлы формы
// удаляются после ответа, а загрузка из формы идет в фоне.
func selectedFiles(headers []*multipart.FileHeader) ([]models.SelectedFile, error) {
	files := make([]models.SelectedFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", fh.Filename, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", fh.Filename, err)
		}

		files = append(files, models.SelectedFile{
			Name: fh.Filename,
			Size: fh.Size,
			Open: func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(data)), nil
			},
		})
	}
	return files, nil
}

func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	var in analyzeInput
	if isJSONBody(r) {
		if err := ReadJSON(r, &in); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid request body", "INVALID_BODY")
			return
		}
	} else {
		control, err := strconv.Atoi(r.FormValue("threshold"))
		if err != nil {
			WriteError(w, http.StatusBadRequest, "threshold must be an integer from 0 to 100", "INVALID_FORM")
			return
		}
		in.Threshold = control
	}

	h.runPipeline(w, r, func(ctx context.Context) error {
		return h.workbench.Analyze(ctx, in.Threshold)
	})
}

func (h *Handler) Compare(w http.ResponseWriter, r *http.Request) {
	var in compareInput
	if isJSONBody(r) {
		if err := ReadJSON(r, &in); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid request body", "INVALID_BODY")
			return
		}
	} else {
		in.File1, in.File2 = r.FormValue("file1"), r.FormValue("file2")
	}

	h.finish(w, r, h.workbench.Compare(r.Context(), in.File1, in.File2))
}

func (h *Handler) Converse(w http.ResponseWriter, r *http.Request) {
	var in converseInput
	if isJSONBody(r) {
		if err := ReadJSON(r, &in); err != nil {
			WriteError(w, http.StatusBadRequest, "Invalid request body", "INVALID_BODY")
			return
		}
	} else {
		in.Text = r.FormValue("text")
	}

	h.finish(w, r, h.workbench.Converse(r.Context(), in.Text))
}

func (h *Handler) ClearFiles(w http.ResponseWriter, r *http.Request) {
	h.workbench.ClearFiles()
	h.finish(w, r, nil)
}

func (h *Handler) Cleanup(w http.ResponseWriter, r *http.Request) {
	h.finish(w, r, h.workbench.Cleanup(r.Context()))
}

// Download отправляет браузер за отчетом к backend, тело не разбирается.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	url, err := h.workbench.ReportURL()
	if err != nil {
		h.finish(w, r, err)
		return
	}
	http.Redirect(w, r, url, http.StatusFound)
}

func (h *Handler) SaveReport(w http.ResponseWriter, r *http.Request) {
	location, err := h.workbench.SaveReport(r.Context(), h.reports)
	if err != nil || !wantsJSON(r) {
		h.finish(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, reportResponse{Location: location})
}
