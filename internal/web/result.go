package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"wikix/internal/render"
	"wikix/internal/storage"
	"wikix/internal/view"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeText = "text/plain; charset=utf-8"
)

// Result is the outcome of a handler: a body to send, or a redirect when
// Location is set.
type Result struct {
	Status      int
	ContentType string
	Body        []byte
	Location    string
}

// HTTPError is a handler failure with a status chosen by the handler.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string {
	return strconv.Itoa(e.Status) + ": " + e.Message
}

func badRequest(format string, args ...any) error {
	return &HTTPError{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

// HandlerFunc is a route handler. Errors are turned into responses by
// translate.
type HandlerFunc func(r *http.Request) (Result, error)

func htmlResult(body []byte) Result {
	return Result{Status: http.StatusOK, ContentType: contentTypeHTML, Body: body}
}

func redirect(status int, location string) Result {
	return Result{Status: status, Location: location}
}

func textResult(status int, msg string) Result {
	return Result{Status: status, ContentType: contentTypeText, Body: []byte(msg + "\n")}
}

// translate maps a handler outcome to the response that is sent.
// Template errors carry their location into the 500 body; any other
// unexpected error becomes a bare 500.
func translate(res Result, err error) Result {
	if err == nil {
		if res.Status == 0 {
			res.Status = http.StatusOK
		}
		return res
	}
	var herr *HTTPError
	if errors.As(err, &herr) {
		return textResult(herr.Status, herr.Error())
	}
	if errors.Is(err, storage.ErrUnsafeName) {
		return textResult(http.StatusBadRequest, "400: "+err.Error())
	}
	if errors.Is(err, view.ErrNotFound) {
		return textResult(http.StatusNotFound, "404: Not Found")
	}
	var serr *render.SyntaxError
	if errors.As(err, &serr) {
		return textResult(http.StatusInternalServerError, "500: "+serr.Error())
	}
	return textResult(http.StatusInternalServerError, "500: Internal Server Error")
}

func writeResult(w http.ResponseWriter, res Result) {
	if res.Location != "" {
		w.Header().Set("Location", res.Location)
		w.WriteHeader(res.Status)
		return
	}
	if res.ContentType != "" {
		w.Header().Set("Content-Type", res.ContentType)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Body)))
	w.WriteHeader(res.Status)
	_, _ = w.Write(res.Body)
}
