package web

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"wikix/internal/render"
	"wikix/internal/storage"
)

// pathParam returns the decoded route parameter. chi matches on the raw
// path when the request carries escaped characters.
func pathParam(r *http.Request, key string) (string, error) {
	value := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return value, nil
	}
	decoded, err := url.PathUnescape(value)
	if err != nil {
		return "", badRequest("invalid path parameter %q", value)
	}
	return decoded, nil
}

// formValue reports whether key was submitted at all, so an empty field
// can be told apart from a missing one.
func formValue(r *http.Request, key string) (string, bool, error) {
	if err := r.ParseForm(); err != nil {
		return "", false, badRequest("invalid form: %v", err)
	}
	values, ok := r.PostForm[key]
	if !ok || len(values) == 0 {
		return "", false, nil
	}
	return values[0], true, nil
}

// storageConflict reports a failed move or delete as 409 with the
// storage's message. Unsafe names stay bad requests.
func storageConflict(err error) error {
	if errors.Is(err, storage.ErrUnsafeName) {
		return err
	}
	return &HTTPError{Status: http.StatusConflict, Message: err.Error()}
}

func (s *Server) handleIndex(r *http.Request) (Result, error) {
	body, err := s.renderer.Page(s.cfg.IndexPage)
	if err != nil {
		return Result{}, err
	}
	return htmlResult(body), nil
}

func (s *Server) handlePages(r *http.Request) (Result, error) {
	body, err := s.renderer.PageAll()
	if err != nil {
		return Result{}, err
	}
	return htmlResult(body), nil
}

func (s *Server) handlePage(r *http.Request) (Result, error) {
	name, err := pathParam(r, "name")
	if err != nil {
		return Result{}, err
	}
	body, err := s.renderer.Page(name)
	if err != nil {
		return Result{}, err
	}
	return htmlResult(body), nil
}

func (s *Server) handleSave(r *http.Request) (Result, error) {
	name, err := pathParam(r, "name")
	if err != nil {
		return Result{}, err
	}
	content, ok, err := formValue(r, "raw_content")
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{}, badRequest("missing form field raw_content")
	}
	if err := s.renderer.Save(name, content); err != nil {
		return Result{}, err
	}
	return redirect(http.StatusSeeOther, render.PageURL(name)), nil
}

func (s *Server) handleMove(r *http.Request) (Result, error) {
	name, err := pathParam(r, "name")
	if err != nil {
		return Result{}, err
	}
	newName, ok, err := formValue(r, "new_name")
	if err != nil {
		return Result{}, err
	}
	newName = strings.TrimSpace(newName)
	if !ok || newName == "" {
		return Result{}, badRequest("missing form field new_name")
	}
	if err := s.renderer.Move(name, newName); err != nil {
		return Result{}, storageConflict(err)
	}
	return redirect(http.StatusSeeOther, render.PageURL(newName)), nil
}

func (s *Server) handleDelete(r *http.Request) (Result, error) {
	name, err := pathParam(r, "name")
	if err != nil {
		return Result{}, err
	}
	if err := s.renderer.Delete(name); err != nil {
		return Result{}, storageConflict(err)
	}
	return redirect(http.StatusSeeOther, "/p"), nil
}

func (s *Server) handleTags(r *http.Request) (Result, error) {
	body, err := s.renderer.TagAll()
	if err != nil {
		return Result{}, err
	}
	return htmlResult(body), nil
}

func (s *Server) handleTag(r *http.Request) (Result, error) {
	tag, err := pathParam(r, "tag")
	if err != nil {
		return Result{}, err
	}
	body, err := s.renderer.Tag(tag)
	if err != nil {
		return Result{}, err
	}
	return htmlResult(body), nil
}

func (s *Server) handleStatics(r *http.Request) (Result, error) {
	body, err := s.renderer.StaticAll()
	if err != nil {
		return Result{}, err
	}
	return htmlResult(body), nil
}

func (s *Server) handleStatic(r *http.Request) (Result, error) {
	name, err := pathParam(r, "name")
	if err != nil {
		return Result{}, err
	}
	body, contentType, err := s.renderer.Static(name)
	if err != nil {
		return Result{}, err
	}
	return Result{Status: http.StatusOK, ContentType: contentType, Body: body}, nil
}

func (s *Server) handleSearch(r *http.Request) (Result, error) {
	body, err := s.renderer.Search(strings.TrimSpace(r.URL.Query().Get("q")))
	if err != nil {
		return Result{}, err
	}
	return htmlResult(body), nil
}
