// Package browse serves the derivatives stored in the object store, read only.
package browse

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/lewtec/imgvariant/internal/domain"
	"github.com/lewtec/imgvariant/internal/sink"
)

type Server struct {
	Client sink.ObjectClient
	Bucket string
	Logger zerolog.Logger
}

// Response is the JSON envelope of the listing endpoints.
type Response struct {
	Status string   `json:"status"`
	Data   []string `json:"data"`
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer, HTTPLogger(s.Logger))

	r.Get("/s3/get/*", s.get)
	r.Get("/s3/list/*", s.listObjects)
	r.Get("/s3/index/*", s.listPrefixes)
	r.Get("/", s.browse)
	r.Get("/browse/*", s.browse)
	return r
}

func statusLine(code int) string {
	return fmt.Sprintf("%d %s", code, http.StatusText(code))
}

func (s *Server) json(w http.ResponseWriter, code int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "*")
	data, obj, err := s.Client.GetObject(r.Context(), s.Bucket, key)
	if err != nil {
		code := http.StatusBadGateway
		if errors.Is(err, domain.ErrNotFound) {
			code = http.StatusNotFound
		} else {
			s.Logger.Warn().Err(err).Str("key", key).Msg("object read failed")
		}
		w.WriteHeader(code)
		return
	}
	if obj.ContentType != "" {
		w.Header().Set("Content-Type", obj.ContentType)
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

// list returns the direct children of the prefix named by the wildcard.
func (s *Server) list(r *http.Request, prefixes bool) ([]string, error) {
	prefix := strings.Trim(chi.URLParam(r, "*"), "/")
	if prefix != "" {
		prefix += "/"
	}
	objs, err := s.Client.List(r.Context(), s.Bucket, prefix, false)
	if err != nil {
		return nil, err
	}
	ret := []string{}
	for _, o := range objs {
		if o.IsPrefix == prefixes {
			ret = append(ret, o.Key)
		}
	}
	return ret, nil
}

func (s *Server) listObjects(w http.ResponseWriter, r *http.Request) {
	s.listing(w, r, false)
}

func (s *Server) listPrefixes(w http.ResponseWriter, r *http.Request) {
	s.listing(w, r, true)
}

func (s *Server) listing(w http.ResponseWriter, r *http.Request, prefixes bool) {
	keys, err := s.list(r, prefixes)
	if err != nil {
		code := http.StatusInternalServerError
		s.json(w, code, Response{Status: fmt.Sprintf("%s (%v)", statusLine(code), err), Data: []string{}})
		return
	}
	s.json(w, http.StatusOK, Response{Status: statusLine(http.StatusOK), Data: keys})
}

func escapedPath(p string) string {
	return (&url.URL{Path: p}).EscapedPath()
}

// browse renders one level of the bucket as an HTML page.
func (s *Server) browse(w http.ResponseWriter, r *http.Request) {
	dirs, err := s.list(r, true)
	if err == nil {
		var files []string
		files, err = s.list(r, false)
		if err == nil {
			s.renderListing(w, strings.Trim(chi.URLParam(r, "*"), "/"), dirs, files)
			return
		}
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusInternalServerError)
	if err := templateManager.Render(w, "error.html", ErrorPage{Title: "Error", Error: err.Error()}); err != nil {
		s.Logger.Error().Err(err).Msg("template failed")
	}
}

func (s *Server) renderListing(w http.ResponseWriter, current string, dirs, files []string) {
	page := ListingPage{Title: s.Bucket}
	if current != "" {
		page.Title = current
		page.Parent = "/"
		if parent := path.Dir(current); parent != "." {
			page.Parent = escapedPath("/browse/" + parent)
		}
	}

	var markdownBuilder strings.Builder
	if len(dirs) == 0 && len(files) == 0 {
		fmt.Fprintf(&markdownBuilder, "*Nothing stored here yet.*\n")
	}
	if len(dirs) > 0 {
		fmt.Fprintf(&markdownBuilder, "## Directories\n\n")
		for _, d := range dirs {
			d = strings.TrimSuffix(d, "/")
			fmt.Fprintf(&markdownBuilder, "- [%s](%s)\n", markdownText(path.Base(d)), escapedPath("/browse/"+d))
		}
		fmt.Fprintf(&markdownBuilder, "\n")
	}
	if len(files) > 0 {
		fmt.Fprintf(&markdownBuilder, "## Files\n\n")
		for _, f := range files {
			link := escapedPath("/s3/get/" + f)
			name := markdownText(path.Base(f))
			switch strings.ToLower(path.Ext(f)) {
			case ".png", ".jpeg", ".jpg":
				fmt.Fprintf(&markdownBuilder, "- [![%s](%s)](%s) %s\n", name, link, link, name)
			default:
				fmt.Fprintf(&markdownBuilder, "- [%s](%s)\n", name, link)
			}
		}
	}
	page.Content = markdownBuilder.String()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templateManager.Render(w, "listing.html", page); err != nil {
		s.Logger.Error().Err(err).Msg("template failed")
	}
}
