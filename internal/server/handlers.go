package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/spf13/afero"

	"github.com/wesleyorama2/htmlbench/internal/catalog"
	"github.com/wesleyorama2/htmlbench/internal/common"
	"github.com/wesleyorama2/htmlbench/internal/util"
)

// Endpoints is the route list advertised by /api/status and the 404 body.
var Endpoints = []string{"/", "/api/html/<size>", "/api/info", "/api/status"}

type errorBody struct {
	Error              string   `json:"error"`
	ValidSizes         []string `json:"valid_sizes,omitempty"`
	RequestedFile      string   `json:"requested_file,omitempty"`
	AvailableEndpoints []string `json:"available_endpoints,omitempty"`
}

type infoBody struct {
	catalog.Inventory
	ServerTime string `json:"server_time"`
}

type statusBody struct {
	Status    string   `json:"status"`
	Server    string   `json:"server"`
	Timestamp string   `json:"timestamp"`
	Endpoints []string `json:"endpoints"`
	Sizes     []string `json:"sizes"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) homeHandler() http.HandlerFunc {
	log := s.log.With(slog.String("handler", "HomeHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		data := homeData{
			Sizes:      catalog.All(),
			Usage:      s.usage,
			ServerTime: s.now().Format(util.DisplayLayout),
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := homeTemplate.Execute(w, data); err != nil {
			log.Error("Cannot render page", slog.Any("error", err))
		}
	}
}

func (s *Server) htmlHandler() http.HandlerFunc {
	log := s.log.With(slog.String("handler", "HTMLHandler"))

	return func(w http.ResponseWriter, r *http.Request) {
		key := mux.Vars(r)["size"]

		size, ok := catalog.Lookup(key)
		if !ok {
			writeJSON(w, http.StatusBadRequest, errorBody{
				Error:      "Invalid size",
				ValidSizes: catalog.Keys(),
			})
			return
		}

		f, fi, err := s.open(size)
		if err != nil {
			if errors.Is(err, common.ErrFileNotFound) {
				writeJSON(w, http.StatusNotFound, errorBody{
					Error:         "File not found",
					RequestedFile: size.Filename,
				})
				return
			}
			log.Error("Cannot open file", slog.String("filename", size.Filename), slog.Any("error", err))
			writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Server error"})
			return
		}
		defer f.Close()

		log.Info("Serving file", slog.String("filename", size.Filename), slog.String("size", size.Key))

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", size.Filename))
		http.ServeContent(w, r, size.Filename, fi.ModTime(), f)

		s.metrics.filesServed.WithLabelValues(size.Key).Inc()
		s.metrics.bytesServed.WithLabelValues(size.Key).Add(float64(fi.Size()))
	}
}

func (s *Server) infoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, infoBody{
			Inventory:  catalog.TakeInventory(s.fs, s.cfg.HTMLDir),
			ServerTime: util.ISOTime(s.now()),
		})
	}
}

func (s *Server) statusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, statusBody{
			Status:    "ok",
			Server:    "HTML File Server",
			Timestamp: util.ISOTime(s.now()),
			Endpoints: Endpoints,
			Sizes:     catalog.Keys(),
		})
	}
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, errorBody{
		Error:              "Not found",
		AvailableEndpoints: Endpoints,
	})
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "Method not allowed"})
}

// open stats and opens the file backing size. The file may vanish between
// the two calls; that case is also reported as ErrFileNotFound.
func (s *Server) open(size catalog.Size) (afero.File, os.FileInfo, error) {
	fi, err := catalog.Stat(s.fs, s.cfg.HTMLDir, size)
	if err != nil {
		return nil, nil, err
	}

	f, err := s.fs.Open(catalog.Path(s.cfg.HTMLDir, size))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", common.ErrFileNotFound, size.Filename)
		}
		return nil, nil, fmt.Errorf("cannot open %s: %w", size.Filename, err)
	}
	return f, fi, nil
}
