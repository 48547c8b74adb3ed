package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/kyunghoon/twasm/pkg/loader"
	"github.com/kyunghoon/twasm/pkg/transform"
	"github.com/kyunghoon/twasm/pkg/transpiler"
	"github.com/kyunghoon/twasm/pkg/util"
	"go.uber.org/zap"
)

type transpileRequest struct {
	Filename   string `json:"filename"`
	Source     string `json:"source"`
	Format     string `json:"format,omitempty"`
	GlobalName string `json:"global_name,omitempty"`
	NoInterop  *bool  `json:"no_interop,omitempty"`
}

type transpileResponse struct {
	Filename string `json:"filename"`
	Code     string `json:"code"`
	Key      uint64 `json:"key"`
}

func (s *Server) configureRoutes() {
	s.mux.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqId := uuid.NewString()
			w.Header().Set("X-Request-Id", reqId)
			for k, v := range s.conf.Server.GlobalHeaders {
				w.Header().Set(k, v)
			}
			start := time.Now()
			next.ServeHTTP(w, r)
			s.logger.Debug("request",
				zap.String("request_id", reqId),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Duration("elapsed", time.Since(start)),
			)
		})
	})

	s.mux.Route("/api/v1", func(api chi.Router) {
		api.Post("/transpile", s.handleTranspile)
		api.Get("/health", s.handleHealth)
	})

	s.mux.Get("/load/*", s.handleLoad)
	s.mux.Get("/prelude.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/javascript")
		w.Write([]byte(loader.Prelude))
	})

	if s.metricsHandler != nil && !s.conf.DisableMetrics {
		s.mux.Handle("/metrics", s.metricsHandler)
	}
}

func (s *Server) handleTranspile(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	var req transpileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		util.JsonError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Filename == "" || req.Source == "" {
		util.JsonError(w, http.StatusBadRequest, "filename and source are required")
		return
	}

	formatName := req.Format
	if formatName == "" {
		formatName = s.conf.Transform.Format
	}
	format, err := parseFormat(formatName)
	if err != nil {
		util.JsonError(w, http.StatusBadRequest, err.Error())
		return
	}

	noInterop := s.conf.Transform.NoInterop
	if req.NoInterop != nil {
		noInterop = *req.NoInterop
	}

	result, err := transpiler.Transpile(req.Filename, req.Source, transpiler.Options{
		Format:     format,
		GlobalName: s.globalName(req.GlobalName, req.Filename),
		NoInterop:  noInterop,
		Logger:     s.logger,
	})
	s.metrics.MeasureTranspile(r.Context(), req.Filename, formatName, start, err)
	if err != nil {
		writeTranspileError(w, err)
		return
	}

	key := loader.NextKey()
	code := result.Code
	if format == transform.FormatAMD {
		if code, err = loader.WrapDefine(key, code); err != nil {
			util.JsonError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}
	util.JsonResponse(w, http.StatusOK, transpileResponse{
		Filename: jsFilename(req.Filename),
		Code:     code,
		Key:      key,
	})
}

func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rel := path.Clean(chi.URLParam(r, "*"))
	if rel == "." || strings.HasPrefix(rel, "..") || path.IsAbs(rel) {
		util.JsonError(w, http.StatusBadRequest, "invalid module path")
		return
	}

	full := filepath.Join(s.conf.Server.SourceRoot, filepath.FromSlash(rel))
	source, err := os.ReadFile(full)
	if err != nil {
		util.JsonError(w, http.StatusNotFound, "module not found: "+rel)
		return
	}

	etag := `"` + util.ContentHash(rel, string(source), s.conf.Transform.Format) + `"`
	if r.Header.Get("If-None-Match") == etag {
		s.metrics.MeasureLoad(r.Context(), rel, true, start, nil)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	unlock := s.loadLock.Lock(etag)
	defer unlock()

	cacheHit := false
	var code string
	if s.loadCache != nil {
		code, cacheHit = s.loadCache.Get(etag)
	}
	if !cacheHit {
		result, err := transpiler.Transpile(path.Base(rel), string(source), transpiler.Options{
			Format:     transform.FormatUMD,
			GlobalName: s.globalName("", rel),
			NoInterop:  s.conf.Transform.NoInterop,
			Logger:     s.logger,
		})
		s.metrics.MeasureLoad(r.Context(), rel, false, start, err)
		if err != nil {
			writeTranspileError(w, err)
			return
		}
		code = result.Code
		if s.loadCache != nil {
			s.loadCache.Set(etag, code)
		}
	} else {
		s.metrics.MeasureLoad(r.Context(), rel, true, start, nil)
	}

	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("ETag", etag)
	w.Write([]byte(code))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok","version":"` + s.conf.Version + `"}`))
}

func (s *Server) globalName(explicit, filename string) string {
	if explicit != "" {
		return explicit
	}
	if prefix := s.conf.Transform.GlobalNamePrefix; prefix != "" {
		base := path.Base(filename)
		if ext := path.Ext(base); ext != "" {
			base = strings.TrimSuffix(base, ext)
		}
		clean := strings.Map(func(r rune) rune {
			if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' ||
				r >= '0' && r <= '9' || r == '_' || r == '$' {
				return r
			}
			return '_'
		}, base)
		return prefix + "_" + clean
	}
	return ""
}

func parseFormat(name string) (transform.Format, error) {
	switch name {
	case "umd", "":
		return transform.FormatUMD, nil
	case "amd":
		return transform.FormatAMD, nil
	default:
		return 0, errors.New("invalid format: " + name)
	}
}

func jsFilename(filename string) string {
	if ext := path.Ext(filename); ext == ".ts" || ext == ".mts" {
		return strings.TrimSuffix(filename, ext) + ".js"
	}
	return filename
}

func writeTranspileError(w http.ResponseWriter, err error) {
	var terr *transpiler.Error
	if !errors.As(err, &terr) {
		util.JsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	status := http.StatusBadRequest
	if terr.Kind == transpiler.KindInternal {
		status = http.StatusInternalServerError
	}
	util.JsonErrorWith(w, status, terr.Kind.String()+" error", terr.Diagnostics)
}
