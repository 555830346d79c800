// fixture implements the HTTP file server the smoke test is run against.
//
// SPDX-License-Identifier: MIT
// Copyright (c) 2019 Hadrien Chauvin
package fixture

import (
	"compress/gzip"
	"context"
	"fmt"
	"github.com/google/uuid"
	"github.com/hchauvin/smoke/pkg/log"
	"github.com/julienschmidt/httprouter"
	"github.com/spf13/afero"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"
	"io/ioutil"
	"net"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const logDomain = "fixture"

// Server serves and stores files under a root folder.
type Server struct {
	fs     afero.Fs
	root   string
	logger *log.Logger
	router *httprouter.Router
	hits   *atomic.Int64
}

// New creates a fixture server for the files in root.
func New(fs afero.Fs, root string, logger *log.Logger) *Server {
	s := &Server{
		fs:     fs,
		root:   filepath.Clean(root),
		logger: logger,
		router: httprouter.New(),
		hits:   atomic.NewInt64(0),
	}
	s.router.GET("/", s.handleRoot)
	s.router.GET("/echo/*msg", s.handleEcho)
	s.router.GET("/user-agent", s.handleUserAgent)
	s.router.GET("/files/*name", s.handleGetFile)
	s.router.POST("/files/*name", s.handlePostFile)
	s.router.NotFound = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	s.router.MethodNotAllowed = s.router.NotFound
	return s
}

// Hits gives the number of requests served so far.
func (s *Server) Hits() int64 {
	return s.hits.Load()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.hits.Inc()
	s.logger.Info(logDomain, "%s %s", r.Method, r.URL.Path)
	s.router.ServeHTTP(w, r)
}

// Serve listens on addr until the context is canceled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.ServeListener(ctx, listener)
}

// ServeListener does the same as Serve on an existing listener.  The
// listener is closed on return.
func (s *Server) ServeListener(ctx context.Context, listener net.Listener) error {
	srv := &http.Server{Handler: s}

	s.logger.Info(logDomain, "serving '%s' on %s", s.root, listener.Addr())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(listener); err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
}

func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	msg := strings.TrimPrefix(p.ByName("msg"), "/")
	w.Header().Set("Content-Type", "text/plain")
	if !acceptsGzip(r) {
		writeBody(w, []byte(msg))
		return
	}

	w.Header().Set("Content-Encoding", "gzip")
	gz := gzip.NewWriter(w)
	if _, err := gz.Write([]byte(msg)); err != nil {
		s.logger.Error(logDomain, "cannot compress echo: %v", err)
		return
	}
	if err := gz.Close(); err != nil {
		s.logger.Error(logDomain, "cannot compress echo: %v", err)
	}
}

func (s *Server) handleUserAgent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	userAgent := r.Header.Get("User-Agent")
	if userAgent == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.Header().Set("Content-Type", "text/plain")
	writeBody(w, []byte(userAgent))
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	filePath, ok := s.resolve(p.ByName("name"))
	if !ok {
		s.logger.Warning(logDomain, "rejected path '%s'", p.ByName("name"))
		w.WriteHeader(http.StatusNotFound)
		return
	}

	info, err := s.fs.Stat(filePath)
	if err != nil || info.IsDir() {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	b, err := afero.ReadFile(s.fs, filePath)
	if err != nil {
		s.logger.Error(logDomain, "cannot read '%s': %v", filePath, err)
		w.WriteHeader(http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	writeBody(w, b)
}

func (s *Server) handlePostFile(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	filePath, ok := s.resolve(p.ByName("name"))
	if !ok {
		s.logger.Warning(logDomain, "rejected path '%s'", p.ByName("name"))
		w.WriteHeader(http.StatusNotFound)
		return
	}

	b, err := ioutil.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if err := s.save(filePath, b); err != nil {
		s.logger.Error(logDomain, "cannot save '%s': %v", filePath, err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusCreated)
}

// resolve gives the path of a file under the root, and false if the
// name would escape the root.
func (s *Server) resolve(name string) (string, bool) {
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return "", false
	}
	filePath := filepath.Join(s.root, filepath.FromSlash(name))
	rel, err := filepath.Rel(s.root, filePath)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", false
	}
	return filePath, true
}

// save writes a file atomically.
func (s *Server) save(filePath string, b []byte) error {
	if err := s.fs.MkdirAll(filepath.Dir(filePath), 0777); err != nil {
		return err
	}
	tmp := filepath.Join(filepath.Dir(filePath), fmt.Sprintf(".%s.%s.tmp", filepath.Base(filePath), uuid.New()))
	if err := afero.WriteFile(s.fs, tmp, b, 0666); err != nil {
		return err
	}
	if err := s.fs.Rename(tmp, filePath); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	return nil
}

func acceptsGzip(r *http.Request) bool {
	for _, header := range r.Header["Accept-Encoding"] {
		for _, scheme := range strings.Split(header, ",") {
			if strings.TrimSpace(scheme) == "gzip" {
				return true
			}
		}
	}
	return false
}

func writeBody(w http.ResponseWriter, b []byte) {
	w.Header().Set("Content-Length", strconv.Itoa(len(b)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(b)
}
