package server

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// mountUploads serves stored images when they live under a local URL path.
func (s *Server) mountUploads() {
	if s.opts.UploadsDir == "" || !strings.HasPrefix(s.opts.UploadsPath, "/") {
		return
	}
	s.engine.StaticFS(strings.TrimSuffix(s.opts.UploadsPath, "/"), gin.Dir(s.opts.UploadsDir, false))
}

// mountStatic serves the compiled frontend from the configured directory.
// Unknown API paths always get the JSON not found envelope.
func (s *Server) mountStatic() {
	indexPath := ""
	defer func() {
		s.engine.NoRoute(func(c *gin.Context) {
			if indexPath == "" || isAPIPath(c.Request.URL.Path) {
				s.respondError(c, errNotFound)
				return
			}
			c.File(indexPath)
		})
	}()

	if s.opts.StaticDir == "" {
		s.logger.Info("static directory not configured; API only mode")
		return
	}

	info, err := os.Stat(s.opts.StaticDir)
	if err != nil || !info.IsDir() {
		s.logger.Warn("static directory missing", "path", s.opts.StaticDir, "error", err)
		return
	}

	index := filepath.Join(s.opts.StaticDir, "index.html")
	if _, err := os.Stat(index); err != nil {
		s.logger.Warn("index.html not found", "path", index, "error", err)
	} else {
		indexPath = index
		s.engine.GET("/", func(c *gin.Context) {
			c.File(indexPath)
		})
	}

	assetsDir := filepath.Join(s.opts.StaticDir, "assets")
	if _, err := os.Stat(assetsDir); err == nil {
		s.engine.StaticFS("/assets", gin.Dir(assetsDir, true))
	}

	favicon := filepath.Join(s.opts.StaticDir, "favicon.ico")
	if _, err := os.Stat(favicon); err == nil {
		s.engine.StaticFile("/favicon.ico", favicon)
	}
}
