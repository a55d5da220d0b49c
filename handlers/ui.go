package handlers

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
)

// SPA serves a prebuilt frontend from dir. Unknown non-API paths fall back
// to index.html so client-side routes (/dashboard, /create, ...) resolve.
// Every request has already passed the gate by the time it lands here.
func SPA(dir string) gin.HandlerFunc {
	root := http.Dir(dir)
	files := http.FileServer(root)
	index := filepath.Join(dir, "index.html")

	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if strings.HasPrefix(p, "/api/") || (c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}

		if f, err := root.Open(path.Clean(p)); err == nil {
			stat, statErr := f.Stat()
			f.Close()
			if statErr == nil && !stat.IsDir() {
				files.ServeHTTP(c.Writer, c.Request)
				return
			}
		}

		if _, err := os.Stat(index); err != nil {
			c.String(http.StatusNotFound, "Not found")
			return
		}
		c.File(index)
	}
}
