package handler

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tsldata/dataserver/internal/document"
	"github.com/tsldata/dataserver/internal/document/service"
	"github.com/tsldata/dataserver/pkg/logger"
)

// DefaultMaxBodyBytes bounds a single export body.
const DefaultMaxBodyBytes int64 = 32 << 20

const displayTime = "2006-01-02 15:04 UTC"

// Options tunes the export routes.
type Options struct {
	MaxBodyBytes int64
}

// RegisterDocumentRoutes wires the export write, read, listing and reset
// endpoints. Reads of stored files are served from the engine's NoRoute
// handler so that any path not claimed by another route resolves to a key.
func RegisterDocumentRoutes(r *gin.Engine, svc service.Service, opts Options) {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	h := &exportHandler{svc: svc, maxBody: opts.MaxBodyBytes}

	r.GET("/", h.home)
	r.GET("/status", h.status)
	r.POST("/clear", h.clear)

	r.GET("/export", h.ping)
	r.GET("/export/*path", h.ping)
	r.POST("/export", h.ingest)
	r.POST("/export/*path", h.ingest)

	r.NoRoute(h.serve)
}

type exportHandler struct {
	svc     service.Service
	maxBody int64
}

// ping answers the exporter's URL verification request.
func (h *exportHandler) ping(c *gin.Context) {
	n, err := h.svc.Count(c.Request.Context())
	if err != nil {
		h.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "online", "files": n})
}

func (h *exportHandler) ingest(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("payload exceeds %d bytes", tooLarge.Limit)})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": service.ErrInvalidPayload.Error()})
		return
	}

	key, err := h.svc.Ingest(c.Request.Context(), c.Param("path"), body)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPayload) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "saved", "file": key, "bytes": len(body)})
}

// serve returns a stored document verbatim.
func (h *exportHandler) serve(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	e, err := h.svc.Fetch(c.Request.Context(), c.Request.URL.Path)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			key := document.NormalizeKey(c.Request.URL.Path)
			c.JSON(http.StatusNotFound, gin.H{"error": key + " not found, re-run the export to populate it"})
			return
		}
		h.storageError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json", e.Body)
}

// home is the human-readable listing page.
func (h *exportHandler) home(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.storageError(c, err)
		return
	}
	var b strings.Builder
	b.WriteString("<h1>TSL Data Server Active</h1>")
	if len(list) == 0 {
		b.WriteString("<p>No files yet. Run <b>/export current</b> in the exporter to populate.</p>")
		b.WriteString("<p>The store is empty (server just restarted or no exports received).</p>")
	} else {
		fmt.Fprintf(&b, "<p>%d files in memory:</p><ul>", len(list))
		for _, s := range list {
			k := html.EscapeString(s.Key)
			fmt.Fprintf(&b, `<li><a href="/%s">%s</a> (%s)</li>`, k, k, s.UpdatedAt.UTC().Format(displayTime))
		}
		b.WriteString("</ul>")
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.String(http.StatusOK, b.String())
}

// status is the machine-readable listing.
func (h *exportHandler) status(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.storageError(c, err)
		return
	}
	files := make([]string, 0, len(list))
	updated := make(map[string]string, len(list))
	for _, s := range list {
		files = append(files, s.Key)
		updated[s.Key] = s.UpdatedAt.UTC().Format(time.RFC3339)
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       "online",
		"files_stored": len(files),
		"files":        files,
		"last_updated": updated,
	})
}

func (h *exportHandler) clear(c *gin.Context) {
	if err := h.svc.Clear(c.Request.Context()); err != nil {
		h.storageError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}

func (h *exportHandler) storageError(c *gin.Context, err error) {
	logger.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "storage unavailable"})
}
