package httpapi

import (
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	guide2pdf "github.com/alnah/go-guide2pdf"
	"github.com/alnah/go-guide2pdf/internal/logger"
)

type handler struct {
	asm    Assembler
	health Pinger
	log    *logger.Logger
}

// errorBody is the JSON body of every failed request.
type errorBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func respondError(c *gin.Context, status int, err error) {
	c.AbortWithStatusJSON(status, errorBody{OK: false, Error: err.Error()})
}

func (h *handler) assemble(c *gin.Context) {
	var body assembleRequest
	if err := c.ShouldBind(&body); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusRequestEntityTooLarge, fmt.Errorf("%w: body exceeds %d bytes", guide2pdf.ErrClientInput, tooLarge.Limit))
			return
		}
		respondError(c, http.StatusBadRequest, fmt.Errorf("%w: %v", guide2pdf.ErrClientInput, err))
		return
	}

	req, err := body.toRequest(c.GetHeader("Cookie"))
	if err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}

	doc, err := h.asm.Assemble(c.Request.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		if guide2pdf.IsClientError(err) {
			status = http.StatusBadRequest
		}
		respondError(c, status, err)
		return
	}
	defer func() {
		if err := doc.Remove(); err != nil {
			h.log.Warn("final document cleanup failed", "path", doc.Path, "error", err)
		}
	}()

	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": doc.Filename}))
	c.Header("Content-Type", "application/pdf")
	c.File(doc.Path)
}

// headerFooter serves the HTML shell of a page header or footer.
func (h *handler) headerFooter(c *gin.Context) {
	page, _ := strconv.Atoi(c.Query("page"))
	hide := c.Query("hideOnFirstPage") == "true"
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(guide2pdf.HeaderFooterDocument(c.Query("content"), page, hide)))
}

func (h *handler) healthz(c *gin.Context) {
	if h.health != nil {
		if err := h.health.Ping(c.Request.Context()); err != nil {
			h.log.Warn("health check failed", "error", err)
			respondError(c, http.StatusServiceUnavailable, err)
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
