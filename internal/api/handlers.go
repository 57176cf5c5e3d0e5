package api

import (
	"errors"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/youruser/idcardapp/internal/batch"
	imagepkg "github.com/youruser/idcardapp/internal/image"
	"github.com/youruser/idcardapp/internal/locator"
	"github.com/youruser/idcardapp/internal/roster"
)

// Handlers serves previews through the same driver the batch uses.
type Handlers struct {
	Driver *batch.Driver
}

// health
func health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// qr returns the code PNG for the identity in the query string
func (h *Handlers) qr(c *gin.Context) {
	p := roster.Participant{
		ID:    strings.TrimSpace(c.Query("id")),
		Name:  strings.TrimSpace(c.Query("name")),
		Email: strings.TrimSpace(c.Query("email")),
	}
	if p.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id is required"})
		return
	}
	style := h.Driver.Style
	if v := c.Query("transparent"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			style.Transparent = b
		}
	}

	text, err := imagepkg.PayloadFor(p).Encode()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	b, err := imagepkg.GenerateQRPNG(text, style)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, imagepkg.ErrPayloadTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.Data(http.StatusOK, "image/png", b)
}

// card composes one participant's card and returns the PDF
func (h *Handlers) card(c *gin.Context) {
	var p roster.Participant
	if err := c.BindJSON(&p); err != nil {
		return
	}
	p.ID, p.Email, p.Name, p.Country = strings.TrimSpace(p.ID), strings.TrimSpace(p.Email), strings.TrimSpace(p.Name), strings.TrimSpace(p.Country)
	if p.ID == "" || p.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "participantId and name are required"})
		return
	}

	dir, err := os.MkdirTemp(h.Driver.TempDir, "card-*")
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer os.RemoveAll(dir)

	d := *h.Driver
	d.OutputDir = dir
	o := d.ProcessRow(roster.Row{Participant: p})
	for _, w := range o.Warnings {
		log.Printf("warning %s: %s", p.ID, w)
		c.Writer.Header().Add("X-Card-Warning", w)
	}
	if o.Err != nil {
		c.JSON(statusFor(o.Err), gin.H{"error": o.Err.Error()})
		return
	}

	b, err := os.ReadFile(o.Output)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filepath.Base(o.Output)+`"`)
	c.Data(http.StatusOK, "application/pdf", b)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, locator.ErrTemplateNotFound):
		return http.StatusNotFound
	case errors.Is(err, locator.ErrAmbiguousTemplate):
		return http.StatusConflict
	case errors.Is(err, imagepkg.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}
