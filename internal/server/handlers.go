package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cleared-dev/stmt2tally/internal/session"
	"github.com/cleared-dev/stmt2tally/internal/tally"
)

// sessionStore resolves the caller's store and refreshes the cookie.
func (s *Server) sessionStore(c *gin.Context) *session.Store {
	id, _ := c.Cookie(SessionCookie)
	id, store := s.sessions.Get(id)
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookie, id, 0, "/", "", false, true)
	return store
}

func (s *Server) uploadStatement(c *gin.Context) {
	if s.opts.MaxUploadBytes > 0 {
		if c.Request.ContentLength > s.opts.MaxUploadBytes {
			s.rejectTooLarge(c)
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.opts.MaxUploadBytes)
	}

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.rejectTooLarge(c)
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field \"file\" is required"})
		return
	}

	layout := c.DefaultPostForm("layout", s.opts.Layout)
	store := s.sessionStore(c)
	gen, ctx := store.Begin(c.Request.Context())

	f, err := file.Open()
	if err != nil {
		store.Abort(gen)
		s.metrics.uploads.WithLabelValues(resultFailed).Inc()
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read upload"})
		return
	}
	defer f.Close()

	parsed, err := s.svc.Parse(ctx, file.Filename, f, file.Size, layout)
	if err != nil {
		store.Abort(gen)
		if errors.Is(err, context.Canceled) && c.Request.Context().Err() == nil {
			s.metrics.uploads.WithLabelValues(resultStale).Inc()
			c.JSON(http.StatusConflict, gin.H{"error": session.ErrStale.Error()})
			return
		}
		s.metrics.uploads.WithLabelValues(resultFailed).Inc()
		s.log.WithError(err).WithField("source", file.Filename).Warn("upload failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}

	stmt, err := store.Commit(gen, file.Filename, parsed.TextBytes, parsed.Transactions)
	if err != nil {
		s.metrics.uploads.WithLabelValues(resultStale).Inc()
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}

	s.metrics.uploads.WithLabelValues(resultOK).Inc()
	s.metrics.transactions.Add(float64(len(stmt.Transactions)))
	c.JSON(http.StatusOK, stmt)
}

func (s *Server) rejectTooLarge(c *gin.Context) {
	s.metrics.uploads.WithLabelValues(resultFailed).Inc()
	c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "statement exceeds upload limit"})
}

func (s *Server) currentStatement(c *gin.Context) {
	stmt := s.sessionStore(c).Current()
	if stmt == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no statement uploaded"})
		return
	}
	c.JSON(http.StatusOK, stmt)
}

type voucherRequest struct {
	BankLedger   string `form:"bank_ledger" json:"bank_ledger"`
	ContraLedger string `form:"contra_ledger" json:"contra_ledger"`
}

func (s *Server) generateVouchers(c *gin.Context) {
	var req voucherRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	opts := s.opts.Tally
	if req.BankLedger != "" {
		opts.BankLedger = req.BankLedger
	}
	if req.ContraLedger != "" {
		opts.ContraLedger = req.ContraLedger
	}

	stmt := s.sessionStore(c).Current()
	if stmt.Empty() {
		c.Status(http.StatusNoContent)
		return
	}

	data, err := s.svc.Export(stmt.Transactions, opts, s.opts.Format)
	if err != nil {
		s.log.WithError(err).Error("export failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate vouchers"})
		return
	}

	s.metrics.vouchers.Add(float64(len(stmt.Transactions)))
	c.Header("Content-Disposition", `attachment; filename="`+tally.FileName+`"`)
	c.Data(http.StatusOK, tally.ContentType, data)
}
