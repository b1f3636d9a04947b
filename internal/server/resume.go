package server

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spigell/jobboard-assistant/internal/ai"
	"github.com/spigell/jobboard-assistant/internal/logger"
	"github.com/spigell/jobboard-assistant/internal/resumetext"
)

const (
	fileTooLarge = "file is too large"

	// multipartOverhead covers boundaries and part headers around the file.
	multipartOverhead = 64 << 10
)

// parseResumeFile extracts the text of an uploaded resume and parses it with the assistant.
func (s *Server) parseResumeFile(c *gin.Context) {
	log := logger.WithRequest(s.requestLogger(c), "", ai.FeatureParseResume)

	limit := s.cfg.MaxUploadBytes + multipartOverhead
	if c.Request.ContentLength > limit {
		fail(c, http.StatusRequestEntityTooLarge, fileTooLarge)
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)

	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(c, http.StatusRequestEntityTooLarge, fileTooLarge)
			return
		}
		log.Info("resume upload without file", zap.Error(err))
		fail(c, http.StatusBadRequest, invalidPayload)
		return
	}
	if header.Size > s.cfg.MaxUploadBytes {
		fail(c, http.StatusRequestEntityTooLarge, fileTooLarge)
		return
	}

	file, err := header.Open()
	if err != nil {
		log.Error("open uploaded resume", zap.Error(err))
		fail(c, http.StatusInternalServerError, genericFailure)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes))
	if err != nil {
		log.Error("read uploaded resume", zap.Error(err))
		fail(c, http.StatusInternalServerError, genericFailure)
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" || strings.HasPrefix(mimeType, "application/octet-stream") {
		mimeType = resumetext.DetectMIME(header.Filename, data)
	}

	text, err := resumetext.ExtractText(mimeType, data)
	if err != nil {
		var unsupported *resumetext.UnsupportedTypeError
		if errors.As(err, &unsupported) {
			fail(c, http.StatusUnsupportedMediaType, unsupported.Error())
			return
		}
		log.Info("resume text extraction failed", zap.String("mime", mimeType), zap.Error(err))
		fail(c, http.StatusBadRequest, "could not read resume file")
		return
	}
	if text == "" {
		fail(c, http.StatusBadRequest, "resume file contains no text")
		return
	}

	if s.assistant == nil {
		log.Error("action failed", zap.Error(ai.ErrNotConfigured))
		fail(c, http.StatusInternalServerError, genericFailure)
		return
	}

	resume, err := s.assistant.ParseResume(c.Request.Context(), text)
	if err != nil {
		log.Error("action failed", zap.Error(err))
		fail(c, http.StatusInternalServerError, genericFailure)
		return
	}

	succeed(c, resume)
}
