// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务

package api

import (
	"errors"
	"net/http"
	"os"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mediaconv/internal/convert"
	"mediaconv/internal/ffmpeg"
	"mediaconv/internal/job"
)

// Handler holds dependencies
type Handler struct {
	store  job.Store
	ffmpeg ffmpeg.FFmpeg
}

// NewHandler creates API handler
func NewHandler(store job.Store, ff ffmpeg.FFmpeg) *Handler {
	return &Handler{store: store, ffmpeg: ff}
}

// Router builds the gin engine with all routes registered
func Router(h *Handler) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Recovery(), cors.Default())

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/formats", h.Formats)
		v1.GET("/skills", h.Skills)
		v1.POST("/skills/reload", h.ReloadSkills)

		v1.GET("/conversions", h.ListConversions)
		v1.POST("/conversions", h.AddConversion)
		v1.GET("/conversions/:id", h.GetConversion)
		v1.DELETE("/conversions/:id", h.DeleteConversion)
		v1.PUT("/conversions/:id/command", h.Command)
		v1.GET("/conversions/:id/events", h.Events)
	}

	return r
}

func errResp(c *gin.Context, code int, msg, detail string) {
	c.JSON(code, ErrorResponse{Code: code, Message: msg, Detail: detail})
}

// AddConversion POST /api/v1/conversions
func (h *Handler) AddConversion(c *gin.Context) {
	var req ConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	j, err := h.store.Add(convert.Request{
		Input:        req.Input,
		Output:       req.Output,
		Format:       req.Format,
		VideoBitrate: req.VideoBitrate,
		AudioBitrate: req.AudioBitrate,
		Resolution:   req.Resolution,
	})
	if err != nil {
		if errors.Is(err, convert.ErrUnsupportedFormat) {
			errResp(c, http.StatusBadRequest, "Unsupported format", err.Error())
			return
		}
		if errors.Is(err, job.ErrInvalidInputPath) || errors.Is(err, job.ErrInvalidOutputPath) {
			errResp(c, http.StatusBadRequest, "Invalid path", err.Error())
			return
		}
		errResp(c, http.StatusBadRequest, "Invalid request", err.Error())
		return
	}

	c.JSON(http.StatusCreated, jobToConversion(j, "state"))
}

// ListConversions GET /api/v1/conversions
func (h *Handler) ListConversions(c *gin.Context) {
	filter := c.DefaultQuery("filter", "")

	jobs := h.store.List()
	conversions := make([]Conversion, 0, len(jobs))
	for _, j := range jobs {
		conversions = append(conversions, jobToConversion(j, filter))
	}

	c.JSON(http.StatusOK, conversions)
}

// GetConversion GET /api/v1/conversions/:id
func (h *Handler) GetConversion(c *gin.Context) {
	id := c.Param("id")
	filter := c.DefaultQuery("filter", "")

	j, err := h.store.Get(id)
	if err != nil {
		errResp(c, http.StatusNotFound, "Unknown conversion ID", err.Error())
		return
	}

	c.JSON(http.StatusOK, jobToConversion(j, filter))
}

// DeleteConversion DELETE /api/v1/conversions/:id
func (h *Handler) DeleteConversion(c *gin.Context) {
	id := c.Param("id")

	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, job.ErrNotFound) {
			errResp(c, http.StatusNotFound, "Unknown conversion ID", err.Error())
			return
		}
		errResp(c, http.StatusConflict, "Delete failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, "OK")
}

// Command PUT /api/v1/conversions/:id/command
func (h *Handler) Command(c *gin.Context) {
	id := c.Param("id")

	var req CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errResp(c, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}

	var err error
	switch req.Command {
	case "cancel":
		err = h.store.Cancel(id)
	case "restart":
		err = h.store.Restart(id)
	default:
		errResp(c, http.StatusBadRequest, "Unknown command", "Known: cancel, restart")
		return
	}

	if err != nil {
		if errors.Is(err, job.ErrNotFound) {
			errResp(c, http.StatusNotFound, "Unknown conversion ID", err.Error())
			return
		}
		errResp(c, http.StatusConflict, "Command failed", err.Error())
		return
	}

	c.JSON(http.StatusOK, "OK")
}

// Formats GET /api/v1/formats
func (h *Handler) Formats(c *gin.Context) {
	c.JSON(http.StatusOK, FormatsResponse{
		Video: convert.VideoFormats,
		Audio: convert.AudioFormats,
		Options: FormatOptions{
			VideoBitrates: convert.VideoBitrates,
			AudioBitrates: convert.AudioBitrates,
			Resolutions:   convert.Resolutions,
		},
		Defaults: FormatDefaults{
			VideoBitrate: convert.DefaultVideoBitrate,
			AudioBitrate: convert.DefaultAudioBitrate,
			Resolution:   convert.DefaultResolution,
		},
	})
}

// Skills GET /api/v1/skills
func (h *Handler) Skills(c *gin.Context) {
	c.JSON(http.StatusOK, skillsToAPI(h.ffmpeg.Skills()))
}

// ReloadSkills POST /api/v1/skills/reload
func (h *Handler) ReloadSkills(c *gin.Context) {
	if err := h.ffmpeg.ReloadSkills(); err != nil {
		errResp(c, http.StatusInternalServerError, "Reload failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, skillsToAPI(h.ffmpeg.Skills()))
}

// Healthz GET /healthz
func (h *Handler) Healthz(c *gin.Context) {
	if _, err := os.Stat(h.ffmpeg.Binary()); err != nil {
		errResp(c, http.StatusServiceUnavailable, "FFmpeg binary missing", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func jobToConversion(j *job.Job, filter string) Conversion {
	conv := Conversion{
		ID:         j.ID,
		Request:    j.Request,
		CreatedAt:  j.CreatedAt,
		FinishedAt: j.FinishedAt(),
	}

	includeAll := filter == ""
	includeState := includeAll || strings.Contains(filter, "state")
	includeReport := includeAll || strings.Contains(filter, "report")

	if includeState {
		status := j.Status()
		conv.State = &ConversionState{
			State:    j.State(),
			Progress: j.Progress(),
			Outcome:  j.Outcome(),
			Runtime:  int64(status.Duration.Seconds()),
			Memory:   status.Memory,
			CPU:      status.CPU,
		}
	}

	if includeReport {
		lines := j.Log()
		report := ConversionReport{Log: make([][2]string, len(lines))}
		for i, line := range lines {
			report.Log[i] = [2]string{
				line.Timestamp.Format("2006-01-02 15:04:05.000"),
				line.Data,
			}
		}
		conv.Report = &report
	}

	return conv
}
