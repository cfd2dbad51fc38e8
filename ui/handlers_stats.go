package ui

import (
	"net/http"

	"ga4dash/domain/stats"
	"ga4dash/internal/errors"

	"github.com/gin-gonic/gin"
)

type chiSquareRequest struct {
	Segments             []stats.SegmentOutcome `json:"segments" binding:"required,min=2"`
	ContinuityCorrection bool                   `json:"continuity_correction"`
	Alpha                float64                `json:"alpha"`
}

type wilsonQuery struct {
	Successes  *int    `form:"successes" binding:"required"`
	Total      *int    `form:"total" binding:"required"`
	Confidence float64 `form:"confidence"`
}

type cohensHQuery struct {
	P1 *float64 `form:"p1" binding:"required"`
	P2 *float64 `form:"p2" binding:"required"`
}

func (s *Server) handleChiSquare(c *gin.Context) {
	var req chiSquareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	alpha := req.Alpha
	if alpha == 0 {
		alpha = s.segments.Alpha()
	}
	if alpha < 0 || alpha >= 1 {
		s.respondError(c, errors.InvalidInput("alpha must be in (0, 1)"))
		return
	}

	var opts []stats.TestOption
	if req.ContinuityCorrection {
		opts = append(opts, stats.WithContinuityCorrection())
	}
	result, err := stats.IndependenceTest(req.Segments, opts...)
	if err != nil {
		s.respondError(c, err)
		return
	}

	resp := gin.H{
		"test":        result,
		"alpha":       alpha,
		"significant": result.Significant(alpha),
	}
	if len(req.Segments) == 2 {
		h, err := stats.CohensHForOutcomes(req.Segments[0], req.Segments[1])
		if err != nil {
			s.respondError(c, err)
			return
		}
		resp["cohens_h"] = h
		resp["effect"] = stats.ClassifyEffect(h)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleWilson(c *gin.Context) {
	var q wilsonQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	confidence := q.Confidence
	if confidence == 0 {
		confidence = s.segments.Confidence()
	}
	interval, err := stats.WilsonInterval(*q.Successes, *q.Total, confidence)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, interval)
}

func (s *Server) handleCohensH(c *gin.Context) {
	var q cohensHQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		s.respondError(c, errors.InvalidInput(err.Error()))
		return
	}
	h, err := stats.CohensH(*q.P1, *q.P2)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"h":      h,
		"effect": stats.ClassifyEffect(h),
	})
}
