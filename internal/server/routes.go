package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/danmuck/hexrelay/internal/auth"
	"github.com/danmuck/hexrelay/internal/protocol"
	"github.com/danmuck/hexrelay/internal/protocol/frame"
	"github.com/danmuck/hexrelay/internal/relay"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultMaxBodyBytes int64 = 1 << 20

type splitRequest struct {
	Input string `json:"input"`
}

type extractRequest struct {
	Frame string `json:"frame" binding:"required"`
}

type convertRequest struct {
	Value       string `json:"value" binding:"required"`
	Source      string `json:"source" binding:"required"`
	Target      string `json:"target" binding:"required"`
	Endian      string `json:"endian"`
	BytePadding int    `json:"byte_padding"`
}

type hexToRequest struct {
	Format string `json:"format" binding:"required"`
	Hex    string `json:"hex" binding:"required"`
	Endian string `json:"endian"`
}

type ingestRequest struct {
	Topic   string `json:"topic"`
	Message string `json:"message" binding:"required"`
}

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.appeared).String(),
			"service": s.name,
			"version": Version,
		})
	})

	s.router.GET("/ready", func(c *gin.Context) {
		body := gin.H{
			"ready":       s.pipeline != nil,
			"subscribers": s.hub.Len(),
			"service":     s.name,
			"version":     Version,
		}
		if s.pipeline == nil {
			c.JSON(http.StatusServiceUnavailable, body)
			return
		}
		body["busy_workers"] = s.pipeline.Running()
		c.JSON(http.StatusOK, body)
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("/v1", s.limitBody())
	v1.POST("/frames/split", s.handleSplit)
	v1.POST("/frames/extract", s.handleExtract)
	v1.POST("/frames/decode", s.handleDecode)
	v1.POST("/convert", s.handleConvert)
	v1.POST("/hexto", s.handleHexTo)
	if s.ingestToken != "" {
		v1.POST("/ingest", auth.RequireBearer(auth.StaticToken{Token: s.ingestToken}), s.handleIngest)
	} else {
		v1.POST("/ingest", s.handleIngest)
	}
	v1.GET("/stream", gin.WrapH(s.hub.StreamServer(s.logger)))
}

func (s *Server) limitBody() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxBodyBytes)
		}
		c.Next()
	}
}

func (s *Server) handleSplit(c *gin.Context) {
	var req splitRequest
	if !bindJSON(c, &req) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"frames": frame.SplitPackets(req.Input)})
}

func (s *Server) handleExtract(c *gin.Context) {
	var req extractRequest
	if !bindJSON(c, &req) {
		return
	}
	seg, err := frame.ExtractHexSegments(req.Frame)
	if err != nil {
		codecError(c, err)
		return
	}
	c.JSON(http.StatusOK, seg)
}

func (s *Server) handleDecode(c *gin.Context) {
	var req splitRequest
	if !bindJSON(c, &req) {
		return
	}
	packets, errs := frame.DecodeStream(req.Input)
	failures := make([]string, 0, len(errs))
	for _, err := range errs {
		failures = append(failures, err.Error())
	}
	c.JSON(http.StatusOK, gin.H{"packets": packets, "errors": failures})
}

func (s *Server) handleConvert(c *gin.Context) {
	var req convertRequest
	if !bindJSON(c, &req) {
		return
	}
	source, err := protocol.ParseBase(req.Source)
	if err != nil {
		codecError(c, err)
		return
	}
	target, err := protocol.ParseBase(req.Target)
	if err != nil {
		codecError(c, err)
		return
	}
	endian, err := protocol.ParseEndian(req.Endian)
	if err != nil {
		codecError(c, err)
		return
	}
	out, err := protocol.ConvertBase(req.Value, source, target, protocol.ConvertOptions{
		Endian:      endian,
		BytePadding: req.BytePadding,
	})
	if err != nil {
		codecError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": out})
}

func (s *Server) handleHexTo(c *gin.Context) {
	var req hexToRequest
	if !bindJSON(c, &req) {
		return
	}
	format, err := protocol.ParseFormat(req.Format)
	if err != nil {
		codecError(c, err)
		return
	}
	endian, err := protocol.ParseEndian(req.Endian)
	if err != nil {
		codecError(c, err)
		return
	}
	v, err := protocol.HexTo(format, req.Hex, protocol.DecodeOptions{Endian: endian})
	if err != nil {
		codecError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"format": format, "value": jsonValue(v)})
}

func (s *Server) handleIngest(c *gin.Context) {
	var req ingestRequest
	if !bindJSON(c, &req) {
		return
	}
	if s.pipeline == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "relay pipeline not running"})
		return
	}
	msg := relay.Message{Topic: req.Topic, Payload: req.Message, ReceivedAt: time.Now().UTC()}
	if err := s.pipeline.Submit(c.Request.Context(), msg); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, relay.ErrPipelineClosed) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "queued"})
}

func bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": protocol.KindInvalidInput})
		return false
	}
	return true
}

func codecError(c *gin.Context, err error) {
	_ = c.Error(err)
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": protocol.KindOf(err)})
}

// jsonValue keeps byte arrays as number lists instead of base64.
func jsonValue(v protocol.Value) any {
	if v.Format != protocol.FormatArray {
		return v.Interface()
	}
	out := make([]int, len(v.Bytes))
	for i, b := range v.Bytes {
		out[i] = int(b)
	}
	return out
}
