package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/ivanoskov/budget_bot/internal/metrics"
	"github.com/ivanoskov/budget_bot/internal/service"
	"github.com/ivanoskov/budget_bot/internal/twilio"
)

const WhatsAppPath = "/webhook/whatsapp"

// HTTPServer - HTTP-сервер вебхуков
type HTTPServer struct {
	engine        *gin.Engine
	whatsapp      *WhatsApp
	validator     *twilio.Validator
	publicBaseURL string
	logger        *zap.Logger
}

// NewHTTPServer создает сервер. validator == nil отключает проверку подписи.
func NewHTTPServer(whatsapp *WhatsApp, validator *twilio.Validator, publicBaseURL string, logger *zap.Logger) *HTTPServer {
	gin.SetMode(gin.ReleaseMode)

	s := &HTTPServer{
		engine:        gin.New(),
		whatsapp:      whatsapp,
		validator:     validator,
		publicBaseURL: publicBaseURL,
		logger:        logger,
	}

	s.engine.Use(gin.Recovery())
	s.engine.Use(s.requestLogger())

	s.engine.GET("/healthz", s.health)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	s.engine.POST(WhatsAppPath, s.handleWhatsApp)

	return s
}

// Engine возвращает gin.Engine для http.Server
func (s *HTTPServer) Engine() *gin.Engine {
	return s.engine
}

func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()
		metrics.RequestDuration.WithLabelValues(c.FullPath(), strconv.Itoa(status)).Observe(latency.Seconds())

		s.logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", latency),
		)
	}
}

func (s *HTTPServer) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *HTTPServer) handleWhatsApp(c *gin.Context) {
	if err := c.Request.ParseForm(); err != nil {
		c.String(http.StatusBadRequest, "invalid form")
		return
	}
	form := c.Request.PostForm

	if s.validator != nil {
		fullURL := s.publicBaseURL + c.Request.URL.RequestURI()
		if err := s.validator.Validate(fullURL, form, c.GetHeader("X-Twilio-Signature")); err != nil {
			s.logger.Warn("rejected webhook", zap.String("remote", c.ClientIP()), zap.Error(err))
			c.AbortWithStatus(http.StatusForbidden)
			return
		}
	}

	msg, err := twilio.ParseForm(form)
	if err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	s.writeTwiML(c, s.whatsapp.Process(c.Request.Context(), msg))
}

func (s *HTTPServer) writeTwiML(c *gin.Context, text string) {
	doc, err := twilio.Reply(text)
	if err != nil {
		s.logger.Error("failed to build reply", zap.Error(err))
		doc, _ = twilio.Reply(service.FailureReply)
	}
	c.Data(http.StatusOK, "text/xml; charset=utf-8", []byte(doc))
}
