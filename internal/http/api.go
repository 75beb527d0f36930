package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"rail-portal/internal/service"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users         service.UserService
	rail          service.RailService
	logger        logrus.FieldLogger
	allowedOrigin string
}

func NewHandler(users service.UserService, rail service.RailService, logger logrus.FieldLogger, allowedOrigin string) *Handler {
	return &Handler{
		users:         users,
		rail:          rail,
		logger:        logger,
		allowedOrigin: allowedOrigin,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(requestLogger(h.logger))
	router.Use(corsMiddleware(h.allowedOrigin))

	router.POST("/register", h.register)
	router.POST("/", h.login)
	router.GET("/fare", h.fare)
	router.GET("/pnr/:pnr", h.pnrStatus)
	router.GET("/health", h.health)
}

type registerRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	Nationality string `json:"nationality"`
	// Age arrives as a string or a number.
	Age    json.RawMessage `json:"age"`
	Mobile string          `json:"mobile"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	_, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		Username:    req.Username,
		Password:    req.Password,
		Email:       req.Email,
		Name:        req.Name,
		Nationality: req.Nationality,
		Age:         rawAge(req.Age),
		Mobile:      req.Mobile,
	})
	if err != nil {
		respondError(c, err, "Registration Failed")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Registration Successful"})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c)
		return
	}

	if _, err := h.users.Authenticate(c.Request.Context(), req.Username, req.Password); err != nil {
		respondError(c, err, "Login Failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Login Successful"})
}

func (h *Handler) fare(c *gin.Context) {
	fare, err := h.rail.FetchFare(c.Request.Context(), service.FareQuery{
		TrainNo:         c.Query("trainNo"),
		FromStationCode: c.Query("fromStationCode"),
		ToStationCode:   c.Query("toStationCode"),
	})
	if err != nil {
		respondError(c, err, "Failed to fetch fare details")
		return
	}

	c.JSON(http.StatusOK, gin.H{"fare": fare})
}

func (h *Handler) pnrStatus(c *gin.Context) {
	status, err := h.rail.FetchPNRStatus(c.Request.Context(), c.Param("pnr"))
	if err != nil {
		respondError(c, err, "Failed to fetch PNR status")
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *Handler) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.users.Ping(ctx); err != nil {
		requestLog(c).WithError(err).Warn("health check: store unreachable")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// rawAge turns the JSON age value into the text the service parses.
func rawAge(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if string(raw) == "null" {
		return ""
	}
	return string(raw)
}
