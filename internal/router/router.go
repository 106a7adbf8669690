package router

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"

	"github.com/procexaiedu/practice-scheduler/internal/handler/appointment"
	"github.com/procexaiedu/practice-scheduler/internal/handler/availability"
	"github.com/procexaiedu/practice-scheduler/internal/handler/booking"
	"github.com/procexaiedu/practice-scheduler/internal/handler/clinic"
	"github.com/procexaiedu/practice-scheduler/internal/handler/health"
	"github.com/procexaiedu/practice-scheduler/internal/handler/hours"
	"github.com/procexaiedu/practice-scheduler/internal/handler/professional"
	"github.com/procexaiedu/practice-scheduler/internal/middleware"
)

type Config struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORSConfig       middleware.CORSConfig
	AvailabilityTTL  time.Duration
	AdminRole        string
}

type Router struct {
	engine         *gin.Engine
	auth           *middleware.AuthMiddleware
	clinicH        *clinic.Handler
	professionalH  *professional.Handler
	hoursH         *hours.Handler
	availabilityH  *availability.Handler
	bookingH       *booking.Handler
	appointmentH   *appointment.Handler
	healthH        *health.Handler
	availabilityRC *middleware.ResponseCache
	config         Config
	metrics        *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	clinicH *clinic.Handler,
	professionalH *professional.Handler,
	hoursH *hours.Handler,
	availabilityH *availability.Handler,
	bookingH *booking.Handler,
	appointmentH *appointment.Handler,
	healthH *health.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	r := &Router{
		engine:         engine,
		auth:           auth,
		clinicH:        clinicH,
		professionalH:  professionalH,
		hoursH:         hoursH,
		availabilityH:  availabilityH,
		bookingH:       bookingH,
		appointmentH:   appointmentH,
		healthH:        healthH,
		availabilityRC: middleware.NewResponseCache(config.AvailabilityTTL),
		config:         config,
		metrics:        newRouterMetrics(),
	}

	engine.Use(
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Recovery(),
		r.metricsMiddleware(),
		middleware.CORS(config.CORSConfig),
	)

	if config.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(limiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/health/live", r.healthH.Liveness)
	r.engine.GET("/health/ready", r.healthH.Readiness)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.engine.Group("/api/v1")
	api.Use(r.auth.Authenticate())

	clinics := api.Group("/clinics")
	{
		clinics.GET("", r.clinicH.ListClinics)
		clinics.GET("/:id", r.clinicH.GetClinic)

		hoursGroup := clinics.Group("/:id/hours")
		{
			hoursGroup.GET("/weekly", r.hoursH.ListWeeklyRules)
			hoursGroup.GET("/overrides", r.hoursH.ListOverrides)
		}

		admin := clinics.Group("", r.auth.RequireRole(r.config.AdminRole))
		{
			admin.POST("", r.clinicH.CreateClinic)
			admin.PUT("/:id", r.clinicH.UpdateClinic)
			admin.POST("/:id/hours/weekly", r.hoursH.CreateWeeklyRule)
			admin.DELETE("/:id/hours/weekly/:ruleId", r.hoursH.DeleteWeeklyRule)
			admin.POST("/:id/hours/overrides", r.hoursH.CreateOverride)
			admin.DELETE("/:id/hours/overrides/:overrideId", r.hoursH.DeleteOverride)
		}
	}

	professionals := api.Group("/professionals")
	{
		professionals.GET("", r.professionalH.ListProfessionals)
		professionals.GET("/:id", r.professionalH.GetProfessional)

		admin := professionals.Group("", r.auth.RequireRole(r.config.AdminRole))
		{
			admin.POST("", r.professionalH.CreateProfessional)
			admin.PUT("/:id", r.professionalH.UpdateProfessional)
		}
	}

	availabilityGroup := api.Group("/availability")
	availabilityGroup.Use(r.availabilityRC.Cache())
	{
		availabilityGroup.GET("/slots", r.availabilityH.ListFreeSlots)
	}

	bookings := api.Group("/bookings")
	{
		bookings.POST("/check", r.bookingH.CheckBooking)
		bookings.POST("", r.bookingH.CommitBooking)
	}

	appointments := api.Group("/appointments")
	{
		appointments.GET("", r.appointmentH.ListAppointments)
		appointments.GET("/:id", r.appointmentH.GetAppointment)
		appointments.PATCH("/:id/status", r.appointmentH.UpdateStatus)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func newRouterMetrics() *routerMetrics {
	return &routerMetrics{
		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scheduler_http_request_duration_seconds",
			Help:    "HTTP request latency by path and method",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		requestTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "scheduler_http_requests_total",
			Help: "HTTP requests by path, method and status",
		}, []string{"method", "path", "status"}),
	}
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
