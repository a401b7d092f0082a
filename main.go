// main.go
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clinicconnect/clinic-api/config"
	"github.com/clinicconnect/clinic-api/endpoint"
	"github.com/clinicconnect/clinic-api/middleware"
	"github.com/clinicconnect/clinic-api/model"
	"github.com/clinicconnect/clinic-api/notify"
	"github.com/clinicconnect/clinic-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func main() {
	cfg := config.LoadConfig()

	db, err := config.ConnectMySQL()
	if err != nil {
		log.Fatalf("Error connecting to MySQL: %v", err)
	}
	if err := db.AutoMigrate(
		&model.Doctor{},
		&model.Patient{},
		&model.Appointment{},
		&model.NotificationSettings{},
		&model.Staff{},
		&model.Session{},
		&model.SecurityLog{},
	); err != nil {
		log.Fatalf("Error migrating database schema: %v", err)
	}

	seedDatabase(db)

	// Redis is optional: sessions fall back to DB lookups and rate limiting
	// degrades to allow-all when the client is unavailable.
	if _, err := config.ConnectRedis(); err != nil {
		log.Printf("Redis unavailable, continuing without it: %v", err)
	}

	if geoipPath := os.Getenv("GEOIP_DB_PATH"); geoipPath != "" {
		if err := util.InitGeoIP(geoipPath); err != nil {
			log.Printf("GeoIP database not loaded: %v", err)
		}
		defer util.CloseGeoIP()
	}
	util.SetSecurityLoggerDB(db)

	queue := notify.NewQueue(notify.NewSMTPDispatcher(cfg), 0)
	endpoint.SetNotifier(queue)
	defer queue.Close()

	gin.SetMode(cfg.GinMode)
	router := setupRouter(cfg, db)

	address := fmt.Sprintf(":%d", cfg.AppPort)
	srv := &http.Server{Addr: address, Handler: router}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("shutting down")

	// Stop accepting connections and wait for in-flight requests before the
	// deferred queue.Close() drains pending emails.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
}

func setupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	router := gin.Default()
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.DatabaseMiddleware(db))
	router.Use(middleware.AttachIdentity())
	router.Use(middleware.EndpointCallLogger())

	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Welcome to %s!", cfg.AppName),
		})
	})

	router.POST("/login", endpoint.Login)
	router.DELETE("/logout", endpoint.Logout)
	router.GET("/whoami", middleware.ValidateLoginToken(), endpoint.WhoAmI)
	router.GET("/token/validate", endpoint.ValidateToken)

	staffRoutes := router.Group("/staff", middleware.ValidateLoginToken())
	staffRoutes.GET("", endpoint.ListStaff)
	staffRoutes.POST("", endpoint.CreateStaff)
	staffRoutes.PATCH("", endpoint.UpdateCurrentStaff)
	staffRoutes.GET("/:id", endpoint.GetStaffInfo)
	staffRoutes.PATCH("/:id", endpoint.UpdateStaffByID)
	staffRoutes.DELETE("/:id", endpoint.DeleteStaff)

	router.GET("/doctors", endpoint.ListDoctors)
	router.GET("/doctors/:id", endpoint.GetDoctorInfo)
	router.GET("/doctors/:id/stats", endpoint.GetDoctorStats)
	router.GET("/doctors/:id/patients", endpoint.ListDoctorPatients)
	router.GET("/doctors/:id/pending-confirmations", endpoint.ListPendingConfirmations)

	router.GET("/patients", endpoint.ListPatients)
	router.POST("/patients", endpoint.CreatePatient)
	router.GET("/patients/by-email/:email", endpoint.GetPatientByEmail)
	router.GET("/patients/:id", endpoint.GetPatientInfo)
	router.PUT("/patients/:id", endpoint.UpdatePatient)

	bookingLimiter := middleware.RateLimiter(middleware.RateLimitConfig{
		Limit:  20,
		Window: time.Minute,
	})

	router.GET("/appointments", endpoint.ListAppointments)
	router.POST("/appointments", bookingLimiter, endpoint.CreateAppointment)
	router.GET("/appointments/doctor/:doctorId", endpoint.ListAppointmentsByDoctor)
	router.GET("/appointments/patient/:patientId", endpoint.ListAppointmentsByPatient)
	router.GET("/appointments/available-slots/:doctorId/:date", endpoint.GetAvailableSlots)
	router.PUT("/appointments/:id/confirm", endpoint.ConfirmAppointment)
	router.POST("/appointments/:id/cancel", bookingLimiter, endpoint.CancelAppointment)
	router.PATCH("/appointments/:id", endpoint.UpdateAppointment)
	router.DELETE("/appointments/:id", endpoint.DeleteAppointment)

	router.GET("/notification-settings/:patientId", endpoint.GetNotificationSettings)
	router.PATCH("/notification-settings/:patientId", endpoint.UpdateNotificationSettings)

	return router
}

func seedDatabase(db *gorm.DB) {
	if err := model.SeedDoctors(db); err != nil {
		log.Printf("doctor seeding failed: %v", err)
	}
	if err := model.SeedPatients(db); err != nil {
		log.Printf("patient seeding failed: %v", err)
	}
	if err := model.SeedNotificationSettings(db); err != nil {
		log.Printf("notification settings seeding failed: %v", err)
	}
	if err := seedStaff(db); err != nil {
		log.Printf("staff seeding failed: %v", err)
	}
}

// seedStaff creates the initial receptionist account when the staff table is
// empty. The password comes from STAFF_DEFAULT_PASSWORD so deployments never
// ship a hard-coded credential.
func seedStaff(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Staff{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	password := os.Getenv("STAFF_DEFAULT_PASSWORD")
	if password == "" {
		log.Println("STAFF_DEFAULT_PASSWORD not set, skipping staff seeding")
		return nil
	}

	salt, err := util.GenerateSalt()
	if err != nil {
		return err
	}
	staff := model.Staff{
		Name:         "Le Tan",
		Email:        "letan@clinic.vn",
		Password:     util.HashPasswordWithSalt(password, salt),
		PasswordSalt: salt,
		Role:         model.RoleReceptionist,
	}
	return db.Create(&staff).Error
}
