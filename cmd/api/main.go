package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/config"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	appHTTP "github.com/cmlabs-hris/presence-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/clock"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/database"
	pkgface "github.com/cmlabs-hris/presence-backend-go/internal/pkg/face"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/logger"
	"github.com/cmlabs-hris/presence-backend-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/presence-backend-go/internal/service/attendance"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	log := logger.New(os.Stdout, logger.Options{
		App:     cfg.App.Name,
		Version: cfg.App.Version,
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
	})
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("Server stopped with error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.DefaultPoolOptions())
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	days, err := clock.NewDaySource(cfg.Attendance.Timezone)
	if err != nil {
		return err
	}
	clk := clock.Real()

	sessionRepo := postgresql.NewSessionRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	officeLocationRepo := postgresql.NewOfficeLocationRepository(db)
	workScheduleRepo := postgresql.NewWorkScheduleRepository(db)
	settingRepo := postgresql.NewSettingRepository(db, log)
	faceDescriptorRepo := postgresql.NewFaceDescriptorRepository(db)

	policy := attendanceService.Policy{
		StrictMode:             cfg.Attendance.StrictMode,
		RequireFace:            cfg.Attendance.RequireFace,
		VerifyCheckOutLocation: cfg.Attendance.VerifyCheckOutLocation,
		DayOffStatus:           attendance.Status(cfg.Attendance.DayOffStatus),
		StoreTimeout:           cfg.Attendance.StoreTimeout,
	}

	gate := attendanceService.NewVerificationGate(
		settingRepo,
		officeLocationRepo,
		faceDescriptorRepo,
		pkgface.NewEuclideanComparator(pkgface.DefaultMaxDistance),
		policy.RequireFace,
		log,
	)
	evaluator := attendanceService.NewScheduleEvaluator(workScheduleRepo, days, policy.DayOffStatus)
	attendanceSvc := attendanceService.NewAttendanceService(
		sessionRepo,
		employeeRepo,
		gate,
		evaluator,
		days,
		clk,
		policy,
		log,
	)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc, days.Location())

	router := appHTTP.NewRouter(JWTService, attendanceHandler, appHTTP.RouterOptions{
		Logger:         log,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	})

	scheduler := cron.NewScheduler(log)
	cron.NewAttendanceJobs(sessionRepo, days, clk, log).RegisterJobs(scheduler, cfg.Attendance.StaleScanInterval)
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server running", slog.String("addr", server.Addr), slog.String("timezone", cfg.Attendance.Timezone))
		serverErr <- server.ListenAndServe()
	}()

	select {
	case err := <-serverErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown server: %w", err)
	}
	return nil
}
