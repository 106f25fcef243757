package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	cancelBookingHandler "github.com/helixcare/Resido-AmenityService/internal/api/handlers/cancel_booking"
	cancelFutureHandler "github.com/helixcare/Resido-AmenityService/internal/api/handlers/cancel_future"
	confirmBookingHandler "github.com/helixcare/Resido-AmenityService/internal/api/handlers/confirm_booking"
	createBookingHandler "github.com/helixcare/Resido-AmenityService/internal/api/handlers/create_booking"
	createExceptionHandler "github.com/helixcare/Resido-AmenityService/internal/api/handlers/create_exception"
	expandRecurrenceHandler "github.com/helixcare/Resido-AmenityService/internal/api/handlers/expand_recurrence"
	generateSlotsHandler "github.com/helixcare/Resido-AmenityService/internal/api/handlers/generate_slots"
	getAvailableSlotsHandler "github.com/helixcare/Resido-AmenityService/internal/api/handlers/get_available_slots"
	getBookingHandler "github.com/helixcare/Resido-AmenityService/internal/api/handlers/get_booking"
	getTenantBookingsHandler "github.com/helixcare/Resido-AmenityService/internal/api/handlers/get_tenant_bookings"
	modifyBookingHandler "github.com/helixcare/Resido-AmenityService/internal/api/handlers/modify_booking"
	rejectBookingHandler "github.com/helixcare/Resido-AmenityService/internal/api/handlers/reject_booking"
	"github.com/helixcare/Resido-AmenityService/internal/api/middleware"
	"github.com/helixcare/Resido-AmenityService/internal/config"
	"github.com/helixcare/Resido-AmenityService/internal/infra/events"
	amenityRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/amenity"
	blackoutRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/blackout"
	bookingRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/booking"
	exceptionRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/exception"
	slotRepo "github.com/helixcare/Resido-AmenityService/internal/infra/storage/slot"
	bookingsService "github.com/helixcare/Resido-AmenityService/internal/service/bookings"
	recurrenceService "github.com/helixcare/Resido-AmenityService/internal/service/recurrence"
	expandRecurrenceUC "github.com/helixcare/Resido-AmenityService/internal/usecase/expand_recurrence"
	generateSlotsUC "github.com/helixcare/Resido-AmenityService/internal/usecase/generate_slots"
	getAvailableSlotsUC "github.com/helixcare/Resido-AmenityService/internal/usecase/get_available_slots"
	placeBookingUC "github.com/helixcare/Resido-AmenityService/internal/usecase/place_booking"
	"github.com/helixcare/Resido-AmenityService/pkg/dbmetrics"
	"github.com/helixcare/Resido-AmenityService/pkg/logger"
	"github.com/helixcare/Resido-AmenityService/pkg/metrics"
	"github.com/helixcare/Resido-AmenityService/pkg/simpletxmanager"
	"github.com/helixcare/Resido-AmenityService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting Resido-AmenityService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Инициализируем publisher доменных событий
	var publisher events.Publisher
	if cfg.Events.Enabled {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Exchange)
		if err != nil {
			log.Fatal("Failed to connect to RabbitMQ: %v", err)
		}
		publisher = amqpPublisher
		log.Info("Event publisher connected (exchange=%s)", cfg.Events.Exchange)
	} else {
		publisher = events.NewNopPublisher()
		log.Info("Event publishing disabled")
	}
	defer publisher.Close()

	// Инициализируем репозитории (с метриками или без)
	var (
		amenityRepository   *amenityRepo.Repository
		slotRepository      *slotRepo.Repository
		blackoutRepository  *blackoutRepo.Repository
		bookingRepository   *bookingRepo.Repository
		exceptionRepository *exceptionRepo.Repository
	)

	// Интерфейс для transaction manager (используется в usecases и сервисах)
	type TxManager interface {
		Do(ctx context.Context, fn func(ctx context.Context) error) error
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		amenityRepository = amenityRepo.NewRepository(wrappedDB)
		slotRepository = slotRepo.NewRepository(wrappedDB)
		blackoutRepository = blackoutRepo.NewRepository(wrappedDB)
		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		exceptionRepository = exceptionRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManagerWithRetries(wrappedDB, cfg.Booking.ContentionRetries)
	} else {
		amenityRepository = amenityRepo.NewRepository(db)
		slotRepository = slotRepo.NewRepository(db)
		blackoutRepository = blackoutRepo.NewRepository(db)
		bookingRepository = bookingRepo.NewRepository(db)
		exceptionRepository = exceptionRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManagerWithRetries(db, cfg.Booking.ContentionRetries)
	}

	// Инициализируем use cases
	generateSlotsUseCase := generateSlotsUC.NewUseCase(
		amenityRepository,
		slotRepository,
		blackoutRepository,
		txMgr,
		publisher,
		cfg.Booking.DefaultSlotHorizonDays,
		log,
	)

	getAvailableSlotsUseCase := getAvailableSlotsUC.NewUseCase(
		amenityRepository,
		slotRepository,
		blackoutRepository,
		log,
	)

	placeBookingUseCase := placeBookingUC.NewUseCase(
		amenityRepository,
		slotRepository,
		blackoutRepository,
		bookingRepository,
		txMgr,
		publisher,
		log,
	)

	expandRecurrenceUseCase := expandRecurrenceUC.NewUseCase(
		bookingRepository,
		exceptionRepository,
		placeBookingUseCase,
		publisher,
		log,
	)

	// Инициализируем сервисы
	bookingSvc := bookingsService.NewService(
		amenityRepository,
		bookingRepository,
		slotRepository,
		blackoutRepository,
		txMgr,
		publisher,
		log,
	)

	recurrenceSvc := recurrenceService.NewService(
		amenityRepository,
		bookingRepository,
		exceptionRepository,
		slotRepository,
		blackoutRepository,
		txMgr,
		publisher,
		log,
	)

	// Инициализируем handlers
	generateSlots := generateSlotsHandler.NewHandler(generateSlotsUseCase, log)
	getAvailableSlots := getAvailableSlotsHandler.NewHandler(getAvailableSlotsUseCase, log)
	createBooking := createBookingHandler.NewHandler(placeBookingUseCase, expandRecurrenceUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	confirmBooking := confirmBookingHandler.NewHandler(bookingSvc, log)
	rejectBooking := rejectBookingHandler.NewHandler(bookingSvc, log)
	modifyBooking := modifyBookingHandler.NewHandler(bookingSvc, log)
	createException := createExceptionHandler.NewHandler(recurrenceSvc, log)
	expandRecurrence := expandRecurrenceHandler.NewHandler(expandRecurrenceUseCase, log)
	cancelFuture := cancelFutureHandler.NewHandler(recurrenceSvc, log)
	getTenantBookings := getTenantBookingsHandler.NewHandler(bookingSvc, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	// Дедлайн контекста на каждый запрос
	r.Use(middleware.Timeout(time.Duration(cfg.Server.RequestTimeout) * time.Second))

	// Добавляем metrics middleware (если метрики включены)
	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")
	}

	// Metrics endpoint (публичный, без аутентификации)
	if cfg.Metrics.Enabled {
		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Получение доступных слотов amenity
	api.HandleFunc("/amenities/{amenityId}/available-slots",
		getAvailableSlots.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Слоты ---
	// Генерация слотов amenity на диапазон дат
	protected.HandleFunc("/amenities/{amenityId}/slots/generate",
		generateSlots.Handle).Methods(http.MethodPost)

	// --- Бронирования ---
	// Создание бронирования (одиночного или серии)
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)

	// Получение бронирования по ID
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// Изменение бронирования
	protected.HandleFunc("/bookings/{bookingId}", modifyBooking.Handle).Methods(http.MethodPut)

	// Отмена бронирования
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)

	// Подтверждение бронирования
	protected.HandleFunc("/bookings/{bookingId}/confirm", confirmBooking.Handle).Methods(http.MethodPost)

	// Отклонение бронирования
	protected.HandleFunc("/bookings/{bookingId}/reject", rejectBooking.Handle).Methods(http.MethodPost)

	// --- Серии ---
	// Создание исключения для вхождения серии
	protected.HandleFunc("/bookings/{bookingId}/exceptions", createException.Handle).Methods(http.MethodPost)

	// Материализация инстансов серии
	protected.HandleFunc("/bookings/{bookingId}/expand", expandRecurrence.Handle).Methods(http.MethodPost)

	// Отмена будущих вхождений серии
	protected.HandleFunc("/bookings/{bookingId}/cancel-future", cancelFuture.Handle).Methods(http.MethodPost)

	// История бронирований резидента
	protected.HandleFunc("/tenants/{tenantId}/bookings", getTenantBookings.Handle).Methods(http.MethodGet)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	// Graceful shutdown
	go func() {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start: %v", err)
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем сбор метрик connection pool
	if cfg.Metrics.Enabled {
		close(stopMetricsCh)
		log.Info("Metrics collection stopped")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited gracefully")
}
