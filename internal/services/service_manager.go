package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/exam-session-service/internal/cache"
	"github.com/SAP-F-2025/exam-session-service/internal/events"
	"github.com/SAP-F-2025/exam-session-service/internal/repositories"
	"github.com/SAP-F-2025/exam-session-service/internal/validator"
)

// ServiceManagerConfig holds configuration for the service manager
type ServiceManagerConfig struct {
	EnableDebugLogging bool
	LogLevel           slog.Level

	// ImportExport can be turned off on read-only deployments
	ImportExportEnabled bool
}

// serviceManager implements ServiceManager interface
type serviceManager struct {
	// Dependencies
	repo           repositories.Repository
	navigation     cache.NavigationStore
	eventPublisher events.EventPublisher
	logger         *slog.Logger
	validator      *validator.Validator
	config         ServiceManagerConfig

	// Service instances
	examSessionService  ExamSessionService
	examSetService      ExamSetService
	importExportService ImportExportService

	// Lifecycle management
	initialized bool
	shutdown    bool
	mu          sync.RWMutex
}

// NewServiceManager creates a new service manager with all dependencies
func NewServiceManager(
	repo repositories.Repository,
	navigation cache.NavigationStore,
	eventPublisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
	config ServiceManagerConfig,
) ServiceManager {
	return &serviceManager{
		repo:           repo,
		navigation:     navigation,
		eventPublisher: eventPublisher,
		logger:         logger,
		validator:      validator,
		config:         config,
	}
}

// NewDefaultServiceManager creates a service manager with default configuration
func NewDefaultServiceManager(
	repo repositories.Repository,
	navigation cache.NavigationStore,
	eventPublisher events.EventPublisher,
	logger *slog.Logger,
	validator *validator.Validator,
) ServiceManager {
	config := ServiceManagerConfig{
		LogLevel:            slog.LevelInfo,
		ImportExportEnabled: true,
	}
	return NewServiceManager(repo, navigation, eventPublisher, logger, validator, config)
}

// Initialize sets up all services and their dependencies
func (sm *serviceManager) Initialize(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.initialized {
		return nil
	}

	sm.logger.Info("Initializing service manager")

	if sm.repo == nil {
		return fmt.Errorf("failed to initialize services: repository is required")
	}
	if sm.validator == nil {
		sm.validator = validator.New()
	}
	if sm.navigation == nil {
		sm.logger.Warn("No navigation store configured, using in-memory store")
		sm.navigation = cache.NewMemoryNavigationStore()
	}
	if sm.eventPublisher == nil {
		sm.logger.Warn("No event publisher configured, publishing in-process")
		sm.eventPublisher, _ = events.NewChannelEventPublisher("exam-session-events", sm.logger)
	}

	sm.examSessionService = NewExamSessionService(sm.repo, sm.navigation, sm.eventPublisher, sm.logger, sm.validator)
	sm.logger.Info("Exam session service initialized")

	sm.examSetService = NewExamSetService(sm.repo, sm.logger)
	sm.logger.Info("Exam set service initialized")

	if sm.config.ImportExportEnabled {
		sm.importExportService = NewImportExportService(sm.repo, sm.examSessionService, sm.validator, sm.logger)
		sm.logger.Info("ImportExport service initialized")
	}

	sm.initialized = true
	sm.logger.Info("Service manager initialized successfully")

	return nil
}

// Service getters
func (sm *serviceManager) ExamSession() ExamSessionService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.examSessionService
}

func (sm *serviceManager) ExamSet() ExamSetService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}
	return sm.examSetService
}

func (sm *serviceManager) ImportExport() ImportExportService {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		panic("service manager not initialized")
	}

	if sm.importExportService != nil {
		return sm.importExportService
	}

	panic("import/export service not enabled")
}

// Health and lifecycle
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.initialized {
		return fmt.Errorf("service manager not initialized")
	}

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.repo.Ping(ctx); err != nil {
		return fmt.Errorf("repository health check failed: %w", err)
	}

	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.Info("Shutting down service manager")

	if sm.eventPublisher != nil {
		if err := sm.eventPublisher.Close(); err != nil {
			sm.logger.Error("Failed to close event publisher", "error", err)
		}
	}

	sm.shutdown = true
	sm.logger.Info("Service manager shut down completed")

	return nil
}

// IsInitialized returns whether the service manager has been initialized
func (sm *serviceManager) IsInitialized() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.initialized
}
