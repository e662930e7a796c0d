package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/esmailgumaan/contact_svc/internal/admission"
	"github.com/esmailgumaan/contact_svc/internal/httpapi"
	"github.com/esmailgumaan/contact_svc/internal/notifications"
	"github.com/esmailgumaan/contact_svc/internal/storage"
	"github.com/esmailgumaan/contact_svc/internal/task"
)

const (
	commandUseName              = "server"
	commandShortDescription     = "Run the contact form server"
	commandLongDescription      = "Launch the contact form submission HTTP server"
	missingConfigurationMessage = "missing required configuration"
	loggerCreationErrorMessage  = "logger"
	logEventListening           = "listening"
	logEventNotifierSelected    = "notifier_selected"
	logFieldAddress             = "addr"
	logFieldNotifierKind        = "kind"
	notifierKindResend          = "resend"
	notifierKindLogging         = "logging"

	flagNameApplicationAddress    = "app-addr"
	flagNameDatabaseDataSource    = "db-dsn"
	flagNameAdminUsername         = "admin-user"
	flagNameAdminPassword         = "admin-pass"
	flagNameIdentityHashSecret    = "ip-hash-secret"
	flagNameRateLimitWindow       = "rate-limit-window-seconds"
	flagNameRateLimitMaxRequests  = "rate-limit-max-requests"
	flagNameResendAPIKey          = "resend-api-key"
	flagNameNotifyFromAddress     = "notify-from"
	flagNameNotifyToAddress       = "notify-to"
	flagUsageApplicationAddress   = "address for the HTTP server to listen on"
	flagUsageDatabaseDataSource   = "SQLite database path or DSN"
	flagUsageAdminUsername        = "basic auth username for the admin panel"
	flagUsageAdminPassword        = "basic auth password for the admin panel"
	flagUsageIdentityHashSecret   = "secret used to hash client addresses"
	flagUsageRateLimitWindow      = "rate limit window length in seconds"
	flagUsageRateLimitMaxRequests = "maximum submissions per identity per window"
	flagUsageResendAPIKey         = "Resend API key; notifications are logged when empty"
	flagUsageNotifyFromAddress    = "sender address for notification emails"
	flagUsageNotifyToAddress      = "recipient address for notification emails"

	environmentKeyApplicationAddress   = "APP_ADDR"
	environmentKeyDatabaseDataSource   = "DB_DSN"
	environmentKeyAdminUsername        = "ADMIN_USER"
	environmentKeyAdminPassword        = "ADMIN_PASS"
	environmentKeyIdentityHashSecret   = "IP_HASH_SECRET"
	environmentKeyRateLimitWindow      = "RATE_LIMIT_WINDOW_SECONDS"
	environmentKeyRateLimitMaxRequests = "RATE_LIMIT_MAX_REQUESTS"
	environmentKeyResendAPIKey         = "RESEND_API_KEY"
	environmentKeyNotifyFromAddress    = "NOTIFY_FROM"
	environmentKeyNotifyToAddress      = "NOTIFY_TO"

	defaultApplicationAddress   = ":8080"
	defaultDatabaseDataSource   = "contacts.db"
	defaultRateLimitWindowValue = 3600
	defaultRateLimitMaxRequests = 5

	publicRouteRoot    = "/api/"
	publicRouteContact = "/api/contact"
	adminRouteInbox    = "/admin/inbox"
	adminRouteContacts = "/api/admin/contacts"

	corsOriginWildcard        = "*"
	corsHeaderAuthorization   = "Authorization"
	corsHeaderContentType     = "Content-Type"
	httpMethodGet             = "GET"
	httpMethodOptions         = "OPTIONS"
	httpMethodPost            = "POST"
	loggerContextOpenDatabase = "open_db"
	loggerContextAutoMigrate  = "migrate"
	loggerContextPipeline     = "pipeline"
	loggerContextNotifier     = "notifier"
	loggerContextServer       = "server"
	readHeaderTimeoutSeconds  = 5
	limiterEvictionInterval   = 10 * time.Minute

	unexpectedArgumentsMessage    = "unexpected command arguments"
	commandInitializationFailure  = "failed to configure command"
	flagNotDefinedMessage         = "flag %s not defined"
	environmentConfigurationError = "failed to apply environment configuration"
)

var (
	corsAllowedMethods = []string{httpMethodPost, httpMethodGet, httpMethodOptions}
	corsAllowedHeaders = []string{corsHeaderAuthorization, corsHeaderContentType}
	corsExposedHeaders = []string{corsHeaderContentType}
	corsAllowOrigins   = []string{corsOriginWildcard}
)

// ServerConfig captures configuration needed to run the server.
type ServerConfig struct {
	ApplicationAddress     string
	DatabaseDataSourceName string
	AdminUsername          string
	AdminPassword          string
	IdentityHashSecret     string
	RateLimitWindowSeconds int
	RateLimitMaxRequests   int
	ResendAPIKey           string
	NotifyFromAddress      string
	NotifyToAddress        string
}

// DatabaseOpener opens a database connection from the provided configuration.
type DatabaseOpener func(storage.Config) (*gorm.DB, error)

// ServerApplication constructs and executes the server command.
type ServerApplication struct {
	configurationLoader *viper.Viper
	databaseOpener      DatabaseOpener
}

// NewServerApplication creates a ServerApplication with default dependencies.
func NewServerApplication() *ServerApplication {
	return &ServerApplication{
		configurationLoader: viper.New(),
		databaseOpener:      storage.OpenDatabase,
	}
}

// WithDatabaseOpener overrides the database opener dependency.
func (application *ServerApplication) WithDatabaseOpener(databaseOpener DatabaseOpener) *ServerApplication {
	application.databaseOpener = databaseOpener
	return application
}

// Command builds the Cobra command for the server.
func (application *ServerApplication) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:   commandUseName,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  application.runCommand,
	}

	if configurationErr := application.configureCommand(rootCommand); configurationErr != nil {
		return nil, configurationErr
	}

	return rootCommand, nil
}

type flagBinding struct {
	environmentKey string
	flagName       string
}

func (application *ServerApplication) configureCommand(command *cobra.Command) error {
	application.configurationLoader.SetDefault(environmentKeyApplicationAddress, defaultApplicationAddress)
	application.configurationLoader.SetDefault(environmentKeyDatabaseDataSource, defaultDatabaseDataSource)
	application.configurationLoader.SetDefault(environmentKeyAdminUsername, "")
	application.configurationLoader.SetDefault(environmentKeyAdminPassword, "")
	application.configurationLoader.SetDefault(environmentKeyIdentityHashSecret, "")
	application.configurationLoader.SetDefault(environmentKeyRateLimitWindow, defaultRateLimitWindowValue)
	application.configurationLoader.SetDefault(environmentKeyRateLimitMaxRequests, defaultRateLimitMaxRequests)
	application.configurationLoader.SetDefault(environmentKeyResendAPIKey, "")
	application.configurationLoader.SetDefault(environmentKeyNotifyFromAddress, "")
	application.configurationLoader.SetDefault(environmentKeyNotifyToAddress, "")
	application.configurationLoader.AutomaticEnv()

	commandFlags := command.Flags()
	commandFlags.String(flagNameApplicationAddress, defaultApplicationAddress, flagUsageApplicationAddress)
	commandFlags.String(flagNameDatabaseDataSource, defaultDatabaseDataSource, flagUsageDatabaseDataSource)
	commandFlags.String(flagNameAdminUsername, "", flagUsageAdminUsername)
	commandFlags.String(flagNameAdminPassword, "", flagUsageAdminPassword)
	commandFlags.String(flagNameIdentityHashSecret, "", flagUsageIdentityHashSecret)
	commandFlags.Int(flagNameRateLimitWindow, defaultRateLimitWindowValue, flagUsageRateLimitWindow)
	commandFlags.Int(flagNameRateLimitMaxRequests, defaultRateLimitMaxRequests, flagUsageRateLimitMaxRequests)
	commandFlags.String(flagNameResendAPIKey, "", flagUsageResendAPIKey)
	commandFlags.String(flagNameNotifyFromAddress, "", flagUsageNotifyFromAddress)
	commandFlags.String(flagNameNotifyToAddress, "", flagUsageNotifyToAddress)

	bindings := []flagBinding{
		{environmentKeyApplicationAddress, flagNameApplicationAddress},
		{environmentKeyDatabaseDataSource, flagNameDatabaseDataSource},
		{environmentKeyAdminUsername, flagNameAdminUsername},
		{environmentKeyAdminPassword, flagNameAdminPassword},
		{environmentKeyIdentityHashSecret, flagNameIdentityHashSecret},
		{environmentKeyRateLimitWindow, flagNameRateLimitWindow},
		{environmentKeyRateLimitMaxRequests, flagNameRateLimitMaxRequests},
		{environmentKeyResendAPIKey, flagNameResendAPIKey},
		{environmentKeyNotifyFromAddress, flagNameNotifyFromAddress},
		{environmentKeyNotifyToAddress, flagNameNotifyToAddress},
	}

	for _, binding := range bindings {
		if bindErr := application.bindFlag(commandFlags, binding.environmentKey, binding.flagName); bindErr != nil {
			return bindErr
		}
		if environmentErr := application.applyEnvironmentConfiguration(commandFlags, binding.environmentKey, binding.flagName); environmentErr != nil {
			return environmentErr
		}
	}

	return nil
}

func (application *ServerApplication) bindFlag(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}

	if bindErr := application.configurationLoader.BindPFlag(environmentKey, flag); bindErr != nil {
		return bindErr
	}

	return nil
}

func (application *ServerApplication) applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound {
		return nil
	}

	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentConfigurationError, setErr)
	}

	return nil
}

func (application *ServerApplication) loadServerConfig() ServerConfig {
	return ServerConfig{
		ApplicationAddress:     application.configurationLoader.GetString(environmentKeyApplicationAddress),
		DatabaseDataSourceName: strings.TrimSpace(application.configurationLoader.GetString(environmentKeyDatabaseDataSource)),
		AdminUsername:          strings.TrimSpace(application.configurationLoader.GetString(environmentKeyAdminUsername)),
		AdminPassword:          strings.TrimSpace(application.configurationLoader.GetString(environmentKeyAdminPassword)),
		IdentityHashSecret:     strings.TrimSpace(application.configurationLoader.GetString(environmentKeyIdentityHashSecret)),
		RateLimitWindowSeconds: application.configurationLoader.GetInt(environmentKeyRateLimitWindow),
		RateLimitMaxRequests:   application.configurationLoader.GetInt(environmentKeyRateLimitMaxRequests),
		ResendAPIKey:           strings.TrimSpace(application.configurationLoader.GetString(environmentKeyResendAPIKey)),
		NotifyFromAddress:      strings.TrimSpace(application.configurationLoader.GetString(environmentKeyNotifyFromAddress)),
		NotifyToAddress:        strings.TrimSpace(application.configurationLoader.GetString(environmentKeyNotifyToAddress)),
	}
}

func (application *ServerApplication) ensureRequiredConfiguration(configuration ServerConfig) error {
	var missingParameters []string

	if configuration.DatabaseDataSourceName == "" {
		missingParameters = append(missingParameters, flagNameDatabaseDataSource)
	}

	if configuration.IdentityHashSecret == "" {
		missingParameters = append(missingParameters, flagNameIdentityHashSecret)
	}

	if len(missingParameters) == 0 {
		return nil
	}

	return fmt.Errorf("%s: %s", missingConfigurationMessage, strings.Join(missingParameters, ", "))
}

func resolveNotifier(logger *zap.Logger, configuration ServerConfig) (admission.ContactNotifier, string, error) {
	if configuration.ResendAPIKey == "" {
		return notifications.NewLoggingNotifier(logger), notifierKindLogging, nil
	}

	resendNotifier, notifierErr := notifications.NewResendNotifier(logger, notifications.ResendConfig{
		APIKey:      configuration.ResendAPIKey,
		FromAddress: configuration.NotifyFromAddress,
		ToAddress:   configuration.NotifyToAddress,
	})
	if notifierErr != nil {
		return nil, "", notifierErr
	}
	return resendNotifier, notifierKindResend, nil
}

func (application *ServerApplication) runCommand(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	serverConfig := application.loadServerConfig()

	if validationErr := application.ensureRequiredConfiguration(serverConfig); validationErr != nil {
		return validationErr
	}

	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	database, databaseErr := application.databaseOpener(storage.Config{
		DriverName:     storage.DriverNameSQLite,
		DataSourceName: serverConfig.DatabaseDataSourceName,
	})
	if databaseErr != nil {
		logger.Fatal(loggerContextOpenDatabase, zap.Error(databaseErr))
	}

	if migrateErr := storage.AutoMigrate(database); migrateErr != nil {
		logger.Fatal(loggerContextAutoMigrate, zap.Error(migrateErr))
	}

	contactStore, storeErr := storage.NewContactStore(database)
	if storeErr != nil {
		logger.Fatal(loggerContextPipeline, zap.Error(storeErr))
	}

	identityHasher, hasherErr := admission.NewIdentityHasher(serverConfig.IdentityHashSecret)
	if hasherErr != nil {
		logger.Fatal(loggerContextPipeline, zap.Error(hasherErr))
	}

	fieldValidator, validatorErr := admission.NewValidator()
	if validatorErr != nil {
		logger.Fatal(loggerContextPipeline, zap.Error(validatorErr))
	}

	rateLimiter := admission.NewSlidingWindowLimiter(admission.SlidingWindowLimiterConfig{
		WindowLength: time.Duration(serverConfig.RateLimitWindowSeconds) * time.Second,
		MaxRequests:  serverConfig.RateLimitMaxRequests,
	})

	contactNotifier, notifierKind, notifierErr := resolveNotifier(logger, serverConfig)
	if notifierErr != nil {
		logger.Fatal(loggerContextNotifier, zap.Error(notifierErr))
	}
	logger.Info(logEventNotifierSelected, zap.String(logFieldNotifierKind, notifierKind))

	pipeline, pipelineErr := admission.NewPipeline(admission.PipelineConfig{
		HoneypotDetector: admission.NewHoneypotDetector(nil),
		RateLimiter:      rateLimiter,
		IdentityHasher:   identityHasher,
		FieldValidator:   fieldValidator,
		ContactStorer:    contactStore,
		ContactNotifier:  contactNotifier,
		Logger:           logger,
	})
	if pipelineErr != nil {
		logger.Fatal(loggerContextPipeline, zap.Error(pipelineErr))
	}

	evictionScheduler := task.NewScheduler(limiterEvictionInterval, func(context.Context) {
		rateLimiter.EvictExpired()
	})
	evictionScheduler.Start(context.Background())
	defer evictionScheduler.Stop()

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(httpapi.RequestLogger(logger))

	router.Use(cors.New(cors.Config{
		AllowOrigins:     corsAllowOrigins,
		AllowMethods:     corsAllowedMethods,
		AllowHeaders:     corsAllowedHeaders,
		ExposeHeaders:    corsExposedHeaders,
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	contactHandlers := httpapi.NewContactHandlers(pipeline, logger)
	adminHandlers := httpapi.NewAdminHandlers(contactStore, logger)

	router.GET(publicRouteRoot, contactHandlers.Root)
	router.POST(publicRouteContact, contactHandlers.SubmitContact)

	adminGroup := router.Group("")
	adminGroup.Use(httpapi.AdminBasicAuthMiddleware(serverConfig.AdminUsername, serverConfig.AdminPassword))
	adminGroup.GET(adminRouteInbox, adminHandlers.RenderInbox)
	adminGroup.GET(adminRouteContacts, adminHandlers.ListContacts)

	httpServer := &http.Server{
		Addr:              serverConfig.ApplicationAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeoutSeconds * time.Second,
	}

	logger.Info(logEventListening, zap.String(logFieldAddress, serverConfig.ApplicationAddress))
	if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		logger.Fatal(loggerContextServer, zap.Error(serveErr))
	}

	return nil
}

func main() {
	_ = godotenv.Load()

	application := NewServerApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	if executeErr := rootCommand.Execute(); executeErr != nil {
		os.Exit(1)
	}
}
