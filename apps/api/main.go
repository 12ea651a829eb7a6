package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	echoapi "github.com/darasa-app/darasa/apps/api/echo"
	"github.com/darasa-app/darasa/core"
	"github.com/darasa-app/darasa/core/course"
	"github.com/darasa-app/darasa/core/discount"
	"github.com/darasa-app/darasa/core/experiment"
	"github.com/darasa-app/darasa/core/teams"
	"github.com/darasa-app/darasa/core/user"
	blockssvc "github.com/darasa-app/darasa/services/blocks"
	ecommercesvc "github.com/darasa-app/darasa/services/ecommerce"
	emailsvc "github.com/darasa-app/darasa/services/email"
	logsvc "github.com/darasa-app/darasa/services/logger"
	tracksvc "github.com/darasa-app/darasa/services/track"
	"github.com/darasa-app/darasa/storage/database"
	"github.com/jmoiron/sqlx"
)

func main() {
	// =========================================================================
	// Set up Dependencies

	conf, err := core.NewConfig()
	errAndDie(err)

	std := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	var logger core.Logger
	if conf.Debug {
		logger = logsvc.NewConsoleLogger(std)
	} else {
		logger = logsvc.NewRollbarLogger(std, conf)
	}

	// set up DB
	db, err := setUpDB(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer db.Close()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}

	var tracker core.Tracker
	if conf.Debug || conf.SegmentWriteKey == "" {
		tracker = tracksvc.NewConsoleTracker(logger)
	} else {
		segment := tracksvc.NewSegmentTracker(conf)
		defer segment.Close()
		tracker = segment
	}

	usrSvc := user.NewService(conf, database.NewUserRepository(db), mailSvc)
	outlineSvc := course.NewService(
		blockssvc.NewClient(conf),
		database.NewCompletionRepository(db),
		database.NewStudentStateRepository(db),
	)
	checkout := ecommercesvc.NewCheckoutURLBuilder(conf)
	enrollmentRepo := database.NewEnrollmentRepository(db)
	experimentSvc := experiment.NewService(conf, enrollmentRepo, checkout, logger)
	discountSvc := discount.NewService(
		conf,
		enrollmentRepo,
		database.NewDiscountRestrictionRepository(db),
		database.NewEnterpriseRepository(db),
		checkout,
		tracker,
		logger,
	)
	teamsSvc := teams.NewService(database.NewTeamRepository(db))

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	// =========================================================================
	// Start API Service

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	server := echoapi.NewServer(
		&echoapi.Options{
			Conf:           conf,
			Logger:         logger,
			Validate:       validate,
			Translator:     translator,
			UserSvc:        usrSvc,
			CourseRepo:     database.NewCourseRepository(db),
			OutlineSvc:     outlineSvc,
			DiscountSvc:    discountSvc,
			ExperimentSvc:  experimentSvc,
			EnrollmentRepo: enrollmentRepo,
			TeamsSvc:       teamsSvc,
			SignalShutdown: func() { shutdown <- syscall.SIGTERM },
		},
	)

	go server.Start()

	// =========================================================================
	// Shutdown

	sig := <-shutdown
	logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

	// give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
	defer cancel()

	if err = server.Stop(ctx); err != nil {
		logger.Fatal(fmt.Sprintf("could not stop server gracefully: %v", err), err)
	}
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB); err != nil {
		return nil, err
	}
	return db, nil
}

func errAndDie(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
