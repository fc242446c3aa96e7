package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	hclog "github.com/hashicorp/go-hclog"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"

	syncinadapter "studyhub/internal/modules/balancesync/adapter/in"
	syncoutadapter "studyhub/internal/modules/balancesync/adapter/out"
	syncout "studyhub/internal/modules/balancesync/port/out"
	syncservice "studyhub/internal/modules/balancesync/service"
	syncusecase "studyhub/internal/modules/balancesync/usecase"
	ledgerinadapter "studyhub/internal/modules/ledger/adapter/in"
	ledgeroutadapter "studyhub/internal/modules/ledger/adapter/out"
	ledgerout "studyhub/internal/modules/ledger/port/out"
	ledgerservice "studyhub/internal/modules/ledger/service"
	ledgerusecase "studyhub/internal/modules/ledger/usecase"
	notifyinadapter "studyhub/internal/modules/notify/adapter/in"
	notifyoutadapter "studyhub/internal/modules/notify/adapter/out"
	notifyout "studyhub/internal/modules/notify/port/out"
	notifyservice "studyhub/internal/modules/notify/service"
	notifyusecase "studyhub/internal/modules/notify/usecase"
	streakinadapter "studyhub/internal/modules/streak/adapter/in"
	streakoutadapter "studyhub/internal/modules/streak/adapter/out"
	streakservice "studyhub/internal/modules/streak/service"
	streakusecase "studyhub/internal/modules/streak/usecase"
	timerinadapter "studyhub/internal/modules/timer/adapter/in"
	timeroutadapter "studyhub/internal/modules/timer/adapter/out"
	timerservice "studyhub/internal/modules/timer/service"
	timerusecase "studyhub/internal/modules/timer/usecase"
	"studyhub/internal/platform/auth"
	"studyhub/internal/platform/clock"
	"studyhub/internal/platform/config"
	"studyhub/internal/platform/database"
	"studyhub/internal/platform/id"
	"studyhub/internal/platform/logging"
	uiapp "studyhub/internal/ui/app"
)

const appName = "StudyHub"

// Options overrides process-level collaborators, mostly for tests.
type Options struct {
	Clock  clock.Clock
	IDs    id.Generator
	Out    io.Writer
	Logger hclog.Logger
}

type App struct {
	TimerCLI  timerinadapter.CLIHandler
	LedgerCLI ledgerinadapter.CLIHandler
	StreakCLI streakinadapter.CLIHandler
	NotifyCLI notifyinadapter.CLIHandler
	SyncCLI   syncinadapter.CLIHandler

	Session *auth.Session
	// Origin identifies this process on the balance channel.
	Origin string

	db    *sqlx.DB
	redis *redis.Client
}

func New(ctx context.Context, cfg config.Config, opts Options) (*App, error) {
	clk := opts.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}
	ids := opts.IDs
	if ids == nil {
		ids = id.UUID{}
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.New(cfg.Log, os.Stderr)
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	app := &App{Session: auth.NewSession(), Origin: ids.New(), db: db}

	var publisher ledgerout.BalancePublisher
	var subscriber syncout.Subscriber
	if cfg.Redis.Address != "" {
		client, err := database.OpenRedis(ctx, cfg.Redis)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		app.redis = client
		channel := syncoutadapter.NewRedisChannel(client, logger)
		publisher, subscriber = channel, channel
	} else {
		broker := syncoutadapter.NewMemoryBroker()
		publisher, subscriber = broker, broker
	}

	var sender notifyout.Sender
	if cfg.SendGrid.APIKey != "" {
		sender = notifyoutadapter.NewSendGridSender(cfg.SendGrid.APIKey, appName, cfg.SendGrid.FromEmail)
	} else {
		sender = notifyoutadapter.NewConsoleSender(logger)
	}
	notifyUC := notifyusecase.NewInteractor(
		notifyservice.NewNotifyService(clk, notifyoutadapter.NewSQLPreferenceStore(db), sender),
		app.Session,
		logger,
	)

	ledgerUC := ledgerusecase.NewInteractor(
		ledgerservice.NewLedgerService(clk, ids,
			ledgeroutadapter.NewSQLTransactionStore(db),
			ledgeroutadapter.NewSQLBalanceStore(db),
		),
		app.Session,
		database.NewTxManager(db),
		ledgerusecase.Options{
			Publisher:    publisher,
			Acknowledger: ledgeroutadapter.NewWriterAcknowledger(out, logger),
			Notifier:     notifyUC,
			Origin:       app.Origin,
			Logger:       logger,
		},
	)

	streakUC := streakusecase.NewInteractor(
		streakservice.NewStreakService(clk, cfg.Location, streakoutadapter.NewSQLActivityStore(db)),
		app.Session,
		ledgerUC,
		logger,
	)

	timerUC := timerusecase.NewInteractor(
		timerservice.NewTimerService(clk, ids, timeroutadapter.NewFileStateStore(cfg.StatePath, cfg.Timer.DefaultMinutes), cfg.Timer.DefaultMinutes, logger),
		timerusecase.Options{
			Ledger:   ledgerUC,
			Streak:   streakUC,
			Notifier: notifyUC,
			Cue:      timeroutadapter.NewBellCue(out, cfg.Timer.Sound),
			Sessions: timeroutadapter.NewVaultSessionLogger(cfg.DataDir, cfg.Location),
			Logger:   logger,
		},
	)

	syncUC := syncusecase.NewInteractor(
		syncservice.NewSyncService(app.Origin),
		subscriber,
		ledgerUC,
		app.Session,
		syncusecase.DefaultResubscribeDelay,
		logger,
	)

	app.TimerCLI = timerinadapter.NewCLIHandler(timerUC)
	app.LedgerCLI = ledgerinadapter.NewCLIHandler(ledgerUC)
	app.StreakCLI = streakinadapter.NewCLIHandler(streakUC)
	app.NotifyCLI = notifyinadapter.NewCLIHandler(notifyUC)
	app.SyncCLI = syncinadapter.NewCLIHandler(syncUC)

	app.Session.SignIn(auth.User{ID: cfg.User.ID, Email: cfg.User.Email})
	logger.Debug("app ready", "user_id", cfg.User.ID, "origin", app.Origin, "driver", cfg.Database.Driver, "redis", cfg.Redis.Address != "")
	return app, nil
}

// Close releases the database and broker connections.
func (a *App) Close() error {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, a.db.Close())
	}
	return errors.Join(errs...)
}

// RunTUI restores the timer, follows remote balance changes in the
// background and runs the terminal UI until the user quits.
func RunTUI(ctx context.Context, app *App) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if _, err := app.TimerCLI.Restore(ctx); err != nil {
		return err
	}
	go func() { _ = app.SyncCLI.Watch(ctx) }()

	model := uiapp.NewModel(app.TimerCLI, app.LedgerCLI, app.StreakCLI, app.SyncCLI)
	defer model.Close()
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
