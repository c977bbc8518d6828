package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"sort"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/robfig/cron/v3"
	"github.com/umputun/go-flags"
	"golang.org/x/term"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/ctlbackup/app/backup"
	"github.com/umputun/ctlbackup/app/fleet"
	"github.com/umputun/ctlbackup/app/notify"
	"github.com/umputun/ctlbackup/app/settings"
	"github.com/umputun/ctlbackup/app/shell"
	"github.com/umputun/ctlbackup/app/store"
	"github.com/umputun/ctlbackup/app/transfer"
)

var opts struct {
	DB           string `long:"db" env:"CTLBACKUP_DB" default:"RobotData.db" description:"robot inventory database"`
	SettingsFile string `long:"settings" env:"CTLBACKUP_SETTINGS" default:"data.json" description:"settings file"`
	Family       string `short:"f" long:"family" env:"CTLBACKUP_FAMILY" description:"backup all robots of the family and exit"`
	Robot        string `short:"r" long:"robot" env:"CTLBACKUP_ROBOT" description:"backup a single robot and exit"`
	Import       string `long:"import" env:"CTLBACKUP_IMPORT" description:"import robots from yaml file"`
	Schedule     string `short:"s" long:"schedule" env:"CTLBACKUP_SCHEDULE" description:"cron schedule to repeat family backups"`
	Workers      int    `short:"w" long:"workers" env:"CTLBACKUP_WORKERS" default:"8" description:"max concurrent backups, 0 for one per robot"`
	MinFreeMB    uint64 `long:"min-free" env:"CTLBACKUP_MIN_FREE" default:"500" description:"warn if backup location has less free space, in MB"`
	Dbg          bool   `long:"dbg" env:"CTLBACKUP_DEBUG" description:"debug mode"`

	Transfer struct {
		DialTimeout time.Duration `long:"dial-timeout" env:"DIAL_TIMEOUT" default:"10s" description:"connection timeout"`
		JobTimeout  time.Duration `long:"job-timeout" env:"JOB_TIMEOUT" default:"30m" description:"max time for a single robot backup, 0 for none"`
		Attempts    int           `long:"attempts" env:"ATTEMPTS" default:"1" description:"connection attempts"`
		Duration    time.Duration `long:"duration" env:"DURATION" default:"1s" description:"initial delay between attempts"`
		Factor      float64       `long:"factor" env:"FACTOR" default:"3" description:"backoff factor"`
	} `group:"transfer" namespace:"transfer" env-namespace:"CTLBACKUP_TRANSFER"`

	Notify struct {
		SMTPHost     string        `long:"smtp-host" env:"SMTP_HOST" description:"SMTP host"`
		SMTPPort     int           `long:"smtp-port" env:"SMTP_PORT" default:"25" description:"SMTP port"`
		SMTPUsername string        `long:"smtp-username" env:"SMTP_USERNAME" description:"SMTP user name"`
		SMTPPassword string        `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
		SMTPTLS      bool          `long:"smtp-tls" env:"SMTP_TLS" description:"enable SMTP TLS"`
		SMTPTimeOut  time.Duration `long:"smtp-timeout" env:"SMTP_TIMEOUT" default:"10s" description:"SMTP TCP connection timeout"`
		FromEmail    string        `long:"from" env:"FROM" description:"SMTP from email"`
		ToEmails     []string      `long:"to" env:"TO" description:"SMTP to email(s)" env-delim:","`
		Webhooks     []string      `long:"webhook" env:"WEBHOOK" description:"webhook url(s)" env-delim:","`
		Timeout      time.Duration `long:"timeout" env:"TIMEOUT" default:"10s" description:"notification timeout"`
	} `group:"notify" namespace:"notify" env-namespace:"CTLBACKUP_NOTIFY"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging to stdout"`
		Filename        string `long:"filename" env:"FILENAME" description:"file to write logs to, enables logging"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max log file size in MB"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"max number of rotated files"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"max age of rotated files in days"`
		EnabledCompress bool   `long:"compress" env:"COMPRESS" description:"compress rotated files"`
	} `group:"log" namespace:"log" env-namespace:"CTLBACKUP_LOG"`
}

var revision = "unknown"

func main() {
	fmt.Printf("ctlbackup %s\n", revision)

	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}
	setupLogs()

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	signals(cancel, stopSignals(interactive())...) // handle SIGQUIT and stop signals

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	db, err := store.NewSQLite(opts.DB)
	if err != nil {
		return fmt.Errorf("can't open inventory %s: %w", opts.DB, err)
	}
	defer db.Close()

	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("can't get current directory: %w", err)
	}
	sett := settings.New(opts.SettingsFile, wd)
	log.Printf("[DEBUG] inventory %s, settings %s", opts.DB, sett.Path())
	svc := makeBackupService(db, sett, term.IsTerminal(int(os.Stdout.Fd())))

	if opts.Import != "" {
		if err := runImport(ctx, db, opts.Import, os.Stdout); err != nil {
			return err
		}
		if opts.Family == "" && opts.Robot == "" {
			return nil
		}
	}

	switch {
	case opts.Schedule != "":
		if opts.Family == "" {
			return errors.New("schedule requires --family")
		}
		return runScheduled(ctx, svc, opts.Schedule, opts.Family)
	case opts.Family != "":
		return runFamily(ctx, svc, opts.Family, os.Stdout)
	case opts.Robot != "":
		res := svc.BackupOne(ctx, opts.Robot)
		if res.Err != nil {
			return fmt.Errorf("backup of %s failed: %w", opts.Robot, res.Err)
		}
		fmt.Printf("%s", backup.Summary(map[string]backup.Result{opts.Robot: res}))
		return nil
	}

	sett.Load() // makes sure the default path is set and persisted on the first run
	sh := shell.Shell{
		In:        os.Stdin,
		Out:       os.Stdout,
		Inventory: db,
		Settings:  sett,
		Backup:    svc,
		Clear:     term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd())),
	}
	return sh.Run(ctx)
}

func makeBackupService(db *store.SQLite, sett *settings.Store, console bool) *backup.Service {
	client := &transfer.Client{Dialer: transfer.FTPDialer{Timeout: opts.Transfer.DialTimeout}}
	if opts.Transfer.Attempts > 1 {
		client.Repeater = repeater.New(&strategy.Backoff{Repeats: opts.Transfer.Attempts,
			Duration: opts.Transfer.Duration, Factor: opts.Transfer.Factor, Jitter: true})
	}
	if console {
		client.Progress = transfer.ConsoleProgress(os.Stdout)
	}

	res := &backup.Service{
		Inventory:    db,
		Fetcher:      client,
		Settings:     sett,
		History:      db,
		Workers:      opts.Workers,
		JobTimeout:   opts.Transfer.JobTimeout,
		MinFreeBytes: opts.MinFreeMB * 1024 * 1024,
	}
	if notif := makeNotifier(); notif != nil {
		res.Notifier = notif
	}
	return res
}

func makeNotifier() *notify.Service {
	from := opts.Notify.FromEmail
	if from == "" {
		from = "ctlbackup@" + makeHostName()
		opts.Notify.FromEmail = from
	}
	return notify.NewService(notify.Params{
		SMTPHost:     opts.Notify.SMTPHost,
		SMTPPort:     opts.Notify.SMTPPort,
		SMTPUsername: opts.Notify.SMTPUsername,
		SMTPPassword: opts.Notify.SMTPPassword,
		SMTPTLS:      opts.Notify.SMTPTLS,
		SMTPTimeout:  opts.Notify.SMTPTimeOut,
		FromEmail:    from,
		ToEmails:     opts.Notify.ToEmails,
		WebhookURLs:  opts.Notify.Webhooks,
		Timeout:      opts.Notify.Timeout,
	})
}

func makeHostName() string {
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

func runImport(ctx context.Context, db fleet.Creator, fname string, out io.Writer) error {
	f, err := fleet.Load(fname)
	if err != nil {
		return err
	}
	rep := fleet.Import(ctx, db, f)
	fmt.Fprintf(out, "imported %d robots from %s\n", len(rep.Added), fname)
	failed := make([]string, 0, len(rep.Failed))
	for name := range rep.Failed {
		failed = append(failed, name)
	}
	sort.Strings(failed)
	for _, name := range failed {
		fmt.Fprintf(out, "robot %s not imported: %v\n", name, rep.Failed[name])
	}
	return nil
}

// familyBackuper is the part of backup.Service used by headless modes
type familyBackuper interface {
	BackupFamily(ctx context.Context, family string) (map[string]backup.Result, error)
}

func runFamily(ctx context.Context, svc familyBackuper, family string, out io.Writer) error {
	res, err := svc.BackupFamily(ctx, family)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s", backup.Summary(res))
	if failed := backup.Failed(res); len(failed) > 0 {
		return fmt.Errorf("backup of %s, %d of %d robots failed", family, len(failed), len(res))
	}
	return nil
}

// runScheduled repeats family backup on cron schedule until context canceled
func runScheduled(ctx context.Context, svc familyBackuper, spec, family string) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		log.Printf("[INFO] scheduled backup of %s", family)
		if err := runFamily(ctx, svc, family, io.Discard); err != nil {
			log.Printf("[WARN] %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("can't parse schedule %q: %w", spec, err)
	}
	log.Printf("[INFO] backup of %s scheduled, %s", family, spec)
	c.Start()
	<-ctx.Done()
	log.Print("[DEBUG] terminate")
	<-c.Stop().Done()
	return nil
}

// setupLogs configures lgr and returns the log destination
func setupLogs() io.Writer {
	var out io.Writer = io.Discard
	switch {
	case opts.Log.Filename != "":
		out = &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxBackups: opts.Log.MaxBackups,
			MaxAge:     opts.Log.MaxAge,
			Compress:   opts.Log.EnabledCompress,
		}
	case opts.Log.Enabled:
		out = os.Stdout
	}

	logOpts := []log.Option{log.Out(out), log.Err(out), log.Msec, log.LevelBraces}
	if opts.Dbg {
		logOpts = append(logOpts, log.Debug, log.CallerFunc, log.CallerPkg, log.CallerFile)
	}
	log.Setup(logOpts...)
	return out
}

// interactive is true when no headless mode requested
func interactive() bool {
	return opts.Family == "" && opts.Robot == "" && opts.Import == "" && opts.Schedule == ""
}

// stopSignals returns signals canceling the context. Ctrl-C in the menu keeps its default
// behavior and terminates right away, the shell can't be interrupted while waiting for input.
func stopSignals(interactive bool) []os.Signal {
	if interactive {
		return []os.Signal{syscall.SIGTERM}
	}
	return []os.Signal{syscall.SIGTERM, os.Interrupt}
}

func signals(cancel context.CancelFunc, stop ...os.Signal) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			cancel() // terminate on stop signal
		}
	}()
	signal.Notify(sigChan, append([]os.Signal{syscall.SIGQUIT}, stop...)...)
}
