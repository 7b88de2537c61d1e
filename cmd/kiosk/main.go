package main

import (
	"crypto/rand"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"finitefield.org/museum-kiosk/internal/config"
	"finitefield.org/museum-kiosk/internal/content"
	"finitefield.org/museum-kiosk/internal/i18n"
	mw "finitefield.org/museum-kiosk/internal/middleware"
	"finitefield.org/museum-kiosk/internal/prefs"
	"finitefield.org/museum-kiosk/internal/view"
	"finitefield.org/museum-kiosk/internal/visitor"
)

func main() {
	root := &cobra.Command{
		Use:           "kiosk",
		Short:         "Visitor-facing museum content kiosk",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the kiosk web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	a, err := newApp(cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	log.Info("kiosk listening", zap.String("addr", cfg.Addr), zap.String("env", cfg.Environment))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen: %w", err)
	}
	return nil
}

// newLogger builds a structured JSON logger.
func newLogger(level string) (*zap.Logger, error) {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		_ = lvl.UnmarshalText([]byte("info"))
	}
	cfg := zap.Config{
		Level:    lvl,
		Encoding: "json",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "message",
			TimeKey:    "timestamp",
			LevelKey:   "severity",
			EncodeTime: zapcore.RFC3339NanoTimeEncoder,
			EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
				enc.AppendString(strings.ToUpper(l.String()))
			},
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	return cfg.Build()
}

// app wires the kiosk's collaborators behind the HTTP handlers.
type app struct {
	cfg      config.Config
	log      *zap.Logger
	tmpl     *template.Template
	dev      bool
	content  *content.Client
	prefs    prefs.Provider
	visitors *visitor.Manager
	catalog  *i18n.Catalog
	closeFns []func()
}

func newApp(cfg config.Config, log *zap.Logger) (*app, error) {
	profile, err := cfg.LoadProfile()
	if err != nil {
		return nil, err
	}
	languages := make([]i18n.Language, 0, len(profile.Languages))
	for _, l := range profile.Languages {
		languages = append(languages, i18n.Language{Tag: l.Tag, Code: l.Code, Name: l.Name})
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		dev:     !cfg.Prod(),
		content: content.NewClient(cfg.APIBaseURL),
		catalog: i18n.NewCatalog(languages, profile.DefaultLanguage),
	}
	a.visitors = visitor.NewManager(a.content, log, cfg.QuietPeriod)
	a.closeFns = append(a.closeFns, a.visitors.Close)

	signKey := []byte(cfg.SigningKey)
	if len(signKey) == 0 {
		signKey = make([]byte, 32)
		if _, err := rand.Read(signKey); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
		log.Warn("using ephemeral cookie signing key; set KIOSK_COOKIE_SIGNING_KEY for production")
	}
	if cfg.SQLitePath != "" {
		db, err := prefs.OpenDB(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		a.closeFns = append(a.closeFns, func() { _ = db.Close() })
		a.prefs = prefs.SQLiteProvider{DB: db, Secure: cfg.Prod()}
	} else {
		a.prefs = prefs.CookieProvider{SignKey: signKey, Secure: cfg.Prod()}
	}

	if !a.dev {
		// parse templates once in production
		tc, err := a.parseTemplates()
		if err != nil {
			return nil, fmt.Errorf("parse templates: %w", err)
		}
		a.tmpl = tc
	}
	return a, nil
}

func (a *app) Close() {
	for _, fn := range a.closeFns {
		fn()
	}
}

func (a *app) router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(mw.Device(a.cfg.Prod()))
	r.Use(mw.CSRF(a.cfg.Prod()))
	r.Use(mw.Logger(a.log))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	assets := http.StripPrefix("/assets/", http.FileServer(http.Dir(filepath.Join(a.cfg.PublicDir, "assets"))))
	r.Handle("/assets/*", assets)

	r.Get("/", a.scanPage)
	r.Post("/scan", a.scanSubmit)
	r.Get("/{clientCode}", a.landingPage)
	r.Post("/{clientCode}/visitor", a.visitorSubmit)
	r.Get("/{clientCode}/landing.json", a.landingRefresh)
	r.Get("/{clientCode}/exhibit/{code}", a.exhibitPage)

	return r
}

func (a *app) parseTemplates() (*template.Template, error) {
	funcMap := template.FuncMap{
		"describe": view.RenderDescription,
		"now":      time.Now,
	}
	// Recursively discover and parse all .tmpl files. ParseGlob doesn't support **.
	var files []string
	if err := filepath.WalkDir(a.cfg.TemplatesDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if strings.HasSuffix(d.Name(), ".tmpl") {
			files = append(files, path)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no templates found under %s", a.cfg.TemplatesDir)
	}
	return template.New("_root").Funcs(funcMap).ParseFiles(files...)
}

// render executes the named page template. In dev mode, templates are
// reparsed on each request.
func (a *app) render(w http.ResponseWriter, name string, data any) {
	t := a.tmpl
	if a.dev {
		tc, err := a.parseTemplates()
		if err != nil {
			http.Error(w, fmt.Sprintf("template parse error: %v", err), http.StatusInternalServerError)
			return
		}
		t = tc
	}
	if t == nil {
		http.Error(w, "template not initialized", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := t.ExecuteTemplate(w, name, data); err != nil {
		a.log.Error("template exec", zap.String("template", name), zap.Error(err))
	}
}
