package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"blueprints.ai/internal/app"
	"blueprints.ai/internal/registry"
	"blueprints.ai/internal/transport/ws"
	"blueprints.ai/internal/tuning"
)

func main() {
	var (
		configPath = flag.String("config", "./configs/blueprints.yaml", "path to blueprints.yaml (empty for defaults)")
		addr       = flag.String("addr", "", "http listen address (overrides server.listen_addr)")
		saveDir    = flag.String("save_dir", "", "blueprint directory (overrides save_dir)")
		disableDB  = flag.Bool("disable_db", false, "disable the sqlite index")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lmicroseconds)

	tune, err := tuning.Load(*configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatalf("load tuning: %v", err)
		}
		logger.Printf("tuning not found (%s); using defaults", *configPath)
		tune = tuning.Defaults()
	}
	if *addr != "" {
		tune.Server.ListenAddr = *addr
	}
	if *saveDir != "" {
		tune.SaveDir = *saveDir
	}
	if *disableDB {
		tune.IndexDB = ""
	}

	a, err := app.Open(tune, logger)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer a.Close()

	ctx, cancel := signalContext()
	defer cancel()

	wsSrv := ws.NewServer(a.Ctrl, tune.Server, log.New(os.Stdout, "[ws] ", log.LstdFlags|log.Lmicroseconds))
	mux := newMux(wsSrv, logger)

	srv := &http.Server{
		Addr:              tune.Server.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Printf("listening on %s", tune.Server.ListenAddr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("ListenAndServe: %v", err)
	}
}

type templateView struct {
	Name     string `json:"name"`
	Size     [2]int `json:"size"`
	Entries  int    `json:"entries"`
	Exported bool   `json:"exported"`
	Cost     []cost `json:"cost"`
}

type cost struct {
	Item  string `json:"item"`
	Count int    `json:"count"`
}

func templateViews(c *registry.Controller) []templateView {
	out := []templateView{}
	for _, t := range c.Registry().List() {
		v := templateView{
			Name:     t.Name(),
			Size:     [2]int{t.Size().X, t.Size().Z},
			Entries:  t.Len(),
			Exported: t.Exported(),
			Cost:     []cost{},
		}
		for _, ic := range t.CostListAdjusted() {
			v.Cost = append(v.Cost, cost{Item: ic.Item, Count: ic.Count})
		}
		out = append(out, v)
	}
	return out
}

func newMux(wsSrv *ws.Server, logger *log.Logger) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/v1/templates", func(rw http.ResponseWriter, r *http.Request) {
		var views []templateView
		wsSrv.WithController(func(c *registry.Controller) { views = templateViews(c) })
		rw.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(rw).Encode(views)
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		var templates, exported int
		wsSrv.WithController(func(c *registry.Controller) {
			for _, t := range c.Registry().List() {
				templates++
				if t.Exported() {
					exported++
				}
			}
		})

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP blueprints_templates Live templates in the registry.\n")
		fmt.Fprintf(rw, "# TYPE blueprints_templates gauge\n")
		fmt.Fprintf(rw, "blueprints_templates %d\n", templates)

		fmt.Fprintf(rw, "# HELP blueprints_templates_exported Live templates matching their saved file.\n")
		fmt.Fprintf(rw, "# TYPE blueprints_templates_exported gauge\n")
		fmt.Fprintf(rw, "blueprints_templates_exported %d\n", exported)

		fmt.Fprintf(rw, "# HELP blueprints_preview_sessions Connected preview clients.\n")
		fmt.Fprintf(rw, "# TYPE blueprints_preview_sessions gauge\n")
		fmt.Fprintf(rw, "blueprints_preview_sessions %d\n", wsSrv.Sessions())
	})

	if envBool("BP_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()) {
		// Local-only: saves every live template that changed since its last save.
		mux.HandleFunc("/admin/v1/save_all", func(rw http.ResponseWriter, r *http.Request) {
			if !isLoopbackRemote(r.RemoteAddr) {
				http.Error(rw, "forbidden", http.StatusForbidden)
				return
			}
			if r.Method != http.MethodPost {
				http.Error(rw, "method not allowed", http.StatusMethodNotAllowed)
				return
			}
			saved := []string{}
			var errs []string
			wsSrv.WithController(func(c *registry.Controller) {
				for _, t := range c.Registry().List() {
					if t.Exported() {
						continue
					}
					if err := c.Save(t); err != nil {
						errs = append(errs, err.Error())
						continue
					}
					saved = append(saved, t.Name())
				}
			})
			rw.Header().Set("Content-Type", "application/json")
			if len(errs) > 0 {
				rw.WriteHeader(http.StatusInternalServerError)
			}
			_ = json.NewEncoder(rw).Encode(map[string]any{"ok": len(errs) == 0, "saved": saved, "errors": errs})
		})
	} else {
		logger.Printf("admin endpoints disabled (BP_ENABLE_ADMIN_HTTP=false)")
	}
	if envBool("BP_ENABLE_PPROF_HTTP", false) {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	mux.HandleFunc("/v1/ws", wsSrv.Handler())
	return mux
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}
