package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mmynk/roster/internal/config"
	"github.com/mmynk/roster/internal/controller"
	"github.com/mmynk/roster/internal/managed"
	"github.com/mmynk/roster/internal/metrics"
	"github.com/mmynk/roster/internal/models"
	"github.com/mmynk/roster/internal/storage"
	"github.com/mmynk/roster/internal/storage/memory"
	"github.com/mmynk/roster/internal/storage/sqlite"
)

// app wires a store, its context and the list controller for one command run.
type app struct {
	store    storage.Store
	records  *managed.Context
	list     *controller.ListController
	registry *prometheus.Registry
}

func openApp(cfg config.Config, out io.Writer, dispatch controller.Dispatcher) (*app, error) {
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	records := managed.New(store, managed.WithMetrics(metrics.New(registry)))

	view := &listView{w: out}
	list := controller.New(records, view, dispatch)
	view.list = list

	return &app{
		store:    store,
		records:  records,
		list:     list,
		registry: registry,
	}, nil
}

func openStore(cfg config.Config) (storage.Store, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.New(cfg.Locale), nil
	case config.BackendSQLite:
		store, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize storage: %w", err)
		}
		return store, nil
	}
	return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
}

func (a *app) Close() error {
	return a.store.Close()
}

// listView renders the controller's rows, one numbered label per line.
type listView struct {
	w    io.Writer
	list *controller.ListController
}

func (v *listView) Reload() {
	rows := v.list.Rows()
	if len(rows) == 0 {
		fmt.Fprintln(v.w, "(no people)")
		return
	}
	for i, label := range rows {
		fmt.Fprintf(v.w, "%d. %s\n", i+1, label)
	}
}

func writeFamilies(w io.Writer, families []*models.Family) {
	if len(families) == 0 {
		fmt.Fprintln(w, "(no families)")
		return
	}
	for _, f := range families {
		members := f.People()
		names := make([]string, len(members))
		for i, p := range members {
			names[i] = p.DisplayName()
		}
		fmt.Fprintf(w, "%s: %s\n", models.StringValue(f.Name), strings.Join(names, ", "))
	}
}
