package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/fsnotify/fsnotify"

	"hris/internal/domain/payroll"
	"hris/internal/domain/payroll/statutory"
)

// LoadTables stores every table set found in dir, replacing stored years.
func LoadTables(ctx context.Context, tables *payroll.TableService, dir string) ([]int, error) {
	source, err := statutory.LoadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load statutory tables from %s: %w", dir, err)
	}
	years := source.Years()
	slices.Sort(years)
	for _, year := range years {
		if err := tables.Store(ctx, source[year]); err != nil {
			return nil, fmt.Errorf("store statutory tables %d: %w", year, err)
		}
	}
	if len(years) > 0 {
		slog.Info("statutory tables loaded", "dir", dir, "years", years)
	}
	return years, nil
}

// WatchTables uploads a table file again whenever it is written or created in
// dir. It returns when ctx ends.
func WatchTables(ctx context.Context, tables *payroll.TableService, dir string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	slog.Info("watching statutory tables", "dir", dir)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !statutory.IsTableFile(event.Name) {
				continue
			}
			if err := reloadTableFile(ctx, tables, event.Name); err != nil {
				slog.Warn("statutory table reload failed", "file", filepath.Base(event.Name), "err", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("statutory table watcher error", "err", err)
		}
	}
}

func reloadTableFile(ctx context.Context, tables *payroll.TableService, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	// Editors often truncate before writing; the follow-up write carries the content.
	if len(data) == 0 {
		return nil
	}
	set, err := tables.Upload(ctx, data)
	if err != nil {
		return err
	}
	slog.Info("statutory tables reloaded", "file", filepath.Base(path), "year", set.Year)
	return nil
}
