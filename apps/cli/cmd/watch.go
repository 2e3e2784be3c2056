package cmd

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/abdul-hamid-achik/hitclient/packages/core/config"
	"github.com/abdul-hamid-achik/hitclient/packages/output"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

// watchConfig calls rerun after each change to the config file until ctx is done
func watchConfig(ctx context.Context, cmd *cobra.Command, flags *requestFlags, formatter output.Formatter, rerun func()) error {
	path := flags.configFile
	if path == "" {
		path = config.FindConfigFile(".")
	}
	if path == "" {
		return fail(formatter, ExitUsageError, fmt.Errorf("--watch needs a config file"))
	}

	target, err := filepath.Abs(path)
	if err != nil {
		return fail(formatter, ExitUsageError, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fail(formatter, ExitFailure, fmt.Errorf("failed to create file watcher: %w", err))
	}
	defer watcher.Close()

	// Watch the directory, editors often replace the file instead of writing it
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fail(formatter, ExitFailure, fmt.Errorf("failed to watch %s: %w", target, err))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching %s for changes... (press Ctrl+C to stop)\n\n", path)

	var debounce <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				debounce = time.After(WatchDebounceDelay)
			}

		case <-debounce:
			debounce = nil
			fmt.Fprintf(cmd.OutOrStdout(), "\nConfig changed: %s\nRe-running request...\n\n", path)
			rerun()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			formatter.FormatError(fmt.Errorf("watch: %w", err))
		}
	}
}
