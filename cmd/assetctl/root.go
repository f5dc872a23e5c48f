package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/radif/media/internal/asset"
	"github.com/radif/media/internal/config"
	"github.com/radif/media/internal/logging"
	"github.com/radif/media/internal/storage"
)

// app holds what the commands share. Config is loaded before any command runs;
// the store is opened on first use.
type app struct {
	loadConfig func() (*config.Config, error)
	openStore  func(context.Context, config.Storage) (storage.Store, error)

	logLevel string

	cfg     *config.Config
	schemas map[string]*asset.Schema
	store   storage.Store
}

func defaultApp() *app {
	return &app{loadConfig: config.Load, openStore: storage.Open}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "assetctl",
		Short: "Inspect stored images and manage the asset schema",
		Long: `assetctl works against the object store and database configured in
config/media.yaml (section selected by APP_ENV, MEDIA_* variables override).`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newListCmd(a),
		newExistsCmd(a),
		newURLCmd(a),
		newMigrateCmd(a),
		newTokenCmd(a),
	)
	return root
}

func (a *app) setup(_ *cobra.Command, _ []string) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	logging.Setup(a.logLevel, "console")

	schemas, err := asset.SchemasFrom(cfg.Collections)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.schemas = make(map[string]*asset.Schema, len(schemas))
	for _, s := range schemas {
		a.schemas[s.Table()] = s
	}
	return nil
}

func (a *app) schema(collection string) (*asset.Schema, error) {
	s, ok := a.schemas[collection]
	if !ok {
		names := make([]string, 0, len(a.schemas))
		for name := range a.schemas {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown collection %q (configured: %s)", collection, strings.Join(names, ", "))
	}
	return s, nil
}

func (a *app) storeFor(ctx context.Context) (storage.Store, error) {
	if a.store == nil {
		s, err := a.openStore(ctx, a.cfg.Storage)
		if err != nil {
			return nil, err
		}
		a.store = s
	}
	return a.store, nil
}

// variantKeys returns the keys to inspect for filename: the one variant asked
// for, or every key the schema owns.
func variantKeys(s *asset.Schema, filename, variant string) ([]string, error) {
	if variant == "" {
		return s.Keys(filename), nil
	}
	if variant != asset.VariantOriginal {
		if _, ok := s.Geometry(variant); !ok {
			return nil, fmt.Errorf("collection %q has no variant %q", s.Table(), variant)
		}
	}
	return []string{s.Path(filename, variant)}, nil
}
