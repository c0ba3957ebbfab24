package core

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
)

const (
	settingTaskPriority = "task.priority"
	defaultTaskPriority = 2
)

// SettingsResolver reads tunables from the app_settings table.
type SettingsResolver interface {
	// Int returns the active integer value of key, or def when unset or unreadable.
	Int(ctx context.Context, key string, def int) int
	Reload(ctx context.Context) error
}

type setting struct {
	Value string `json:"value"`
	Found bool   `json:"found"`
}

type settingsResolver struct {
	db     pgxQuerier
	cache  *RefCache[setting]
	logger logrus.FieldLogger
}

// NewSettingsResolver constructs a cached SettingsResolver.
func NewSettingsResolver(db pgxQuerier, ttl time.Duration, logger logrus.FieldLogger, options ...CacheOption) SettingsResolver {
	r := &settingsResolver{db: db, logger: logger}
	r.cache = NewRefCache("app_setting", ttl, r.load, options...)
	return r
}

func (r *settingsResolver) Int(ctx context.Context, key string, def int) int {
	s, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.WithError(err).WithField("key", key).Warn("setting unavailable, using default")
		return def
	}
	if !s.Found {
		return def
	}
	n, err := strconv.Atoi(s.Value)
	if err != nil {
		r.logger.WithField("key", key).WithField("value", s.Value).Warn("setting is not an integer, using default")
		return def
	}
	return n
}

func (r *settingsResolver) Reload(ctx context.Context) error {
	return r.cache.Reload(ctx)
}

// load returns the highest-priority value that has not expired.
func (r *settingsResolver) load(ctx context.Context, key string) (setting, error) {
	var value string
	err := r.db.QueryRow(ctx, `
		SELECT value
		FROM app_settings
		WHERE key = $1
		  AND (effective_to IS NULL OR effective_to >= CURRENT_DATE)
		ORDER BY priority DESC
		LIMIT 1
	`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return setting{}, nil
		}
		return setting{}, fmt.Errorf("failed to resolve setting %q: %w", key, err)
	}
	return setting{Value: value, Found: true}, nil
}
