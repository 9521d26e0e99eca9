package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/mysteryparty-backend/internal/app"
	"github.com/yungbote/mysteryparty-backend/internal/config"
)

type commandContext struct {
	configFlag *string

	app  *app.App
	stop context.CancelFunc
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// ensureApp honours --config and lets mutate adjust the result before the
// app is wired.
func (c *commandContext) ensureApp(mutate func(*config.Config)) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	if c.configFlag != nil {
		if path := strings.TrimSpace(*c.configFlag); path != "" {
			if err := os.Setenv(config.EnvConfigPath, path); err != nil {
				return nil, err
			}
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if mutate != nil {
		mutate(&cfg)
	}
	a, err := app.NewTooling(cfg)
	if err != nil {
		return nil, err
	}
	c.app = a
	return a, nil
}

func (c *commandContext) close() {
	if c.app != nil {
		c.app.Close()
		c.app = nil
	}
	if c.stop != nil {
		c.stop()
		c.stop = nil
	}
}

func parseConversationID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil || id == uuid.Nil {
		return uuid.Nil, fmt.Errorf("invalid conversation id %q", raw)
	}
	return id, nil
}
