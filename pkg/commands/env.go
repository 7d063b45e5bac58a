package commands

import (
	"context"
	"math/rand"
	"time"

	"tableflip.dev/taskboard/pkg/api"
	"tableflip.dev/taskboard/pkg/app"
	"tableflip.dev/taskboard/pkg/commands/options"
	"tableflip.dev/taskboard/pkg/store"
)

// load wires the service from configuration: the API client, the local
// cache and a task store that writes through to the API.
func load() (*app.Service, store.Config, error) {
	cfg, err := store.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	cache, err := store.Load(cfg)
	if err != nil {
		return nil, nil, err
	}
	client := api.New(cfg.APIURL(), api.WithTimeout(cfg.Timeout()))
	ts := store.NewTaskStore(cfg.Board(), client,
		store.WithCache(cache),
		store.WithWriteTimeout(cfg.Timeout()),
	)
	svc := &app.Service{
		API:          client,
		Cache:        cache,
		Store:        ts,
		DefaultBoard: cfg.Board(),
		Rand:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	if u, err := svc.CurrentUser(); err == nil {
		ts.SetUser(u.ID)
	}
	return svc, cfg, nil
}

func boardFor(ctx context.Context, svc *app.Service, o *options.BoardOptions) (int64, error) {
	if o != nil && o.Board != 0 {
		return o.Board, nil
	}
	return svc.Board(ctx)
}

// loadBoard resolves the board and refreshes its tasks.
func loadBoard(ctx context.Context, svc *app.Service, o *options.BoardOptions) (int64, error) {
	board, err := boardFor(ctx, svc, o)
	if err != nil {
		return 0, err
	}
	return board, svc.Refresh(ctx, board)
}
