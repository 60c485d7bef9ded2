package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/curate/internal/services"
	"github.com/desertthunder/curate/internal/shared"
	"github.com/desertthunder/curate/internal/tasks"
)

// TodoistAdd files a cached release as a Todoist task and marks it "to listen".
func (r *Runner) TodoistAdd(ctx context.Context, cmd *cli.Command) error {
	id, err := releaseArg(cmd)
	if err != nil {
		return err
	}

	release, ok, err := r.cache.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load cache: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %d", shared.ErrReleaseNotFound, id)
	}

	resp := r.dispatcher(ctx).Handle(ctx, "cli", tasks.Request{Type: tasks.CreateTodoistTask, Release: release})
	if !resp.Success {
		return errors.New(resp.Error)
	}

	if task, ok := resp.Data.(*services.TodoistTask); ok && task.URL != "" {
		return r.writePlain("✓ Task created: %s\n  %s\n", services.TaskContent(*release), task.URL)
	}
	return r.writePlain("✓ Task created: %s\n", services.TaskContent(*release))
}
