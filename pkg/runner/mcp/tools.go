package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"tableflip.dev/taskboard/pkg/task"
)

func registerTools(srv *server.MCPServer, svc *Service) {
	registerListTasksTool(srv, svc)
	registerGetTaskTool(srv, svc)
	registerTimelineRangeTool(srv, svc)
	registerRescheduleTool(srv, svc)
	registerSetStatusTool(srv, svc)
	registerSetHiddenTool(srv, svc)
	registerHistoryTool(srv, svc)
}

func statusNames() []string {
	out := make([]string, 0, len(task.AllStatuses()))
	for _, s := range task.AllStatuses() {
		out = append(out, string(s))
	}
	return out
}

func registerListTasksTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"list_tasks",
		mcp.WithDescription("List the tasks of the board with their dates and statuses."),
		mcp.WithArray("statuses",
			mcp.Description("Only include tasks in these statuses."),
			mcp.WithStringEnumItems(statusNames()),
		),
		mcp.WithString("search",
			mcp.Description("Case-insensitive text matched against the title or the id."),
		),
		mcp.WithBoolean("timeline_only",
			mcp.Description("Only include tasks drawn on the timeline: both dates set and not hidden."),
		),
		mcp.WithBoolean("refresh",
			mcp.Description("Reload the board from the server first."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Statuses     []string `json:"statuses"`
			Search       string   `json:"search"`
			TimelineOnly bool     `json:"timeline_only"`
			Refresh      bool     `json:"refresh"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		tasks, err := svc.ListTasks(ctx, ListOptions{
			Statuses:     args.Statuses,
			Search:       args.Search,
			TimelineOnly: args.TimelineOnly,
			Refresh:      args.Refresh,
		})
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		payload := map[string]any{
			"board": svc.BoardID,
			"count": len(tasks),
			"tasks": tasks,
		}
		if failed := svc.FailedWrites(); len(failed) > 0 {
			payload["failedWrites"] = failed
		}
		return toJSONResult(payload)
	})
}

func registerGetTaskTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"get_task",
		mcp.WithDescription("Fetch a single task by id."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Task id."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireInt("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dto, err := svc.GetTask(ctx, int64(id))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerTimelineRangeTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"timeline_range",
		mcp.WithDescription("Resolve the span of days the timeline shows: the earliest start to the latest end, widened to include today and padded by a week on each side."),
		mcp.WithArray("statuses",
			mcp.Description("Only consider tasks in these statuses."),
			mcp.WithStringEnumItems(statusNames()),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args struct {
			Statuses []string `json:"statuses"`
		}
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}
		dto, err := svc.TimelineRange(ctx, args.Statuses)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerRescheduleTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"reschedule_task",
		mcp.WithDescription("Shift a task by whole days. move shifts both dates; resize-left and resize-right move only the start or the end, which must stay at least a day apart."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Task id."),
		),
		mcp.WithNumber("days",
			mcp.Required(),
			mcp.Description("Days to shift by. Negative moves earlier."),
		),
		mcp.WithString("mode",
			mcp.Description("How the dates move."),
			mcp.Enum("move", "resize-left", "resize-right"),
			mcp.DefaultString("move"),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireInt("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		days, err := request.RequireInt("days")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		mode := request.GetString("mode", "move")

		dto, err := svc.Reschedule(ctx, int64(id), mode, days)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerSetStatusTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"set_status",
		mcp.WithDescription("Move a task to another status. The change is added to the task's status log."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Task id."),
		),
		mcp.WithString("status",
			mcp.Required(),
			mcp.Description("New status."),
			mcp.Enum(statusNames()...),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireInt("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		status, err := request.RequireString("status")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dto, err := svc.SetStatus(ctx, int64(id), status)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerSetHiddenTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"set_hidden",
		mcp.WithDescription("Hide a task from the timeline or show it again."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Task id."),
		),
		mcp.WithBoolean("hidden",
			mcp.Required(),
			mcp.Description("true hides the task."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireInt("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		hidden, err := request.RequireBool("hidden")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dto, err := svc.SetHidden(ctx, int64(id), hidden)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func registerHistoryTool(srv *server.MCPServer, svc *Service) {
	tool := mcp.NewTool(
		"task_history",
		mcp.WithDescription("Summarise how long a task spent in each status and list its status and date changes."),
		mcp.WithNumber("id",
			mcp.Required(),
			mcp.Description("Task id."),
		),
		mcp.WithString("window",
			mcp.Description("Only changes within this window, e.g. 3d, 2w, 1m. Empty means all."),
		),
	)

	srv.AddTool(tool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireInt("id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		dto, err := svc.History(ctx, int64(id), request.GetString("window", ""))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return toJSONResult(dto)
	})
}

func toJSONResult(data any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("marshal error: %v", err)), nil
	}
	return result, nil
}
