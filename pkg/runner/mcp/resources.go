package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func registerResources(srv *server.MCPServer, svc *Service) {
	registerTasksResource(srv, svc)
	registerTaskTemplate(srv, svc)
}

func registerTasksResource(srv *server.MCPServer, svc *Service) {
	resource := mcp.NewResource(
		"taskboard://tasks",
		"Tasks",
		mcp.WithResourceDescription("Every task on the board with its dates and timeline visibility."),
		mcp.WithMIMEType("application/json"),
	)

	srv.AddResource(resource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		tasks, err := svc.ListTasks(ctx, ListOptions{})
		if err != nil {
			return nil, err
		}
		rng, err := svc.TimelineRange(ctx, nil)
		if err != nil {
			return nil, err
		}

		payload := map[string]any{
			"board":    svc.BoardID,
			"count":    len(tasks),
			"tasks":    tasks,
			"timeline": rng,
		}
		return encodeResourceJSON(request.Params.URI, payload)
	})
}

func registerTaskTemplate(srv *server.MCPServer, svc *Service) {
	template := mcp.NewResourceTemplate(
		"taskboard://tasks/{id}",
		"Task Details",
		mcp.WithTemplateDescription("Detailed information about a single task."),
		mcp.WithTemplateMIMEType("application/json"),
	)

	srv.AddResourceTemplate(template, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		raw := templateArg(request.Params.Arguments["id"])
		if raw == "" {
			return nil, fmt.Errorf("task id is required")
		}
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid task id %q", raw)
		}

		dto, err := svc.GetTask(ctx, id)
		if err != nil {
			return nil, err
		}

		payload := map[string]any{
			"task": dto,
		}
		return encodeResourceJSON(request.Params.URI, payload)
	})
}

// templateArg reads a URI template variable, which the server may hand over
// as a string or a single-element list.
func templateArg(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		if len(t) > 0 {
			return t[0]
		}
	}
	return ""
}

func encodeResourceJSON(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
