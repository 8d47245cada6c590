package main

import (
	"context"

	"github.com/sdrshn-nmbr/txsched/pkg/client"
)

func (c *cliState) analyze(ctx context.Context, history string, save bool) (client.Report, error) {
	if c.http != nil {
		return c.http.Analyze(ctx, history, save, c.requestOptions())
	}
	return c.local.Analyze(ctx, history, save)
}

func (c *cliState) graph(ctx context.Context, history string) (client.Graph, error) {
	if c.http != nil {
		return c.http.Graph(ctx, history, c.requestOptions())
	}
	return c.local.Graph(ctx, history)
}

func (c *cliState) graphDOT(ctx context.Context, history string) (string, error) {
	if c.http != nil {
		return c.http.GraphDOT(ctx, history, c.requestOptions())
	}
	return c.local.GraphDOT(ctx, history)
}

func (c *cliState) diagram(ctx context.Context, history string) (*client.Diagram, error) {
	if c.http != nil {
		return c.http.Diagram(ctx, history, c.requestOptions())
	}
	return c.local.Diagram(ctx, history)
}

func (c *cliState) catalog(ctx context.Context) ([]client.Scenario, error) {
	if c.http != nil {
		return c.http.Catalog(ctx, c.requestOptions())
	}
	return c.local.Catalog(ctx)
}

func (c *cliState) getReport(ctx context.Context, id string) (client.Report, error) {
	if c.http != nil {
		return c.http.GetReport(ctx, id, c.requestOptions())
	}
	return c.local.GetReport(ctx, id)
}

func (c *cliState) listReports(ctx context.Context) ([]client.ReportSummary, error) {
	if c.http != nil {
		return c.http.ListReports(ctx, c.requestOptions())
	}
	return c.local.ListReports(ctx)
}

func (c *cliState) deleteReport(ctx context.Context, id string) error {
	if c.http != nil {
		return c.http.DeleteReport(ctx, id, c.requestOptions())
	}
	return c.local.DeleteReport(ctx, id)
}
