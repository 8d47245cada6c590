package client

import (
	"github.com/sdrshn-nmbr/txsched/internal/catalog"
	"github.com/sdrshn-nmbr/txsched/internal/history"
	"github.com/sdrshn-nmbr/txsched/internal/server"
	"github.com/sdrshn-nmbr/txsched/internal/storage"
)

// Report is an analysis result; ID is empty unless the report was saved.
type Report = storage.Record

type ReportSummary = server.ReportSummary

type Graph = server.GraphResponse

type Diagram = history.Diagram

type Scenario = catalog.Scenario
