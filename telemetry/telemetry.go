// Package telemetry wires opencensus spans and counters around the message
// processing pipeline.
package telemetry

import (
	"context"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/trace"
)

var (
	MessagesDuplicate = stats.Int64("messages_duplicate", "messages skipped as duplicates", stats.UnitDimensionless)
	MessagesProcessed = stats.Int64("messages_processed", "messages processed to success", stats.UnitDimensionless)
	MessagesFailed    = stats.Int64("messages_failed", "messages that failed processing", stats.UnitDimensionless)
	DeadLetters       = stats.Int64("dead_letters", "messages parked in the dead letter store", stats.UnitDimensionless)
	ActionsExecuted   = stats.Int64("actions_executed", "actions executed successfully", stats.UnitDimensionless)
	ActionsFailed     = stats.Int64("actions_failed", "actions that failed", stats.UnitDimensionless)
	CompensationsRun  = stats.Int64("compensations_run", "compensations invoked", stats.UnitDimensionless)
)

// RegisterViews installs count views for all pipeline measures. Call once
// at startup.
func RegisterViews() error {
	views := []*view.View{
		{Name: "messages_duplicate", Measure: MessagesDuplicate, Aggregation: view.Count()},
		{Name: "messages_processed", Measure: MessagesProcessed, Aggregation: view.Count()},
		{Name: "messages_failed", Measure: MessagesFailed, Aggregation: view.Count()},
		{Name: "dead_letters", Measure: DeadLetters, Aggregation: view.Count()},
		{Name: "actions_executed", Measure: ActionsExecuted, Aggregation: view.Count()},
		{Name: "actions_failed", Measure: ActionsFailed, Aggregation: view.Count()},
		{Name: "compensations_run", Measure: CompensationsRun, Aggregation: view.Count()},
	}
	trace.ApplyConfig(trace.Config{DefaultSampler: trace.AlwaysSample()})
	return view.Register(views...)
}

func StartSpan(ctx context.Context, name string) (context.Context, *trace.Span) {
	return trace.StartSpan(ctx, name)
}

func CountDuplicate(ctx context.Context)    { stats.Record(ctx, MessagesDuplicate.M(1)) }
func CountProcessed(ctx context.Context)    { stats.Record(ctx, MessagesProcessed.M(1)) }
func CountFailed(ctx context.Context)       { stats.Record(ctx, MessagesFailed.M(1)) }
func CountDeadLetter(ctx context.Context)   { stats.Record(ctx, DeadLetters.M(1)) }
func CountActionOK(ctx context.Context)     { stats.Record(ctx, ActionsExecuted.M(1)) }
func CountActionFailed(ctx context.Context) { stats.Record(ctx, ActionsFailed.M(1)) }
func CountCompensation(ctx context.Context) { stats.Record(ctx, CompensationsRun.M(1)) }
