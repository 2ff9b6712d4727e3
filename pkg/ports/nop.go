package ports

import "time"

// NopMetrics is a MetricsCollector that discards everything. Useful in
// tests and when metrics are disabled.
type NopMetrics struct{}

func (NopMetrics) RecordPluginLaunched()                         {}
func (NopMetrics) RecordPluginCompleted(string, time.Duration)   {}
func (NopMetrics) RecordDependencyCheck(string)                  {}
func (NopMetrics) RecordKill()                                   {}
func (NopMetrics) SetActiveJobs(int)                             {}
func (NopMetrics) SetStoredResults(int)                          {}
