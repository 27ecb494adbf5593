// Package report turns the batch event stream into console output and
// structured log records.
//
//	console := report.NewConsole(os.Stdout, verbose)
//	logger := report.NewLogger(logFile, verbose)
//	runner, _ := batch.NewRunner(settings, report.Tee(console.Handle, report.SlogSink(logger)))
package report
