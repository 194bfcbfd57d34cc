// Package export materializes health telemetry into a flat CSV file.
//
// # Overview
//
// An Exporter walks the requested look-back one window at a time, oldest
// first. For every window it:
//   - queries the source for bpm, movement, pi and spo2 observations
//   - reassembles them into one row per timestamp key
//   - hands the rows to a Sink, which drops incomplete rows and writes the rest
//
// A window is fully written before the next one is requested, so a failure
// on window N leaves windows 1..N-1 in the file.
//
// # Output Format
//
// Comma-separated, UTF-8, one header line followed by rows in schema order.
//
// Calendar variant:
//
//	year,day_of_year,day_of_week,hour,minute,second,bpm,movement,pi,spo2
//	24,32,3,7,30,15,58,1,4.2,99
//
// Time-of-day variant:
//
//	hour,minute,second,bpm,movement,pi,spo2
//
// # Append vs Create
//
// Chunked runs append: the header is written only when the file does not
// exist yet, so repeated runs against the same file accumulate rows under a
// single header. Single-shot runs truncate the file and always write the
// header. A window without complete rows writes nothing in either mode.
//
// # Programmatic Usage
//
//	exporter := export.NewExporter(source, logger)
//	result, err := exporter.Export(ctx, export.ExportOptions{
//	    Days:        7,
//	    DayInterval: 1,
//	    Aggregate:   storage.Aggregate5m,
//	    Variant:     health.VariantCalendar,
//	    Bucket:      "health_data",
//	    Measurement: "Health",
//	    Output:      "health_data.csv",
//	})
package export
