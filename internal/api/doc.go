// Package api exposes the pipeline over HTTP.
//
// Routes:
//
//	POST /api/sensor/upload      ingest a reading       201 {"status":"saved_to_raw"}
//	GET  /api/ml/fetch_latest    latest reading         200 reading | {"error":"no_data"}
//	POST /api/ml/submit_result   submit a verdict       201 {"status":"saved_to_result"}
//	GET  /api/dashboard/monitor  dashboard snapshot     200 snapshot
//	GET  /health                 liveness               200 OK
//	GET  /metrics                Prometheus exposition
//
// Failures use the APIError envelope {"code","message","details"}.
package api
