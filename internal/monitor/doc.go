// Package monitor wires the hub connection, the sensor table and the
// display into one process.
//
// Ownership boundary:
// - process lifetime (signal handling)
// - launching the receive loop fire-and-forget
// - optional bus publisher and admin server
//
// The display loop runs on the caller's goroutine and its return ends the
// process. The receive loop is never joined: if the hub goes away the
// display keeps showing the last readings.
package monitor
