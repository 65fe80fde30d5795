// Package app wires the forecast API together and manages its lifecycle.
// It loads configuration, initializes logging and OpenTelemetry, builds the
// services and the chi router, and runs the HTTP server until SIGINT or
// SIGTERM.
//
// # Usage
//
//	a, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return a.Run()
//
// # Graceful Shutdown
//
// On a signal the server stops accepting connections, in-flight requests
// get Server.ShutdownTimeout to finish, the WebSocket hub disconnects its
// clients, and the telemetry providers are flushed. The package never calls os.Exit.
package app
