// Package svchost turns a Go program into a self-hosting service executable.
//
// The same binary installs, uninstalls, starts and stops itself through the
// platform service manager, runs under that manager as a daemon, and runs in
// the foreground when launched from a terminal:
//
//	func main() {
//	    os.Exit(svchost.Main(svchost.RunFunc(func(ctx context.Context) error {
//	        <-ctx.Done()
//	        return nil
//	    })))
//	}
//
//	app /install /serviceName=Demo /instance=One /startMode=Manual
//	app /start /serviceName=Demo /instance=One
//	app /serviceName=Demo /instance=One
//
// # Arguments
//
// Options are case-insensitive and may be written /key, /key=value,
// /key:value, -key=value or --key=value. A leading positional word (install,
// uninstall, start, stop, help) is accepted as an alias when no action
// option is given. Values can also come from a TOML or YAML file named by
// /configFile or found next to the executable; arguments override it.
//
// # Service managers
//
// ServiceManager abstracts the backend. Linux uses systemd when it is the
// running init system and runit otherwise; Windows uses the service control
// manager. Runit services are controlled through the supervise control FIFO
// and status file directly, without running sv.
//
// # Lifecycle
//
// Dispatcher resolves the requested action and performs it. Controller waits
// for start and stop transitions within the configured timeout. Host runs the
// Workload once no action was requested: under the service manager it stops
// on SIGTERM or the service stop request; in a console the first Ctrl+C stops
// the workload and further interrupts are ignored.
package svchost
