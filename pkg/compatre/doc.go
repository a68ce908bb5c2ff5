// Package compatre rewrites version-qualified symbol references in compiled
// plugin modules so that code built against one host build runs on another.
//
// A module opts in by carrying the marker annotation ([DefaultMarker]). Every
// symbol reference of a marked module under one of the configured namespace
// roots (net/minecraft/server and org/bukkit/craftbukkit by default) has its
// version segment, e.g. "v1_8_R3", replaced with the running host's token.
// Unmarked modules are never touched.
//
// # Basic Usage
//
//	c, err := compatre.New(compatre.Config{
//	    HostPackage: "org.bukkit.craftbukkit.v1_16_R2",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Primary strategy: intercept module loading.
//	if err := c.Install(host); err != nil {
//	    log.Fatal(err)
//	}
//
// # Cache Injection
//
// Plugins whose loader already exists are handled by overriding the loader's
// resolved cache:
//
//	report, err := c.Inject(host, plugin)
//
// Inject needs privileged access to the loader. When the host refuses it,
// Inject returns [ErrPrivilegeUnavailable] and nothing has been changed.
// Per-module failures are collected in the [Report]; the other modules are
// still injected.
//
// # Host Version
//
// The token is read once from the host, through [WithResolver], [WithProbe]
// or Config.HostPackage in that order, and memoized. A host without a
// recognizable token yields [ErrUnsupportedHost] for every marked module.
//
// # Lifecycle States
//
// A Compatre instance can be in one of five states: [StateStopped],
// [StateStarting], [StateRunning], [StateStopping], or [StateCrashed]. Start
// and Stop only matter for instances with plugins, such as the archive
// watcher in plugins/archivewatcher.
package compatre
