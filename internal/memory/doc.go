// Package memory configures the Go heap limit for container deployments and
// reports heap pressure so in-process work can back off.
//
// # Heap Limit
//
// Go does not read the cgroup memory limit, so [ApplyLimit] derives
// GOMEMLIMIT from the MEMORY_LIMIT environment variable, usually populated
// through the Kubernetes Downward API:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//	- name: MEMORY_RATIO
//	  value: "0.75"
//
// MEMORY_RATIO (default 0.80) is the share given to the Go heap. The rest is
// left for the ffmpeg processes spawned by exports and thumbnail extraction.
// An explicit GOMEMLIMIT always wins.
//
// # Pressure Monitor
//
// [Monitor] samples the heap on an interval and flips into the pressure
// state when usage crosses EnterRatio of the limit, clearing once it falls
// below LeaveRatio. The thumbnail service consults [Monitor.UnderPressure]
// before decoding a new frame and answers busy instead.
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
package memory
