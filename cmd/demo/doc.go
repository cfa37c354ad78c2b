// Command demo wires every tracer component into a single gin server:
// config → logging → metrics → matcher → sanitizer → scope store → event
// bus (+ console subscriber) → dispatcher → loader → runtime → assembler
// → egress transport, plus the optional live-trace viewer and v8-mode
// profiler. It exists to exercise the pipeline end to end, not as a
// production deployment target.
package main
