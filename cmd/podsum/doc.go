// Command podsum is the podcast summary pipeline CLI. The run command
// executes one full pass (poll, process, report); the per-stage commands
// drive a single episode through one stage at a time.
package main
