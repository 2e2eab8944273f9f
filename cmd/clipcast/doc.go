// Command clipcast relays one media item per invocation from a cloud
// catalog to a social video destination. Run it from cron or a CI
// scheduler; all state lives in the configured state directory and its
// remote mirror, never in the process.
package main
