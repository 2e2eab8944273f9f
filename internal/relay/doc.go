// Package relay orchestrates one stateless relay invocation: discover
// candidates, select one, transform it into a portrait clip, publish it,
// and persist the dedup ledger or rotation cursor. Each run starts from
// persisted state and external services only; nothing survives in process
// memory between invocations.
package relay
