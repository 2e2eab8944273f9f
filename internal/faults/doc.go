// Package faults defines the relay failure taxonomy.
//
// Components never let raw transport or tooling errors escape; they classify
// them here so the orchestrator can map each failure class to an outcome
// (clean end, item abandoned, terminal failure) without inspecting error
// strings.
package faults
